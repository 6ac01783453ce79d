package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/mgpai22/subsail/internal/subtitle"
	"github.com/spf13/cobra"
)

var (
	convertFlags  sessionFlags
	convertOffset time.Duration
)

var convertCmd = &cobra.Command{
	Use:   "convert [input] [output]",
	Short: "Convert a subtitle file to SRT or VTT",
	Long: `Convert loads a .srt or .sub file and writes it as SRT or VTT, chosen by
the output extension. Styling is kept as <i>, <b> and <u> tags and the text
is written as UTF-8.

--offset applies a timing shift the same way offset mode does during
playback: a positive offset makes every line appear earlier.

Examples:
  subsail convert movie.sub movie.srt --fps 25
  subsail convert movie.srt movie.vtt --offset 1.5s
  subsail convert old.srt fixed.srt --codec ISO-8859-2`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addSessionFlags(convertCmd, &convertFlags)
	convertCmd.Flags().
		DurationVar(&convertOffset, "offset", 0, "Timing offset to apply (e.g. 1.5s, -300ms)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]

	format := subtitle.GetFormatFromExtension(outputPath)
	writer, err := subtitle.NewWriter(format, convertOffset)
	if err != nil {
		return err
	}

	e, err := newEngine(convertFlags, nil)
	if err != nil {
		return friendly(err)
	}
	res, err := loadDocument(cmd.Context(), e, inputPath, convertFlags)
	if err != nil {
		return friendly(err)
	}

	logger.Infow("Converting subtitles",
		"input", inputPath,
		"output", outputPath,
		"format", format,
		"encoding", res.Encoding.Name,
		"offset", convertOffset.String(),
	)

	if err := writer.Write(res.Document, outputPath); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		logger.Infow("Subtitles written", "path", outputPath, "cues", len(res.Document.Cues), "bytes", info.Size())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outputPath)
	return nil
}
