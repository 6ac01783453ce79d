package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/subsail/internal/subtitle"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	inspectFlags  sessionFlags
	inspectOutput string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [subtitle_file]",
	Short: "Show the detected encoding, format and cues of a subtitle file",
	Long: `Inspect loads a subtitle file the same way the player does and prints
what was detected: text encoding and how it was chosen, format and dialect,
frame rate and every cue with its styling.

Examples:
  subsail inspect movie.srt
  subsail inspect movie.sub --fps 23.976
  subsail inspect movie.srt --codec ISO-8859-2 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	addSessionFlags(inspectCmd, &inspectFlags)
	inspectCmd.Flags().
		StringVarP(&inspectOutput, "output", "o", "table", "Output format (table, json, yaml)")
}

// inspectReport is the machine readable form of an inspected document.
type inspectReport struct {
	Name     string         `json:"name" yaml:"name"`
	Format   string         `json:"format" yaml:"format"`
	Dialect  string         `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Encoding string         `json:"encoding" yaml:"encoding"`
	Source   string         `json:"encoding_source" yaml:"encoding_source"`
	FPS      float64        `json:"fps,omitempty" yaml:"fps,omitempty"`
	Skipped  int            `json:"skipped" yaml:"skipped"`
	Total    string         `json:"total" yaml:"total"`
	Cues     []inspectedCue `json:"cues" yaml:"cues"`
}

type inspectedCue struct {
	Index int                   `json:"index" yaml:"index"`
	Start string                `json:"start" yaml:"start"`
	End   string                `json:"end" yaml:"end"`
	Text  []subtitle.StyledSpan `json:"text" yaml:"text"`
}

func newInspectReport(res subtitle.LoadResult) inspectReport {
	doc := res.Document
	report := inspectReport{
		Name:     doc.Name,
		Format:   string(doc.Format),
		Dialect:  string(doc.Dialect),
		Encoding: doc.Encoding.Name,
		Source:   string(doc.Encoding.Source),
		Skipped:  res.Skipped,
		Total:    formatClock(doc.TotalTime()),
		Cues:     make([]inspectedCue, 0, len(doc.Cues)),
	}
	if doc.FPS != nil {
		report.FPS = float64(*doc.FPS)
	}
	for i, cue := range doc.Cues {
		report.Cues = append(report.Cues, inspectedCue{
			Index: i + 1,
			Start: formatClock(cue.StartTime),
			End:   formatClock(cue.EndTime),
			Text:  cue.Text,
		})
	}
	return report
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	e, err := newEngine(inspectFlags, nil)
	if err != nil {
		return friendly(err)
	}
	res, err := loadDocument(cmd.Context(), e, path, inspectFlags)
	if err != nil {
		return friendly(err)
	}

	report := newInspectReport(res)
	out := cmd.OutOrStdout()

	switch strings.ToLower(inspectOutput) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		fmt.Fprintf(out, "File:     %s\n", report.Name)
		fmt.Fprintf(out, "Format:   %s", report.Format)
		if report.Dialect != "" {
			fmt.Fprintf(out, " (%s)", report.Dialect)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Encoding: %s (%s)\n", report.Encoding, report.Source)
		if report.FPS > 0 {
			fmt.Fprintf(out, "FPS:      %s\n", subtitle.FrameRate(report.FPS))
		}
		fmt.Fprintf(out, "Duration: %s\n", report.Total)
		if report.Skipped > 0 {
			fmt.Fprintf(out, "Skipped:  %d malformed block(s)\n", report.Skipped)
		}
		fmt.Fprintln(out)

		rows := make([][]string, 0, len(report.Cues))
		for _, cue := range report.Cues {
			rows = append(rows, []string{
				strconv.Itoa(cue.Index),
				cue.Start,
				cue.End,
				subtitle.Markup(cue.Text),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Start", "End", "Text"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
		))
		return nil
	default:
		return fmt.Errorf("unsupported output %q: use table, json, or yaml", inspectOutput)
	}
}

// formatClock renders d as H:MM:SS.mmm; negative values get a leading minus.
func formatClock(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	ms := int(d/time.Millisecond) % 1000
	return fmt.Sprintf("%s%d:%02d:%02d.%03d", sign, h, m, s, ms)
}
