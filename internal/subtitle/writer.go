package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// interface for writing subtitles to files
type Writer interface {
	Write(doc *Document, path string) error
}

// SubRip format
type SRTWriter struct {
	// Offset matches the playback offset: a cue starting at S is written at S-Offset.
	Offset time.Duration
}

// WebVTT format
type VTTWriter struct {
	Offset time.Duration
}

func NewWriter(format Format, offset time.Duration) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{Offset: offset}, nil
	case FormatVTT:
		return &VTTWriter{Offset: offset}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// writes the document to an SRT file
func (w *SRTWriter) Write(doc *Document, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	n := 0
	for _, cue := range shiftedCues(doc, w.Offset) {
		n++
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", n))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(cue.StartTime),
			formatSRTTime(cue.EndTime)))

		sb.WriteString(Markup(cue.Text))
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// writes the document to a VTT file
func (w *VTTWriter) Write(doc *Document, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	n := 0
	for _, cue := range shiftedCues(doc, w.Offset) {
		n++
		sb.WriteString(fmt.Sprintf("%d\n", n))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatVTTTime(cue.StartTime),
			formatVTTTime(cue.EndTime)))
		sb.WriteString(Markup(cue.Text))
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// shiftedCues applies offset and drops cues that end before zero; starts
// pushed below zero are clamped.
func shiftedCues(doc *Document, offset time.Duration) []Cue {
	out := make([]Cue, 0, len(doc.Cues))
	for _, cue := range doc.Cues {
		cue.StartTime -= offset
		cue.EndTime -= offset
		if cue.EndTime < 0 {
			continue
		}
		if cue.StartTime < 0 {
			cue.StartTime = 0
		}
		out = append(out, cue)
	}
	return out
}

func formatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// output format based on file extension
func GetFormatFromExtension(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".vtt":
		return FormatVTT
	default:
		return FormatSRT
	}
}
