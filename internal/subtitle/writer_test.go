package subtitle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSRTWriter(t *testing.T) {
	doc := testDocument()
	path := filepath.Join(t.TempDir(), "out", "movie.srt")

	w, err := NewWriter(FormatSRT, 0)
	if err != nil {
		t.Fatalf("NewWriter returned error: %v", err)
	}
	if err := w.Write(doc, path); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	want := "1\n00:00:01,000 --> 00:00:02,000\nHi\n\n" +
		"2\n00:00:03,000 --> 00:00:04,500\n<i>There</i>\n\n"
	if string(got) != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	p, err := parseText(FormatSRT, string(got))
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if len(p.cues) != 2 {
		t.Errorf("expected 2 cues after reparse, got %d", len(p.cues))
	}
}

func TestVTTWriterWithOffset(t *testing.T) {
	doc := testDocument()
	path := filepath.Join(t.TempDir(), "movie.vtt")

	w, err := NewWriter(FormatVTT, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWriter returned error: %v", err)
	}
	if err := w.Write(doc, path); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	want := "WEBVTT\n\n" +
		"1\n00:00:00.000 --> 00:00:00.500\nHi\n\n" +
		"2\n00:00:01.500 --> 00:00:03.000\n<i>There</i>\n\n"
	if string(got) != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestShiftedCuesDropsCuesBeforeZero(t *testing.T) {
	cues := shiftedCues(testDocument(), 2500*time.Millisecond)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].StartTime != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", cues[0].StartTime)
	}
}

func TestGetFormatFromExtension(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.vtt", FormatVTT},
		{"OUT.VTT", FormatVTT},
		{"out.srt", FormatSRT},
		{"out", FormatSRT},
	}
	for _, tt := range tests {
		if got := GetFormatFromExtension(tt.path); got != tt.want {
			t.Errorf("GetFormatFromExtension(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}

	if _, err := NewWriter(FormatSUB, 0); err == nil {
		t.Error("expected error for sub output")
	}
}
