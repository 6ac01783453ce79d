package subtitle

import (
	"errors"
	"testing"
	"time"
)

func TestParseMicroDVD(t *testing.T) {
	content := `{0}{25}First line|Second line
{50}{100}{y:i}Italic line|plain line
{125.6}{150.2}{c:$0000FF}Colour dropped
{200}{150}end before start
garbage
{300}{350}[END]
{400}{450}after end
`
	p, err := parseText(FormatSUB, content)
	if err != nil {
		t.Fatalf("parseText returned error: %v", err)
	}
	if p.dialect != DialectMicroDVD {
		t.Fatalf("expected microdvd, got %q", p.dialect)
	}
	if !p.needsFPS() || p.embeddedFPS != nil {
		t.Fatalf("expected a frame rate to be required")
	}
	if len(p.cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(p.cues))
	}
	if p.skipped != 2 {
		t.Errorf("expected 2 skipped lines, got %d", p.skipped)
	}

	if p.cues[0].text != "First line\nSecond line" {
		t.Errorf("cue 0: got %q", p.cues[0].text)
	}
	if p.cues[1].text != "<i>Italic line</i>\nplain line" {
		t.Errorf("cue 1: got %q", p.cues[1].text)
	}
	if p.cues[2].startFrame != 125 || p.cues[2].endFrame != 150 {
		t.Errorf("cue 2: expected truncated frames 125-150, got %d-%d", p.cues[2].startFrame, p.cues[2].endFrame)
	}
	if p.cues[2].text != "Colour dropped" {
		t.Errorf("cue 2: got %q", p.cues[2].text)
	}
}

func TestParseMicroDVDEmbeddedFPS(t *testing.T) {
	content := "{1}{1}23.976\n{24}{48}{Y:b}Bold|all over\n"
	p, err := parseText(FormatSUB, content)
	if err != nil {
		t.Fatalf("parseText returned error: %v", err)
	}
	if p.embeddedFPS == nil || *p.embeddedFPS != 23.976 {
		t.Fatalf("expected embedded fps 23.976, got %v", p.embeddedFPS)
	}
	if len(p.cues) != 1 {
		t.Fatalf("expected the marker not to be a cue, got %d cues", len(p.cues))
	}
	if p.cues[0].text != "<b>Bold\nall over</b>" {
		t.Errorf("got %q", p.cues[0].text)
	}

	fps, ok := resolveFPS(p.embeddedFPS, nil)
	if !ok {
		t.Fatal("expected a resolved frame rate")
	}
	applyFrameRate(p.cues, fps)
	if p.cues[0].start != 1001*time.Millisecond {
		t.Errorf("expected start 1.001s, got %v", p.cues[0].start)
	}
	if p.cues[0].end != 2002*time.Millisecond {
		t.Errorf("expected end 2.002s, got %v", p.cues[0].end)
	}
}

func TestParseSubViewer(t *testing.T) {
	content := `[INFORMATION]
[TITLE]Example
[AUTHOR]Someone
[END INFORMATION]
[SUBTITLE]

00:00:01.50,00:00:03.00
First[br]second

bogus,timing
skipped text

00:00:04.00,00:00:05.25
<i>Styled</i>
`
	p, err := parseText(FormatSUB, content)
	if err != nil {
		t.Fatalf("parseText returned error: %v", err)
	}
	if p.dialect != DialectSubViewer {
		t.Fatalf("expected subviewer, got %q", p.dialect)
	}
	if p.needsFPS() {
		t.Error("subviewer files carry times and need no frame rate")
	}
	if len(p.cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(p.cues))
	}
	if p.skipped != 1 {
		t.Errorf("expected 1 skipped block, got %d", p.skipped)
	}
	if p.cues[0].start != 1500*time.Millisecond || p.cues[0].end != 3*time.Second {
		t.Errorf("cue 0: got %v-%v", p.cues[0].start, p.cues[0].end)
	}
	if p.cues[0].text != "First\nsecond" {
		t.Errorf("cue 0: got %q", p.cues[0].text)
	}
	if p.cues[1].end != 5250*time.Millisecond {
		t.Errorf("cue 1: expected end 5.25s, got %v", p.cues[1].end)
	}
}

func TestParseSUBUnknownDialect(t *testing.T) {
	_, err := parseText(FormatSUB, "\n\nhello there\n")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestFrameRate(t *testing.T) {
	if _, err := ParseFrameRate("25"); err != nil {
		t.Errorf("ParseFrameRate(25) returned error: %v", err)
	}
	for _, bad := range []string{"0", "-1", "abc", "NaN", "+Inf"} {
		if _, err := ParseFrameRate(bad); !errors.Is(err, ErrInvalidFPS) {
			t.Errorf("ParseFrameRate(%q): expected ErrInvalidFPS, got %v", bad, err)
		}
	}

	fps := FrameRate(25)
	if got := fps.FrameTime(50); got != 2*time.Second {
		t.Errorf("FrameTime(50) at 25fps = %v, want 2s", got)
	}
	if got := FrameRate(29.97).FrameTime(1); got != 33*time.Millisecond {
		t.Errorf("FrameTime(1) at 29.97fps = %v, want 33ms", got)
	}

	embedded := FrameRate(25)
	supplied := FrameRate(30)
	if got, _ := resolveFPS(&embedded, &supplied); got != embedded {
		t.Errorf("embedded rate should win, got %v", got)
	}
	if got, _ := resolveFPS(nil, &supplied); got != supplied {
		t.Errorf("supplied rate expected, got %v", got)
	}
	if _, ok := resolveFPS(nil, nil); ok {
		t.Error("expected no rate")
	}
}
