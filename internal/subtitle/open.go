package subtitle

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FormatFromPath maps a file extension onto a loadable format. Nothing is
// read from disk.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return FormatSRT, nil
	case ".sub":
		return FormatSUB, nil
	default:
		return "", newError(KindUnsupportedFormat, ext, nil)
	}
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatSUB:
		return ".sub"
	case FormatVTT:
		return ".vtt"
	default:
		return ".srt"
	}
}

// rawCue is a parsed cue whose text still carries markup and whose times may
// still be pending a frame rate.
type rawCue struct {
	index      int
	start      time.Duration
	end        time.Duration
	framed     bool
	startFrame int
	endFrame   int
	text       string
}

// parsed is the parser output before frame rate resolution.
type parsed struct {
	format      Format
	dialect     Dialect
	cues        []rawCue
	embeddedFPS *FrameRate
	skipped     int
}

func (p *parsed) needsFPS() bool {
	return p.dialect == DialectMicroDVD
}

func parseText(format Format, text string) (*parsed, error) {
	var (
		p   *parsed
		err error
	)
	switch format {
	case FormatSRT:
		p = parseSRT(text)
	case FormatSUB:
		p, err = parseSUB(text)
		if err != nil {
			return nil, err
		}
	default:
		return nil, newError(KindUnsupportedFormat, string(format), nil)
	}

	if len(p.cues) == 0 {
		return nil, errorf(KindParse, "no valid cues in %s file (%d malformed)", format, p.skipped)
	}
	return p, nil
}

// buildCues normalises decorations once all times are known.
func buildCues(raw []rawCue) []Cue {
	cues := make([]Cue, 0, len(raw))
	for _, rc := range raw {
		cue := Cue{
			Index:     rc.index,
			StartTime: rc.start,
			EndTime:   rc.end,
			Text:      Normalize(rc.text),
		}
		if rc.framed {
			cue.StartFrame = rc.startFrame
			cue.EndFrame = rc.endFrame
		}
		cues = append(cues, cue)
	}
	return cues
}

// parseClock converts h:m:s and a fractional part into a duration. The
// fraction is read as decimal digits so ".5", ".50" and ".500" are equal.
func parseClock(hours, minutes, seconds, fraction string) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	if m > 59 || s > 59 {
		return 0, fmt.Errorf("clock value out of range: %s:%s:%s", hours, minutes, seconds)
	}
	if len(fraction) > 3 {
		fraction = fraction[:3]
	}
	fraction += strings.Repeat("0", 3-len(fraction))
	ms, err := strconv.Atoi(fraction)
	if err != nil {
		return 0, err
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
