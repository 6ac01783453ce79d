package subtitle

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// FrameRate converts frame numbers of frame-indexed formats into time.
type FrameRate float64

var commonFrameRates = []FrameRate{23.976, 24, 25, 29.97, 30, 50, 59.94, 60}

// CommonFrameRates lists the rates offered when asking the user for one.
func CommonFrameRates() []FrameRate {
	out := make([]FrameRate, len(commonFrameRates))
	copy(out, commonFrameRates)
	return out
}

// ParseFrameRate reads a decimal frame rate such as "23.976" or "25".
func ParseFrameRate(s string) (FrameRate, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, newError(KindInvalidFPS, s, err)
	}
	fps := FrameRate(v)
	if err := fps.Validate(); err != nil {
		return 0, err
	}
	return fps, nil
}

// Validate rejects non-finite and non-positive rates.
func (f FrameRate) Validate() error {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return errorf(KindInvalidFPS, "%v", v)
	}
	return nil
}

func (f FrameRate) String() string {
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

// FrameTime is the start of frame n, truncated to whole milliseconds.
func (f FrameRate) FrameTime(frame int) time.Duration {
	ms := math.Floor(float64(frame) / float64(f) * 1000)
	return time.Duration(ms) * time.Millisecond
}

// resolveFPS picks the rate used to time a frame-indexed document. An
// embedded marker wins over anything supplied from outside; it is unclear
// whether a user choice should override a marker in the file, and the marker
// is the only value tied to the file content.
func resolveFPS(embedded, supplied *FrameRate) (FrameRate, bool) {
	if embedded != nil {
		return *embedded, true
	}
	if supplied != nil {
		return *supplied, true
	}
	return 0, false
}

// applyFrameRate fills start and end times from frame bounds.
func applyFrameRate(cues []rawCue, fps FrameRate) {
	for i := range cues {
		if !cues[i].framed {
			continue
		}
		cues[i].start = fps.FrameTime(cues[i].startFrame)
		cues[i].end = fps.FrameTime(cues[i].endFrame)
	}
}
