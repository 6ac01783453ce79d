package subtitle

import (
	"sort"
	"time"
)

// StyledSpan is a run of cue text sharing one style.
type StyledSpan struct {
	Text      string `json:"text" yaml:"text"`
	Italic    bool   `json:"italic,omitempty" yaml:"italic,omitempty"`
	Bold      bool   `json:"bold,omitempty" yaml:"bold,omitempty"`
	Underline bool   `json:"underline,omitempty" yaml:"underline,omitempty"`
}

func (s StyledSpan) sameStyle(o StyledSpan) bool {
	return s.Italic == o.Italic && s.Bold == o.Bold && s.Underline == o.Underline
}

// Cue is a single timed subtitle entry.
type Cue struct {
	Index     int           `json:"index" yaml:"index"`
	StartTime time.Duration `json:"start" yaml:"start"`
	EndTime   time.Duration `json:"end" yaml:"end"`
	// frame bounds, only set for frame-indexed sources
	StartFrame int          `json:"start_frame,omitempty" yaml:"start_frame,omitempty"`
	EndFrame   int          `json:"end_frame,omitempty" yaml:"end_frame,omitempty"`
	Text       []StyledSpan `json:"text" yaml:"text"`
}

// Contains reports whether t falls inside the closed cue interval.
func (c Cue) Contains(t time.Duration) bool {
	return c.StartTime <= t && t <= c.EndTime
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatSUB Format = "sub"
	FormatVTT Format = "vtt"
)

// Dialect narrows a .sub file down to the concrete layout found in it.
type Dialect string

const (
	DialectNone      Dialect = ""
	DialectMicroDVD  Dialect = "microdvd"
	DialectSubViewer Dialect = "subviewer"
)

// Document is an immutable, fully timed subtitle track.
type Document struct {
	Name     string       `json:"name" yaml:"name"`
	Encoding TextEncoding `json:"encoding" yaml:"encoding"`
	Format   Format       `json:"format" yaml:"format"`
	Dialect  Dialect      `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	FPS      *FrameRate   `json:"fps,omitempty" yaml:"fps,omitempty"`
	Cues     []Cue        `json:"cues" yaml:"cues"`

	// maxEnd[i] is the largest EndTime among Cues[0..i]
	maxEnd []time.Duration
}

func newDocument(name string, enc TextEncoding, format Format, dialect Dialect, fps *FrameRate, cues []Cue) *Document {
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].StartTime < cues[j].StartTime
	})

	maxEnd := make([]time.Duration, len(cues))
	var running time.Duration
	for i, cue := range cues {
		if cue.EndTime > running {
			running = cue.EndTime
		}
		maxEnd[i] = running
	}

	return &Document{
		Name:     name,
		Encoding: enc,
		Format:   format,
		Dialect:  dialect,
		FPS:      fps,
		Cues:     cues,
		maxEnd:   maxEnd,
	}
}

// TotalTime is the end of the latest cue.
func (d *Document) TotalTime() time.Duration {
	if d == nil || len(d.maxEnd) == 0 {
		return 0
	}
	return d.maxEnd[len(d.maxEnd)-1]
}

// ActiveCues returns every cue whose interval contains t, in start order.
func (d *Document) ActiveCues(t time.Duration) []Cue {
	if d == nil || len(d.Cues) == 0 || t < 0 {
		return nil
	}

	// first cue starting after t; everything before it is a candidate
	upper := sort.Search(len(d.Cues), func(i int) bool {
		return d.Cues[i].StartTime > t
	})

	// maxEnd is non-decreasing, so cues before lower all ended before t
	lower := sort.Search(upper, func(i int) bool {
		return d.maxEnd[i] >= t
	})

	var active []Cue
	for _, cue := range d.Cues[lower:upper] {
		if cue.Contains(t) {
			active = append(active, cue)
		}
	}
	return active
}

// TextAt joins the text of all cues active at t.
func (d *Document) TextAt(t time.Duration) []StyledSpan {
	active := d.ActiveCues(t)
	if len(active) == 0 {
		return nil
	}

	var spans []StyledSpan
	for i, cue := range active {
		if i > 0 {
			spans = append(spans, StyledSpan{Text: "\n"})
		}
		spans = append(spans, cue.Text...)
	}
	return NormalizeSpans(spans)
}
