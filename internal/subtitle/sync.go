package subtitle

import (
	"fmt"
	"strings"
	"time"
)

// PlaybackStatus is the synchronizer state.
type PlaybackStatus string

const (
	StatusStopped PlaybackStatus = "stopped"
	StatusPlaying PlaybackStatus = "playing"
	StatusPaused  PlaybackStatus = "paused"
)

// AdjustMode selects what forward/backward commands change.
type AdjustMode string

const (
	// ModeDirect moves the playback clock itself.
	ModeDirect AdjustMode = "direct"
	// ModeOffset shifts subtitle timing and leaves the clock alone.
	ModeOffset AdjustMode = "offset"
)

// ParseAdjustMode accepts "direct"/"time" and "offset".
func ParseAdjustMode(s string) (AdjustMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct", "time":
		return ModeDirect, nil
	case "offset", "":
		return ModeOffset, nil
	default:
		return "", fmt.Errorf("unknown adjust mode %q: use direct or offset", s)
	}
}

// PlaybackEvent is an external signal driving the state machine.
type PlaybackEvent string

const (
	EventPlay     PlaybackEvent = "play"
	EventPause    PlaybackEvent = "pause"
	EventStop     PlaybackEvent = "stop"
	EventMinimize PlaybackEvent = "minimize"
	EventRestore  PlaybackEvent = "restore"
)

// DefaultStepIncrement is the forward/backward step when none is configured.
const DefaultStepIncrement = 500 * time.Millisecond

// PlaybackState is the mutable half of a session.
type PlaybackState struct {
	ClockTime     time.Duration  `json:"clock" yaml:"clock"`
	AdjustMode    AdjustMode     `json:"mode" yaml:"mode"`
	OffsetValue   time.Duration  `json:"offset" yaml:"offset"`
	StepIncrement time.Duration  `json:"step" yaml:"step"`
	Status        PlaybackStatus `json:"status" yaml:"status"`
}

// EffectiveTime is the time cue intervals are compared against.
func (s PlaybackState) EffectiveTime() time.Duration {
	return s.ClockTime + s.OffsetValue
}

// SyncOptions carries the playback settings owned by the settings layer.
type SyncOptions struct {
	Mode               AdjustMode
	StepIncrement      time.Duration
	SliderEnabled      bool
	AutoResume         bool
	PauseWhenMinimized bool
}

// Synchronizer owns the playback clock for one document. It has no timers
// of its own; an external cadence calls Tick. It is not safe for concurrent
// use, the Engine serialises access.
type Synchronizer struct {
	doc   *Document
	state PlaybackState
	opts  SyncOptions

	lastTick         time.Duration
	pausedByMinimize bool
}

// NewSynchronizer starts stopped at time zero.
func NewSynchronizer(opts SyncOptions) *Synchronizer {
	if opts.Mode == "" {
		opts.Mode = ModeOffset
	}
	if opts.StepIncrement <= 0 {
		opts.StepIncrement = DefaultStepIncrement
	}
	s := &Synchronizer{opts: opts}
	s.state = PlaybackState{
		AdjustMode:    opts.Mode,
		StepIncrement: opts.StepIncrement,
		Status:        StatusStopped,
	}
	return s
}

// SetDocument swaps the document and resets clock and offset.
func (s *Synchronizer) SetDocument(doc *Document) {
	s.doc = doc
	s.Reset()
	s.state.Status = StatusStopped
	s.pausedByMinimize = false
}

// Document returns the document being played, if any.
func (s *Synchronizer) Document() *Document {
	return s.doc
}

// State returns a copy of the playback state.
func (s *Synchronizer) State() PlaybackState {
	return s.state
}

// Handle applies a playback event and returns the resulting status.
func (s *Synchronizer) Handle(ev PlaybackEvent) (PlaybackStatus, error) {
	switch ev {
	case EventPlay:
		if s.doc == nil {
			return s.state.Status, ErrNoDocument
		}
		s.state.Status = StatusPlaying
		s.pausedByMinimize = false
	case EventPause:
		if s.state.Status == StatusPlaying {
			s.state.Status = StatusPaused
		}
		s.pausedByMinimize = false
	case EventStop:
		s.state.Status = StatusStopped
		s.state.ClockTime = 0
		s.pausedByMinimize = false
	case EventMinimize:
		if s.state.Status == StatusPlaying && s.opts.PauseWhenMinimized {
			s.state.Status = StatusPaused
			s.pausedByMinimize = true
		}
	case EventRestore:
		if s.state.Status == StatusPaused && s.pausedByMinimize && s.opts.AutoResume {
			s.state.Status = StatusPlaying
		}
		s.pausedByMinimize = false
	default:
		return s.state.Status, fmt.Errorf("unknown playback event %q", ev)
	}
	return s.state.Status, nil
}

// Tick feeds a reading of the external cadence clock. While playing the
// clock moves forward by the time elapsed since the previous reading;
// otherwise, or when the reading went backwards, the reading is only noted.
func (s *Synchronizer) Tick(now time.Duration) []StyledSpan {
	elapsed := now - s.lastTick
	s.lastTick = now

	if s.state.Status == StatusPlaying && elapsed > 0 {
		s.state.ClockTime = s.clamp(s.state.ClockTime + elapsed)
	}
	return s.CurrentText()
}

// AdjustDirect moves the clock by delta, clamped to [0, TotalTime].
func (s *Synchronizer) AdjustDirect(delta time.Duration) []StyledSpan {
	s.state.ClockTime = s.clamp(s.state.ClockTime + delta)
	return s.CurrentText()
}

// AdjustOffset shifts subtitle timing by delta without touching the clock.
func (s *Synchronizer) AdjustOffset(delta time.Duration) []StyledSpan {
	s.state.OffsetValue += delta
	return s.CurrentText()
}

// AdjustTime routes delta through the given mode.
func (s *Synchronizer) AdjustTime(delta time.Duration, mode AdjustMode) []StyledSpan {
	if mode == ModeDirect {
		return s.AdjustDirect(delta)
	}
	return s.AdjustOffset(delta)
}

// StepForward applies one step increment in the current mode.
func (s *Synchronizer) StepForward() []StyledSpan {
	return s.AdjustTime(s.state.StepIncrement, s.state.AdjustMode)
}

// StepBackward applies one negative step increment in the current mode.
func (s *Synchronizer) StepBackward() []StyledSpan {
	return s.AdjustTime(-s.state.StepIncrement, s.state.AdjustMode)
}

// SetSliderPosition sets the clock from a position slider. While playing it
// is only honoured if the slider is enabled during playback.
func (s *Synchronizer) SetSliderPosition(t time.Duration) ([]StyledSpan, error) {
	if s.state.Status == StatusPlaying && !s.opts.SliderEnabled {
		return s.CurrentText(), fmt.Errorf("slider disabled during playback")
	}
	s.state.ClockTime = s.clamp(t)
	return s.CurrentText(), nil
}

// SetMode switches between direct and offset adjustment. Past adjustments
// keep their meaning.
func (s *Synchronizer) SetMode(mode AdjustMode) {
	s.state.AdjustMode = mode
	s.opts.Mode = mode
}

// SetStepIncrement changes the per-command adjustment magnitude.
func (s *Synchronizer) SetStepIncrement(step time.Duration) error {
	if step <= 0 {
		return fmt.Errorf("step increment must be positive, got %s", step)
	}
	s.state.StepIncrement = step
	s.opts.StepIncrement = step
	return nil
}

// Reset zeroes the clock and the offset.
func (s *Synchronizer) Reset() {
	s.state.ClockTime = 0
	s.state.OffsetValue = 0
}

// AtEnd reports whether the clock reached the end of the last cue.
func (s *Synchronizer) AtEnd() bool {
	return s.doc != nil && s.state.ClockTime >= s.doc.TotalTime()
}

// CurrentText is recomputed from the document and state on every call.
func (s *Synchronizer) CurrentText() []StyledSpan {
	if s.doc == nil {
		return nil
	}
	return s.doc.TextAt(s.state.EffectiveTime())
}

func (s *Synchronizer) clamp(t time.Duration) time.Duration {
	if t < 0 {
		return 0
	}
	if total := s.doc.TotalTime(); t > total {
		return total
	}
	return t
}
