package subtitle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/subsail/internal/logging"
)

// DefaultFPSWait bounds how long a frame-indexed load waits for a frame rate.
const DefaultFPSWait = 60 * time.Second

// LoadStatus tells whether a load finished or is waiting for a frame rate.
type LoadStatus string

const (
	LoadStatusLoaded   LoadStatus = "loaded"
	LoadStatusNeedsFPS LoadStatus = "needs_fps"
)

// LoadResult describes a successful or pending load.
type LoadResult struct {
	Status   LoadStatus
	Document *Document
	Encoding TextEncoding
	Skipped  int
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	FallbackCodec string
	Sync          SyncOptions
	FPSWait       time.Duration
	Logger        *logging.Logger
	// OnLoadFailed is called, outside the engine lock, when a pending load
	// fails asynchronously (FPS wait expired).
	OnLoadFailed func(error)
}

type source struct {
	name   string
	format Format
	data   []byte
}

type pendingLoad struct {
	id     uint64
	src    source
	enc    TextEncoding
	parsed *parsed
	stop   func() bool
}

// Engine is one viewer session: at most one installed document, one
// playback clock and at most one load in flight.
type Engine struct {
	mu   sync.Mutex
	opts Options
	log  *logging.Logger

	codec string
	sync  *Synchronizer

	// raw input and user supplied rate of the installed document
	src         *source
	suppliedFPS *FrameRate

	loading   bool
	pending   *pendingLoad
	pendingID uint64
	expired   error

	afterFunc func(time.Duration, func()) func() bool
}

// NewEngine validates the fallback codec and returns an idle engine.
func NewEngine(opts Options) (*Engine, error) {
	if strings.TrimSpace(opts.FallbackCodec) == "" {
		opts.FallbackCodec = DefaultFallbackCodec
	}
	_, canonical, err := LookupCodec(opts.FallbackCodec)
	if err != nil {
		return nil, newError(KindCodecChange, "Invalid codec: "+opts.FallbackCodec, err)
	}
	if opts.FPSWait <= 0 {
		opts.FPSWait = DefaultFPSWait
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	e := &Engine{
		opts:  opts,
		log:   opts.Logger.With("session", uuid.NewString()),
		codec: canonical,
		sync:  NewSynchronizer(opts.Sync),
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	e.log.Debugw("engine ready", "fallback_codec", canonical)
	return e, nil
}

// Load reads path and replaces the current document on success. A
// frame-indexed file without an embedded rate returns LoadStatusNeedsFPS and
// keeps the previous document until SupplyFPS completes the load.
func (e *Engine) Load(ctx context.Context, path string) (LoadResult, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		e.log.Warnw("no parser available", "path", path)
		return LoadResult{}, err
	}

	codec, err := e.beginLoad()
	if err != nil {
		return LoadResult{}, err
	}
	defer e.endLoad()

	if err := ctx.Err(); err != nil {
		return LoadResult{}, newError(KindUnknown, path, err)
	}

	e.log.Infow("loading subtitle", "path", path, "format", format)
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, classifyReadError(path, err)
	}

	return e.load(ctx, source{name: filepath.Base(path), format: format, data: data}, codec)
}

// LoadBytes is Load for content that is already in memory; name supplies
// the extension.
func (e *Engine) LoadBytes(ctx context.Context, name string, data []byte) (LoadResult, error) {
	format, err := FormatFromPath(name)
	if err != nil {
		return LoadResult{}, err
	}

	codec, err := e.beginLoad()
	if err != nil {
		return LoadResult{}, err
	}
	defer e.endLoad()

	buf := make([]byte, len(data))
	copy(buf, data)
	return e.load(ctx, source{name: name, format: format, data: buf}, codec)
}

func (e *Engine) beginLoad() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loading || e.pending != nil {
		return "", ErrLoadInProgress
	}
	e.loading = true
	e.expired = nil
	return e.codec, nil
}

func (e *Engine) endLoad() {
	e.mu.Lock()
	e.loading = false
	e.mu.Unlock()
}

func (e *Engine) load(ctx context.Context, src source, codec string) (LoadResult, error) {
	enc, p, err := decodeAndParse(src, codec)
	if err != nil {
		e.log.Warnw("subtitle load failed", "name", src.name, "error", err)
		return LoadResult{}, err
	}
	if p.skipped > 0 {
		e.log.Warnw("skipped malformed blocks", "name", src.name, "skipped", p.skipped)
	}

	if err := ctx.Err(); err != nil {
		return LoadResult{}, newError(KindUnknown, src.name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if p.needsFPS() {
		fps, ok := resolveFPS(p.embeddedFPS, nil)
		if !ok {
			e.startPending(src, enc, p)
			e.log.Infow("frame rate required", "name", src.name, "cues", len(p.cues))
			return LoadResult{Status: LoadStatusNeedsFPS, Encoding: enc, Skipped: p.skipped}, nil
		}
		e.log.Debugw("using embedded frame rate", "fps", fps)
		doc := finalize(src, enc, p, &fps)
		e.install(doc, src, nil)
		return LoadResult{Status: LoadStatusLoaded, Document: doc, Encoding: enc, Skipped: p.skipped}, nil
	}

	doc := finalize(src, enc, p, nil)
	e.install(doc, src, nil)
	return LoadResult{Status: LoadStatusLoaded, Document: doc, Encoding: enc, Skipped: p.skipped}, nil
}

func decodeAndParse(src source, codec string) (TextEncoding, *parsed, error) {
	enc, text, err := DetectEncoding(src.data, codec)
	if err != nil {
		return TextEncoding{}, nil, err
	}
	p, err := parseText(src.format, text)
	if err != nil {
		return TextEncoding{}, nil, err
	}
	return enc, p, nil
}

func finalize(src source, enc TextEncoding, p *parsed, fps *FrameRate) *Document {
	if fps != nil {
		applyFrameRate(p.cues, *fps)
	}
	var docFPS *FrameRate
	if fps != nil && p.needsFPS() {
		v := *fps
		docFPS = &v
	}
	return newDocument(src.name, enc, src.format, p.dialect, docFPS, buildCues(p.cues))
}

// install must be called with e.mu held.
func (e *Engine) install(doc *Document, src source, supplied *FrameRate) {
	e.sync.SetDocument(doc)
	s := src
	e.src = &s
	e.suppliedFPS = supplied
	e.log.Infow("subtitle loaded",
		"name", doc.Name,
		"format", doc.Format,
		"encoding", doc.Encoding.Name,
		"cues", len(doc.Cues),
		"total", doc.TotalTime().String(),
	)
}

// startPending must be called with e.mu held.
func (e *Engine) startPending(src source, enc TextEncoding, p *parsed) {
	e.pendingID++
	id := e.pendingID
	e.pending = &pendingLoad{id: id, src: src, enc: enc, parsed: p}
	e.pending.stop = e.afterFunc(e.opts.FPSWait, func() {
		e.expirePending(id)
	})
}

func (e *Engine) expirePending(id uint64) {
	e.mu.Lock()
	if e.pending == nil || e.pending.id != id {
		e.mu.Unlock()
		return
	}
	name := e.pending.src.name
	e.pending = nil
	err := newError(KindFPSTimeout, "FPS change timer overflow", nil)
	e.expired = err
	e.mu.Unlock()

	e.log.Warnw("frame rate not supplied in time", "name", name, "wait", e.opts.FPSWait.String())
	if e.opts.OnLoadFailed != nil {
		e.opts.OnLoadFailed(err)
	}
}

// SupplyFPS completes a load waiting for a frame rate. An invalid value is
// rejected and the load keeps waiting. After the wait expired the timeout
// error is returned once.
func (e *Engine) SupplyFPS(fps FrameRate) (LoadResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil {
		if e.expired != nil {
			err := e.expired
			e.expired = nil
			return LoadResult{}, err
		}
		return LoadResult{}, ErrNoPendingLoad
	}
	if err := fps.Validate(); err != nil {
		e.log.Warnw("rejected frame rate", "fps", float64(fps))
		return LoadResult{}, err
	}

	p := e.pending
	e.pending = nil
	p.stop()

	e.log.Infow("updating frame rate", "fps", fps.String())
	doc := finalize(p.src, p.enc, p.parsed, &fps)
	supplied := fps
	e.install(doc, p.src, &supplied)
	return LoadResult{Status: LoadStatusLoaded, Document: doc, Encoding: p.enc, Skipped: p.parsed.skipped}, nil
}

// CancelLoad drops a load waiting for a frame rate. It reports whether
// there was one.
func (e *Engine) CancelLoad() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return false
	}
	e.pending.stop()
	e.log.Infow("pending load cancelled", "name", e.pending.src.name)
	e.pending = nil
	return true
}

// Pending reports whether a load is waiting for a frame rate.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// Unload drops the installed document and resets playback.
func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sync.SetDocument(nil)
	e.src = nil
	e.suppliedFPS = nil
	e.log.Debugw("subtitle unloaded")
}

// FallbackCodec returns the canonical name of the active fallback codec.
func (e *Engine) FallbackCodec() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.codec
}

// ChangeFallbackCodec switches the fallback codec and, when a document is
// installed, rebuilds it from the retained bytes. Any failure leaves the
// previous codec, document and playback state in place.
func (e *Engine) ChangeFallbackCodec(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return newError(KindCodecChange, "Codec empty", nil)
	}
	_, canonical, err := LookupCodec(name)
	if err != nil {
		return newError(KindCodecChange, "Invalid codec: "+name, err)
	}

	e.mu.Lock()
	if e.loading || e.pending != nil {
		e.mu.Unlock()
		return ErrLoadInProgress
	}
	if strings.EqualFold(canonical, e.codec) {
		e.mu.Unlock()
		e.log.Debugw("codec not changed", "codec", canonical)
		return nil
	}
	if e.src == nil {
		e.codec = canonical
		e.mu.Unlock()
		e.log.Infow("fallback codec set", "codec", canonical)
		return nil
	}
	e.loading = true
	src := *e.src
	supplied := e.suppliedFPS
	e.mu.Unlock()
	defer e.endLoad()

	enc, p, err := decodeAndParse(src, canonical)
	if err != nil {
		e.log.Warnw("codec change rolled back", "codec", canonical, "error", err)
		return newError(KindCodecChange, "Failed to change fallback codec to "+canonical, err)
	}

	var fps *FrameRate
	if p.needsFPS() {
		v, ok := resolveFPS(p.embeddedFPS, supplied)
		if !ok {
			return newError(KindCodecChange, "Failed to change fallback codec to "+canonical,
				errorf(KindInvalidFPS, "frame rate unavailable after reload"))
		}
		fps = &v
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.install(finalize(src, enc, p, fps), src, supplied)
	e.codec = canonical
	e.log.Infow("fallback codec changed", "codec", canonical)
	return nil
}

// Document returns the installed document or nil.
func (e *Engine) Document() *Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.Document()
}

// State returns a snapshot of the playback state.
func (e *Engine) State() PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.State()
}

// HandleEvent forwards a playback event to the synchronizer.
func (e *Engine) HandleEvent(ev PlaybackEvent) (PlaybackStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	status, err := e.sync.Handle(ev)
	if err == nil {
		e.log.Debugw("playback event", "event", ev, "status", status)
	}
	return status, err
}

// Tick advances the clock from an external cadence reading.
func (e *Engine) Tick(now time.Duration) []StyledSpan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.Tick(now)
}

// AdjustTime applies delta through mode.
func (e *Engine) AdjustTime(delta time.Duration, mode AdjustMode) []StyledSpan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.AdjustTime(delta, mode)
}

// StepForward applies one step in the configured mode.
func (e *Engine) StepForward() []StyledSpan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.StepForward()
}

// StepBackward applies one negative step in the configured mode.
func (e *Engine) StepBackward() []StyledSpan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.StepBackward()
}

// SetSliderPosition moves the clock to t from a position slider.
func (e *Engine) SetSliderPosition(t time.Duration) ([]StyledSpan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.SetSliderPosition(t)
}

// SetMode switches the adjustment mode.
func (e *Engine) SetMode(mode AdjustMode) error {
	if mode != ModeDirect && mode != ModeOffset {
		return fmt.Errorf("unknown adjust mode %q", mode)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sync.SetMode(mode)
	return nil
}

// SetStepIncrement changes the step applied per forward/backward command.
func (e *Engine) SetStepIncrement(step time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.SetStepIncrement(step)
}

// ResetTime zeroes clock and offset.
func (e *Engine) ResetTime() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sync.Reset()
	e.log.Debugw("time reset")
}

// AtEnd reports whether playback reached the last cue end.
func (e *Engine) AtEnd() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.AtEnd()
}

// CurrentText is the visible subtitle text for the current state.
func (e *Engine) CurrentText() []StyledSpan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.CurrentText()
}

func classifyReadError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newError(KindFileNotFound, path, err)
	case errors.Is(err, fs.ErrPermission):
		return newError(KindAccessDenied, path, err)
	default:
		return newError(KindUnknown, path, err)
	}
}
