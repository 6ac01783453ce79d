package subtitle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mgpai22/subsail/internal/logging"
)

const twoCueSRT = `1
00:00:01,000 --> 00:00:02,000
Hi

2
00:00:03,000 --> 00:00:04,500
<i>There</i>
`

const microDVD = `{25}{50}One|two
{75}{100}{y:i}Three
`

type fakeTimer struct {
	fire    func()
	wait    time.Duration
	stopped bool
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *fakeTimer) {
	t.Helper()
	e, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	timer := &fakeTimer{}
	e.afterFunc = func(d time.Duration, f func()) func() bool {
		timer.wait = d
		timer.fire = f
		timer.stopped = false
		return func() bool {
			timer.stopped = true
			return true
		}
	}
	return e, timer
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestEngineLoadAndPlay(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	path := writeFile(t, "movie.srt", []byte(twoCueSRT))

	res, err := e.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if res.Status != LoadStatusLoaded {
		t.Fatalf("expected loaded, got %s", res.Status)
	}
	if res.Encoding.Name != "UTF-8" {
		t.Errorf("expected UTF-8, got %q", res.Encoding.Name)
	}
	if len(res.Document.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(res.Document.Cues))
	}
	if st := e.State(); st.Status != StatusStopped || st.ClockTime != 0 || st.OffsetValue != 0 {
		t.Errorf("unexpected initial state %+v", st)
	}

	if _, err := e.HandleEvent(EventPlay); err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := e.Tick(1500 * time.Millisecond); !spansEqual(got, []StyledSpan{{Text: "Hi"}}) {
		t.Errorf("at 1.5s got %+v", got)
	}
	if got := e.Tick(3200 * time.Millisecond); !spansEqual(got, []StyledSpan{{Text: "There", Italic: true}}) {
		t.Errorf("at 3.2s got %+v", got)
	}
}

func TestEngineLoadErrors(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	ctx := context.Background()

	if _, err := e.Load(ctx, filepath.Join(t.TempDir(), "missing.srt")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}

	txt := writeFile(t, "notes.txt", []byte(twoCueSRT))
	if _, err := e.Load(ctx, txt); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	good := writeFile(t, "good.srt", []byte(twoCueSRT))
	if _, err := e.Load(cancelled, good); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if e.Document() != nil {
		t.Error("cancelled load installed a document")
	}
}

func TestEngineFailedLoadKeepsPreviousDocument(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	ctx := context.Background()

	if _, err := e.LoadBytes(ctx, "first.srt", []byte(twoCueSRT)); err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	e.HandleEvent(EventPlay)
	e.Tick(1500 * time.Millisecond)
	before := e.State()
	doc := e.Document()

	_, err := e.LoadBytes(ctx, "broken.srt", []byte("no cues in here\n"))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if e.Document() != doc {
		t.Error("failed load replaced the document")
	}
	if e.State() != before {
		t.Errorf("failed load changed state: %+v vs %+v", e.State(), before)
	}
}

func TestEngineFrameRateFlow(t *testing.T) {
	e, timer := newTestEngine(t, Options{FPSWait: 30 * time.Second})
	ctx := context.Background()

	res, err := e.LoadBytes(ctx, "movie.sub", []byte(microDVD))
	if err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	if res.Status != LoadStatusNeedsFPS {
		t.Fatalf("expected needs_fps, got %s", res.Status)
	}
	if !e.Pending() {
		t.Fatal("expected a pending load")
	}
	if timer.wait != 30*time.Second {
		t.Errorf("expected a 30s wait, got %v", timer.wait)
	}

	if _, err := e.LoadBytes(ctx, "other.srt", []byte(twoCueSRT)); err != ErrLoadInProgress {
		t.Errorf("expected ErrLoadInProgress, got %v", err)
	}

	if _, err := e.SupplyFPS(-1); !errors.Is(err, ErrInvalidFPS) {
		t.Fatalf("expected ErrInvalidFPS, got %v", err)
	}
	if !e.Pending() {
		t.Fatal("invalid frame rate must keep the load pending")
	}

	res, err = e.SupplyFPS(25)
	if err != nil {
		t.Fatalf("SupplyFPS returned error: %v", err)
	}
	if res.Status != LoadStatusLoaded {
		t.Fatalf("expected loaded, got %s", res.Status)
	}
	if !timer.stopped {
		t.Error("expected the wait timer to be stopped")
	}
	doc := res.Document
	if doc.FPS == nil || *doc.FPS != 25 {
		t.Errorf("expected document fps 25, got %v", doc.FPS)
	}
	if doc.Cues[0].StartTime != time.Second || doc.Cues[0].EndTime != 2*time.Second {
		t.Errorf("cue 0: got %v-%v", doc.Cues[0].StartTime, doc.Cues[0].EndTime)
	}
	if doc.Cues[0].StartFrame != 25 || doc.Cues[0].EndFrame != 50 {
		t.Errorf("cue 0: frames %d-%d", doc.Cues[0].StartFrame, doc.Cues[0].EndFrame)
	}
	if got := doc.Cues[1].Text; !spansEqual(got, []StyledSpan{{Text: "Three", Italic: true}}) {
		t.Errorf("cue 1: got %+v", got)
	}

	if _, err := e.SupplyFPS(25); err != ErrNoPendingLoad {
		t.Errorf("expected ErrNoPendingLoad, got %v", err)
	}
}

func TestEngineEmbeddedFrameRate(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	res, err := e.LoadBytes(context.Background(), "movie.sub", []byte("{1}{1}25\n"+microDVD))
	if err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	if res.Status != LoadStatusLoaded {
		t.Fatalf("expected loaded, got %s", res.Status)
	}
	if e.Pending() {
		t.Error("embedded rate should not leave a pending load")
	}
	if res.Document.Cues[1].StartTime != 3*time.Second {
		t.Errorf("expected 3s, got %v", res.Document.Cues[1].StartTime)
	}
}

func TestEngineFrameRateTimeout(t *testing.T) {
	var failed error
	e, timer := newTestEngine(t, Options{OnLoadFailed: func(err error) { failed = err }})
	ctx := context.Background()

	if _, err := e.LoadBytes(ctx, "first.srt", []byte(twoCueSRT)); err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	doc := e.Document()

	if _, err := e.LoadBytes(ctx, "movie.sub", []byte(microDVD)); err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	timer.fire()

	if !errors.Is(failed, ErrFPSTimeout) {
		t.Fatalf("expected ErrFPSTimeout callback, got %v", failed)
	}
	if DetailOf(failed) != "FPS change timer overflow" {
		t.Errorf("unexpected detail %q", DetailOf(failed))
	}
	if e.Pending() {
		t.Error("expired load still pending")
	}
	if e.Document() != doc {
		t.Error("expired load replaced the document")
	}

	if _, err := e.SupplyFPS(25); !errors.Is(err, ErrFPSTimeout) {
		t.Errorf("expected ErrFPSTimeout, got %v", err)
	}
	if _, err := e.SupplyFPS(25); err != ErrNoPendingLoad {
		t.Errorf("expected ErrNoPendingLoad on second call, got %v", err)
	}
}

func TestEngineCancelLoad(t *testing.T) {
	e, timer := newTestEngine(t, Options{})
	if e.CancelLoad() {
		t.Error("nothing to cancel")
	}
	if _, err := e.LoadBytes(context.Background(), "movie.sub", []byte(microDVD)); err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	if !e.CancelLoad() {
		t.Fatal("expected to cancel the pending load")
	}
	if !timer.stopped {
		t.Error("expected the wait timer to be stopped")
	}

	// a late timer firing after cancel is ignored
	timer.fire()
	if _, err := e.SupplyFPS(25); err != ErrNoPendingLoad {
		t.Errorf("expected ErrNoPendingLoad, got %v", err)
	}
}

func TestChangeFallbackCodec(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	ctx := context.Background()

	if _, err := e.LoadBytes(ctx, "latin.srt", []byte("1\n00:00:01,000 --> 00:00:02,000\n\xb9a\n")); err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	if got := Plain(e.Document().Cues[0].Text); got != "¹a" {
		t.Fatalf("windows-1252 decode: got %q", got)
	}
	e.AdjustTime(300*time.Millisecond, ModeOffset)

	err := e.ChangeFallbackCodec("")
	if !errors.Is(err, ErrCodecChange) || DetailOf(err) != "Codec empty" {
		t.Errorf("expected empty codec error, got %v", err)
	}

	err = e.ChangeFallbackCodec("klingon")
	if !errors.Is(err, ErrCodecChange) || DetailOf(err) != "Invalid codec: klingon" {
		t.Errorf("expected invalid codec error, got %v", err)
	}

	doc := e.Document()
	state := e.State()
	err = e.ChangeFallbackCodec("utf-8")
	if !errors.Is(err, ErrCodecChange) {
		t.Errorf("expected a failed reload, got %v", err)
	}
	if e.Document() != doc || e.State() != state || e.FallbackCodec() != "windows-1252" {
		t.Error("failed codec change modified the session")
	}

	if err := e.ChangeFallbackCodec("cp1252"); err != nil {
		t.Errorf("same codec should be a no-op, got %v", err)
	}
	if e.Document() != doc {
		t.Error("same codec reloaded the document")
	}

	if err := e.ChangeFallbackCodec("ISO-8859-2"); err != nil {
		t.Fatalf("ChangeFallbackCodec returned error: %v", err)
	}
	if got := Plain(e.Document().Cues[0].Text); got != "ša" {
		t.Errorf("iso-8859-2 decode: got %q", got)
	}
	if e.FallbackCodec() != "iso-8859-2" {
		t.Errorf("unexpected codec %q", e.FallbackCodec())
	}
	if st := e.State(); st.OffsetValue != 0 || st.Status != StatusStopped {
		t.Errorf("reload should reset playback, got %+v", st)
	}
}

func TestChangeFallbackCodecKeepsSuppliedFrameRate(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	if _, err := e.LoadBytes(context.Background(), "movie.sub", []byte("{25}{50}caf\xe9\n")); err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	if _, err := e.SupplyFPS(25); err != nil {
		t.Fatalf("SupplyFPS returned error: %v", err)
	}

	if err := e.ChangeFallbackCodec("ISO-8859-5"); err != nil {
		t.Fatalf("ChangeFallbackCodec returned error: %v", err)
	}
	doc := e.Document()
	if doc.FPS == nil || *doc.FPS != 25 {
		t.Errorf("expected the supplied rate to survive, got %v", doc.FPS)
	}
	if doc.Cues[0].StartTime != time.Second {
		t.Errorf("expected 1s, got %v", doc.Cues[0].StartTime)
	}
	if got := Plain(doc.Cues[0].Text); got != "cafщ" {
		t.Errorf("iso-8859-5 decode: got %q", got)
	}
}

func TestChangeFallbackCodecWithoutDocument(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	if err := e.ChangeFallbackCodec("koi8-r"); err != nil {
		t.Fatalf("ChangeFallbackCodec returned error: %v", err)
	}
	if e.FallbackCodec() != "koi8-r" {
		t.Errorf("unexpected codec %q", e.FallbackCodec())
	}

	if _, err := e.LoadBytes(context.Background(), "movie.sub", []byte(microDVD)); err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	if err := e.ChangeFallbackCodec("utf-8"); err != ErrLoadInProgress {
		t.Errorf("expected ErrLoadInProgress while pending, got %v", err)
	}
}

func TestNewEngineRejectsBadCodec(t *testing.T) {
	if _, err := NewEngine(Options{FallbackCodec: "klingon"}); !errors.Is(err, ErrCodecChange) {
		t.Errorf("expected ErrCodecChange, got %v", err)
	}
}

func TestEngineLogsLoadsWithSession(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e, _ := newTestEngine(t, Options{Logger: logging.FromZap(zap.New(core))})

	if _, err := e.LoadBytes(context.Background(), "movie.srt", []byte(twoCueSRT)); err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}

	loaded := logs.FilterMessage("subtitle loaded").All()
	if len(loaded) != 1 {
		t.Fatalf("expected 1 load entry, got %d", len(loaded))
	}
	ctx := loaded[0].ContextMap()
	if ctx["session"] == "" || ctx["session"] == nil {
		t.Error("expected a session id on engine logs")
	}
	if ctx["cues"] != int64(2) {
		t.Errorf("expected cues=2, got %v", ctx["cues"])
	}
}
