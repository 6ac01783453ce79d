package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/subsail/internal/subtitle"
)

var (
	playFlags sessionFlags
	playMode  string
	playStep  time.Duration
)

// errPlaybackDone ends the playback loops without reporting a failure.
var errPlaybackDone = errors.New("playback finished")

const playHelp = `Commands (type and press Enter):
  p          play / pause
  f, b       step forward / backward
  m          toggle adjust mode (offset / direct)
  r          time reset
  g SECONDS  jump to position
  h          minimize / restore
  c CODEC    change fallback codec and reload
  s          stop
  q          quit
  ?          this help`

var playCmd = &cobra.Command{
	Use:   "play [subtitle_file]",
	Short: "Show subtitles in sync with a playback clock",
	Long: `Play starts a playback clock and shows the subtitle line that is visible
at each moment. Forward/backward commands nudge timing so the text lines up
with whatever video is playing elsewhere.

In offset mode a step shifts the subtitles and leaves the clock alone; in
direct mode it moves the clock itself.

Frame-indexed .sub files without an embedded frame rate ask for one; use
--fps to answer up front.

Examples:
  subsail play movie.srt
  subsail play movie.sub --fps 25 --mode direct
  subsail play movie.srt --step 250ms --codec cp1251`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	addSessionFlags(playCmd, &playFlags)
	playCmd.Flags().
		StringVar(&playMode, "mode", "", "Adjust mode: offset or direct (overrides config)")
	playCmd.Flags().
		DurationVar(&playStep, "step", 0, "Step size for forward/backward (e.g. 500ms, overrides config)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	r := newPlayRenderer(out)

	failed := make(chan error, 1)
	e, err := newEngine(playFlags, func(err error) {
		select {
		case failed <- err:
		default:
		}
	})
	if err != nil {
		return friendly(err)
	}
	if playMode != "" {
		mode, err := subtitle.ParseAdjustMode(playMode)
		if err != nil {
			return err
		}
		if err := e.SetMode(mode); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("step") {
		if err := e.SetStepIncrement(playStep); err != nil {
			return err
		}
	}

	// stdin reads cannot be interrupted, so the reader lives outside the errgroup
	lines := make(chan string)
	go readLines(cmd.InOrStdin(), lines)

	res, err := e.Load(ctx, path)
	if err != nil {
		return friendly(err)
	}
	if res.Status == subtitle.LoadStatusNeedsFPS {
		if res, err = resolveFrameRate(ctx, e, r, lines, failed); err != nil {
			return friendly(err)
		}
	}

	doc := res.Document
	r.message("%s: %d cues, %s, encoding %s (%s)",
		doc.Name, len(doc.Cues), formatClock(doc.TotalTime()), doc.Encoding.Name, doc.Encoding.Source)
	r.message("%s", playHelp)

	if _, err := e.HandleEvent(subtitle.EventPlay); err != nil {
		return friendly(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tickLoop(gctx, e, r, currentSettings().TickInterval())
	})
	g.Go(func() error {
		return commandLoop(gctx, e, r, lines)
	})

	err = g.Wait()
	if errors.Is(err, errPlaybackDone) || errors.Is(err, context.Canceled) {
		r.message("")
		return nil
	}
	return friendly(err)
}

func readLines(in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lines <- strings.TrimSpace(scanner.Text())
	}
}

// resolveFrameRate prompts until a valid frame rate is given, the wait
// expires or input ends.
func resolveFrameRate(ctx context.Context, e *subtitle.Engine, r *playRenderer, lines <-chan string, failed <-chan error) (subtitle.LoadResult, error) {
	if playFlags.fps != "" {
		fps, err := subtitle.ParseFrameRate(playFlags.fps)
		if err != nil {
			e.CancelLoad()
			return subtitle.LoadResult{}, err
		}
		return e.SupplyFPS(fps)
	}

	r.message("This file counts frames, not time. Frame rate? (common: %s)", commonRates())
	for {
		select {
		case <-ctx.Done():
			e.CancelLoad()
			return subtitle.LoadResult{}, ctx.Err()
		case err := <-failed:
			return subtitle.LoadResult{}, err
		case line, ok := <-lines:
			if !ok {
				e.CancelLoad()
				return subtitle.LoadResult{}, errors.New("no frame rate given")
			}
			fps, err := subtitle.ParseFrameRate(line)
			if err != nil {
				r.message("%s, try again", userMessage(err))
				continue
			}
			res, err := e.SupplyFPS(fps)
			if errors.Is(err, subtitle.ErrInvalidFPS) {
				r.message("%s, try again", userMessage(err))
				continue
			}
			return res, err
		}
	}
}

func commonRates() string {
	rates := subtitle.CommonFrameRates()
	parts := make([]string, 0, len(rates))
	for _, fps := range rates {
		parts = append(parts, fps.String())
	}
	return strings.Join(parts, ", ")
}

// tickLoop feeds the engine from a monotonic clock until playback reaches
// the end or the context is cancelled.
func tickLoop(ctx context.Context, e *subtitle.Engine, r *playRenderer, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			spans := e.Tick(time.Since(start))
			st := e.State()
			r.show(st, spans)
			if st.Status == subtitle.StatusPlaying && e.AtEnd() {
				r.message("End of subtitles")
				return errPlaybackDone
			}
		}
	}
}

func commandLoop(ctx context.Context, e *subtitle.Engine, r *playRenderer, lines <-chan string) error {
	minimized := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// input closed: keep playing until the end
				lines = nil
				continue
			}
			done, err := runPlayCommand(e, r, line, &minimized)
			if err != nil {
				r.message("%s", userMessage(err))
			}
			if done {
				return errPlaybackDone
			}
		}
	}
}

// runPlayCommand applies one command line. It reports whether playback
// should end.
func runPlayCommand(e *subtitle.Engine, r *playRenderer, line string, minimized *bool) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch strings.ToLower(fields[0]) {
	case "p":
		ev := subtitle.EventPlay
		if e.State().Status == subtitle.StatusPlaying {
			ev = subtitle.EventPause
		}
		_, err := e.HandleEvent(ev)
		return false, err
	case "f":
		spans := e.StepForward()
		r.show(e.State(), spans)
	case "b":
		spans := e.StepBackward()
		r.show(e.State(), spans)
	case "m":
		mode := subtitle.ModeDirect
		if e.State().AdjustMode == subtitle.ModeDirect {
			mode = subtitle.ModeOffset
		}
		if err := e.SetMode(mode); err != nil {
			return false, err
		}
		r.message("Adjust mode: %s", mode)
	case "r":
		e.ResetTime()
		r.message("Time reset")
		spans := e.CurrentText()
		r.show(e.State(), spans)
	case "g":
		secs, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return false, fmt.Errorf("g needs a position in seconds, got %q", arg)
		}
		spans, err := e.SetSliderPosition(time.Duration(secs * float64(time.Second)))
		if err != nil {
			return false, err
		}
		r.show(e.State(), spans)
	case "h":
		ev := subtitle.EventMinimize
		if *minimized {
			ev = subtitle.EventRestore
		}
		*minimized = !*minimized
		status, err := e.HandleEvent(ev)
		if err != nil {
			return false, err
		}
		r.message("%s: %s", ev, status)
	case "c":
		if err := e.ChangeFallbackCodec(arg); err != nil {
			return false, err
		}
		r.message("Fallback codec: %s (playback reset, press p to play)", e.FallbackCodec())
	case "s":
		_, err := e.HandleEvent(subtitle.EventStop)
		return false, err
	case "q":
		return true, nil
	case "?", "help":
		r.message("%s", playHelp)
	default:
		r.message("Unknown command %q, type ? for help", fields[0])
	}
	return false, nil
}
