package cli

import (
	"context"
	"fmt"

	"github.com/mgpai22/subsail/internal/config"
	"github.com/mgpai22/subsail/internal/logging"
	"github.com/mgpai22/subsail/internal/subtitle"
	"github.com/spf13/cobra"
)

// sessionFlags are shared by every command that loads a subtitle file.
type sessionFlags struct {
	codec string
	fps   string
}

func addSessionFlags(cmd *cobra.Command, f *sessionFlags) {
	cmd.Flags().StringVar(&f.codec, "codec", "", "Fallback codec for files without a BOM (overrides config)")
	cmd.Flags().StringVar(&f.fps, "fps", "", "Frame rate for frame-indexed .sub files (e.g. 23.976)")
}

func currentSettings() *config.Config {
	if settings == nil {
		cfg := config.Default()
		return &cfg
	}
	return settings
}

func currentLogger() *logging.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger
}

// newEngine builds an engine from the loaded settings plus flag overrides.
func newEngine(f sessionFlags, onFailed func(error)) (*subtitle.Engine, error) {
	opts := currentSettings().EngineOptions(currentLogger())
	opts.OnLoadFailed = onFailed
	e, err := subtitle.NewEngine(opts)
	if err != nil {
		return nil, err
	}
	if f.codec != "" {
		if err := e.ChangeFallbackCodec(f.codec); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// loadDocument loads path non-interactively: a frame-indexed file without an
// embedded rate needs --fps.
func loadDocument(ctx context.Context, e *subtitle.Engine, path string, f sessionFlags) (subtitle.LoadResult, error) {
	res, err := e.Load(ctx, path)
	if err != nil {
		return res, err
	}
	if res.Status != subtitle.LoadStatusNeedsFPS {
		return res, nil
	}
	if f.fps == "" {
		e.CancelLoad()
		return res, fmt.Errorf("%s is frame-indexed and has no embedded frame rate: pass --fps", path)
	}
	fps, err := subtitle.ParseFrameRate(f.fps)
	if err != nil {
		e.CancelLoad()
		return res, err
	}
	return e.SupplyFPS(fps)
}
