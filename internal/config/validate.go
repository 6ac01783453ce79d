package config

import (
	"errors"
	"fmt"

	"github.com/mgpai22/subsail/internal/subtitle"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if _, _, err := subtitle.LookupCodec(c.Subtitles.FallbackCodec); err != nil {
		return fmt.Errorf("subtitles.fallback_codec: unknown codec %q", c.Subtitles.FallbackCodec)
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if _, err := subtitle.ParseAdjustMode(c.Playback.Mode); err != nil {
		return fmt.Errorf("playback.mode: %w", err)
	}
	if c.Playback.StepMS <= 0 {
		return errors.New("playback.step_ms must be positive")
	}
	if c.Playback.TickMS <= 0 {
		return errors.New("playback.tick_ms must be positive")
	}
	if c.Playback.FPSWaitSeconds <= 0 {
		return errors.New("playback.fps_wait_seconds must be positive")
	}
	return nil
}
