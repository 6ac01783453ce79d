package config

const (
	defaultConfigPath         = "~/.config/subsail/config.toml"
	defaultFallbackCodec      = "Windows-1252"
	defaultMode               = "offset"
	defaultStepMS             = 500
	defaultSliderEnabled      = false
	defaultAutoResume         = true
	defaultPauseWhenMinimized = true
	defaultTickMS             = 100
	defaultFPSWaitSeconds     = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Subtitles: Subtitles{
			FallbackCodec: defaultFallbackCodec,
		},
		Playback: Playback{
			Mode:               defaultMode,
			StepMS:             defaultStepMS,
			SliderEnabled:      defaultSliderEnabled,
			AutoResume:         defaultAutoResume,
			PauseWhenMinimized: defaultPauseWhenMinimized,
			TickMS:             defaultTickMS,
			FPSWaitSeconds:     defaultFPSWaitSeconds,
		},
	}
}
