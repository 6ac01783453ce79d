package cli

import (
	"github.com/mgpai22/subsail/internal/config"
	"github.com/mgpai22/subsail/internal/logging"
	"github.com/spf13/cobra"
)

// commands annotated with skipConfig run without loading the settings file
const skipConfig = "skip-config"

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	settings   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "subsail",
	Short: "Subtitle viewer that keeps text in sync with your player",
	Long: `Subsail loads .srt and .sub subtitle files, detects their text encoding,
and shows the right line at the right time while you nudge timing to match
whatever is playing.

Settings are read from ~/.config/subsail/config.toml when present
(create one with 'subsail config init').`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}
		cfg, resolved, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.Debugw("configuration loaded", "path", resolved, "exists", exists)
		settings = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file path (default ~/.config/subsail/config.toml)")
}
