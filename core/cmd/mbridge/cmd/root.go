package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/mediabridge/common/config"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/common/output"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mbridge",
	Short: "Analytics to media-analytics event bridge",
	Long: `mbridge translates vendor-neutral analytics events (track, screen,
identify) into calls against a media-analytics backend: commerce actions
with product strings, screen states, and heartbeat video sessions.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		output.Error(os.Stderr, "%v", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $MEDIABRIDGE_CONFIG_DIR/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func initConfig() {
	output.NoColor = noColor

	path := cfgFile
	if path == "" {
		path = config.Path()
	}

	var err error
	cfg, err = config.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

// newLogger builds the process logger from the loaded configuration.
func newLogger() *logging.Logger {
	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)
	return logger
}
