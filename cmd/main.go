// dd-voice listens to a live transcript and announces configured keywords
// when they are heard, even when the recognizer mangles them.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/StevieDC/dd-voice/internal/config"
	"github.com/StevieDC/dd-voice/pkg/log"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "dd-voice",
	Short:         "Fuzzy keyword spotting over a speech transcript",
	Long:          "Listens to a speech recognizer, spots keywords despite recognition errors and speaks an announcement.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(matchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the logger. Logs go to
// stderr so command output on stdout stays clean.
func loadConfig(opts ...config.Option) (*config.Config, error) {
	cfg, err := config.New(envFile, opts...)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log.SetLogger(log.NewWriterLogger(os.Stderr, log.ParseLevel(level)))
	return cfg, nil
}
