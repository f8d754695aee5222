package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"telemachus-dash/internal/config"
	"telemachus-dash/internal/logging"
)

var (
	configPath string
	schemaPath string
	logLevel   string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:          "telemachus-dash",
	Short:        "Kerbal Space Program telemetry dashboard",
	Long:         "telemachus-dash subscribes to a Telemachus data link and shows mission time, resources and game status in the terminal or a local web page.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to dashboard configuration YAML (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "Path to CUE schema file (embedded schema when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(grafanaCmd)
}

// loadConfig reads --config, or returns the defaults with environment
// overrides applied.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Parse(nil)
	}
	return config.Load(configPath, schemaPath)
}

// newLogger builds the process logger from the config and flags. Logs go to
// --log-file when set, otherwise to stderr, or nowhere when quiet.
func newLogger(cfg *config.Config, quiet bool) (*slog.Logger, func(), error) {
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	case quiet:
		w = io.Discard
	}
	log, err := logging.NewWith(w, level, cfg.Logging.Format)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	slog.SetDefault(log)
	return log, closeFn, nil
}
