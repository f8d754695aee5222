package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"telemachus-dash/internal/dashboard"
	"telemachus-dash/internal/feed"
	"telemachus-dash/internal/logging"
	"telemachus-dash/internal/sink"
)

var (
	watchPlain     bool
	watchJSON      bool
	watchRecord    string
	watchReconnect time.Duration
	watchURL       string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the dashboard in the terminal",
	Long:  "watch connects to the data link and renders the dashboard as a full-screen terminal UI, or as log lines with --plain or --json.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if watchURL != "" {
			cfg.Feed.URL = watchURL
		}
		format := lineFormat(watchPlain, watchJSON)
		log, closeLog, err := newLogger(cfg, format == "")
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		p, err := newPipeline(cfg, feed.NewWebSocket(), os.Stderr, log)
		if err != nil {
			return err
		}
		defer p.audio.StopAll()

		if watchRecord != "" {
			f, err := os.Create(watchRecord)
			if err != nil {
				return fmt.Errorf("create capture: %w", err)
			}
			defer f.Close()
			p.tap(feed.NewRecorder(f, log))
		}

		if format != "" {
			s, err := p.session(sink.NewWriter(os.Stdout, format))
			if err != nil {
				return err
			}
			return dashboard.KeepRunning(ctx, s, watchReconnect)
		}

		tui := sink.NewTUI("KSP Telemetry", p.initial(), p.audio)
		defer tui.Close()
		s, err := p.session(tui)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-tui.Done():
				cancel()
			case <-ctx.Done():
			}
		}()
		return dashboard.KeepRunning(ctx, s, watchReconnect)
	},
}

// lineFormat picks the line sink format; empty selects the terminal UI.
func lineFormat(plain, json bool) string {
	switch {
	case json:
		return "json"
	case plain:
		return "text"
	}
	return ""
}

func init() {
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "Print one text line per update instead of the terminal UI")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Print one JSON object per update instead of the terminal UI")
	watchCmd.Flags().StringVar(&watchRecord, "record", "", "Capture raw frames to this JSONL file for replay")
	watchCmd.Flags().DurationVar(&watchReconnect, "reconnect", 5*time.Second, "Delay before reconnecting after the link drops (0 disables)")
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Data link URL (overrides the config)")
}
