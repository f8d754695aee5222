package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"telemachus-dash/internal/admin"
	"telemachus-dash/internal/dashboard"
	"telemachus-dash/internal/feed"
	"telemachus-dash/internal/logging"
	"telemachus-dash/internal/sink"
)

var (
	serveAddr      string
	serveOpen      bool
	serveReconnect time.Duration
	serveURL       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard as a local web page",
	Long:  "serve connects to the data link and serves the dashboard, its JSON state and Prometheus metrics over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveURL != "" {
			cfg.Feed.URL = serveURL
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		log, closeLog, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		p, err := newPipeline(cfg, feed.NewWebSocket(), nil, log)
		if err != nil {
			return err
		}
		defer p.audio.StopAll()
		store := sink.NewStore(p.initial(), p.audio.Muted)
		s, err := p.session(store)
		if err != nil {
			return err
		}

		ln, err := net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return err
		}
		srv := admin.NewServer(store, p.audio, p.registry, log)
		srv.Subscriber = s
		served := make(chan error, 1)
		go func() { served <- srv.Serve(ctx, ln) }()

		if serveOpen {
			url := "http://" + ln.Addr().String() + "/"
			if err := admin.OpenBrowser(url); err != nil {
				log.Warn("cannot open browser", "url", url, "err", err)
			}
		}

		runErr := dashboard.KeepRunning(ctx, s, serveReconnect)
		stop()
		if err := <-served; err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides the config)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the dashboard in the system browser")
	serveCmd.Flags().DurationVar(&serveReconnect, "reconnect", 5*time.Second, "Delay before reconnecting after the link drops (0 disables)")
	serveCmd.Flags().StringVar(&serveURL, "url", "", "Data link URL (overrides the config)")
}
