package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"telemachus-dash/internal/feed"
	"telemachus-dash/internal/logging"
	"telemachus-dash/internal/sink"
)

var (
	replaySpeed float64
	replayJSON  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Replay a raw-frame capture through the dashboard",
	Long:  "replay feeds frames recorded with watch --record back through the decoder, reconciler and status machine and prints every update.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		p, err := newPipeline(cfg, &feed.Replay{Speed: replaySpeed}, nil, log)
		if err != nil {
			return err
		}
		defer p.audio.StopAll()
		p.opts.URL = args[0]
		s, err := p.session(sink.NewWriter(os.Stdout, lineFormat(true, replayJSON)))
		if err != nil {
			return err
		}
		return s.Run(ctx)
	},
}

func init() {
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 replays without delay)")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Print JSON lines instead of text")
}
