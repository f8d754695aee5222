package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"telemachus-dash/internal/audio"
	"telemachus-dash/internal/config"
	"telemachus-dash/internal/dashboard"
	"telemachus-dash/internal/feed"
	"telemachus-dash/internal/sink"
	"telemachus-dash/internal/view"
)

const bellInterval = 2 * time.Second

// pipeline is a configured session waiting for its sinks.
type pipeline struct {
	opts     dashboard.Options
	audio    *audio.Registry
	registry *prometheus.Registry
}

// newPipeline wires cfg to the transport tr. Alerts play through the
// configured player command; without one they ring the terminal bell on
// bell, or stay silent when bell is nil.
func newPipeline(cfg *config.Config, tr feed.Transport, bell io.Writer, log *slog.Logger) (*pipeline, error) {
	opts, err := dashboard.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	reg, err := newAudio(cfg.Audio, bell, log)
	if err != nil {
		return nil, err
	}
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	opts.Transport = tr
	opts.Metrics = dashboard.NewMetrics(promReg)
	opts.Log = log
	return &pipeline{opts: opts, audio: reg, registry: promReg}, nil
}

func newAudio(cfg config.Audio, bell io.Writer, log *slog.Logger) (*audio.Registry, error) {
	var player audio.Player
	switch {
	case cfg.Player != "":
		p, err := audio.NewExecPlayer(cfg.Player)
		if err != nil {
			return nil, err
		}
		player = p
	case bell != nil:
		player = audio.NewBellPlayer(bell, bellInterval)
	}
	return audio.NewRegistry(cfg.Sounds, player, cfg.Muted, log), nil
}

// initial is the view-state shown before the first frame.
func (p *pipeline) initial() view.State {
	return view.NewState(p.opts.Resources)
}

// tap adds a raw-frame observer such as a recorder.
func (p *pipeline) tap(o feed.Observer) {
	p.opts.Taps = append(p.opts.Taps, o)
}

// session builds the session presenting to sinks. The audio registry is
// always driven first.
func (p *pipeline) session(sinks ...sink.Sink) (*dashboard.Session, error) {
	p.opts.Sink = append(sink.Multi{sink.Audio{Registry: p.audio}}, sinks...)
	return dashboard.New(p.opts)
}
