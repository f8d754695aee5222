package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"

	"telemachus-dash/internal/status"
)

// Metrics are the session's Prometheus instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Frames       prometheus.Counter
	DecodeErrors prometheus.Counter
	Transitions  *prometheus.CounterVec
	Status       prometheus.Gauge
	Open         prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telemachus",
			Name:      "frames_total",
			Help:      "Telemetry frames decoded and reconciled.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telemachus",
			Name:      "decode_errors_total",
			Help:      "Malformed frames dropped by the decoder.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telemachus",
			Name:      "status_transitions_total",
			Help:      "Game status transitions by target state.",
		}, []string{"state"}),
		Status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "telemachus",
			Name:      "game_status",
			Help:      "Current game status (0 running, 1 paused, 2 power outage, 3 link offline, 4 no telemetry, 5 connection lost).",
		}),
		Open: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "telemachus",
			Name:      "feed_open",
			Help:      "1 while the feed connection is open.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Frames, m.DecodeErrors, m.Transitions, m.Status, m.Open)
	}
	return m
}

func (m *Metrics) frame() {
	if m != nil {
		m.Frames.Inc()
	}
}

func (m *Metrics) decodeError() {
	if m != nil {
		m.DecodeErrors.Inc()
	}
}

func (m *Metrics) transition(to status.GameStatus) {
	if m != nil {
		m.Transitions.WithLabelValues(to.String()).Inc()
		m.Status.Set(float64(to))
	}
}

func (m *Metrics) open(open bool) {
	if m == nil {
		return
	}
	if open {
		m.Open.Set(1)
	} else {
		m.Open.Set(0)
	}
}
