package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
)

// Recorder tracks registry round trips. A nil Recorder is a no-op.
type Recorder struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	fallback prometheus.Counter
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leaderboard",
			Subsystem: "registry",
			Name:      "requests_total",
			Help:      "Registry calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leaderboard",
			Subsystem: "registry",
			Name:      "request_duration_seconds",
			Help:      "Registry call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}, []string{"op"}),
		fallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leaderboard",
			Subsystem: "cache",
			Name:      "fallbacks_total",
			Help:      "Score reads served from the local cache after a registry failure.",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.requests, r.latency, r.fallback)
	}
	return r
}

func (r *Recorder) RecordRequest(op, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(op, outcome).Inc()
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (r *Recorder) RecordCacheFallback() {
	if r == nil {
		return
	}
	r.fallback.Inc()
}

func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

var Module = fx.Options(
	fx.Provide(NewRegistry),
	fx.Provide(func(reg *prometheus.Registry) *Recorder { return NewRecorder(reg) }),
)
