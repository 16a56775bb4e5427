package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
)

// Metrics counts dispatch outcomes. A nil *Metrics records nothing.
type Metrics struct {
	dispatched *prometheus.CounterVec
	duration   prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrolake",
			Subsystem: "alert",
			Name:      "dispatch_total",
			Help:      "Number of alert dispatches by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydrolake",
			Subsystem: "alert",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching an alert, including the fallback.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register adds the collectors to r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.dispatched, m.duration} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Dispatched returns the counter for results with the given status.
func (m *Metrics) Dispatched(s alert.Status) prometheus.Counter {
	return m.dispatched.WithLabelValues(s.String())
}

func (m *Metrics) observe(r alert.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Dispatched(r.Status).Inc()
	m.duration.Observe(elapsed.Seconds())
}
