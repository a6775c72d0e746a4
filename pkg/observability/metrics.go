package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus instruments the Registry drives. All fields
// are optional from the Registry's point of view; a nil *Metrics disables
// instrumentation entirely.
type Metrics struct {
	// Runs counts finished bounded calls by result: completed, failed or
	// timed_out.
	Runs *prometheus.CounterVec
	// InFlight tracks currently running bounded calls.
	InFlight prometheus.Gauge
	// Leaked tracks workers that outlived their grace period and are still
	// running after the invoker moved on.
	Leaked prometheus.Gauge
	// Duration observes wall time of bounded calls, in seconds.
	Duration prometheus.Histogram
}

// NewMetrics builds the instrument set and registers it on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leash",
			Name:      "runs_total",
			Help:      "Bounded calls finished, by result.",
		}, []string{"result"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leash",
			Name:      "in_flight_workers",
			Help:      "Bounded calls currently running.",
		}),
		Leaked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leash",
			Name:      "leaked_workers",
			Help:      "Workers still running after their caller gave up on them.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leash",
			Name:      "run_duration_seconds",
			Help:      "Wall time of bounded calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	reg.MustRegister(m.Runs, m.InFlight, m.Leaked, m.Duration)
	return m
}

// Result labels for Metrics.Runs.
const (
	ResultCompleted = "completed"
	ResultFailed    = "failed"
	ResultTimedOut  = "timed_out"
)
