package versatility

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by an Engine. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	DetectorRuns       prometheus.Counter
	DetectorFailures   prometheus.Counter
	EstimationDuration *prometheus.HistogramVec
	ParametersSwept    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		DetectorRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "versatility",
			Name:      "detector_runs_total",
			Help:      "Community detection calls made while estimating consensus matrices.",
		}),
		DetectorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "versatility",
			Name:      "detector_failures_total",
			Help:      "Community detection calls that returned an error or a malformed partition.",
		}),
		EstimationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "versatility",
			Name:      "consensus_duration_seconds",
			Help:      "Time spent estimating one consensus matrix.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"mode"}),
		ParametersSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "versatility",
			Name:      "parameters_swept_total",
			Help:      "Resolution parameters processed by sweeps.",
		}),
	}

	for _, c := range []prometheus.Collector{m.DetectorRuns, m.DetectorFailures, m.EstimationDuration, m.ParametersSwept} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRun(err error) {
	if m == nil {
		return
	}
	m.DetectorRuns.Inc()
	if err != nil {
		m.DetectorFailures.Inc()
	}
}

func (m *Metrics) observeEstimation(mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EstimationDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *Metrics) observeParameter() {
	if m == nil {
		return
	}
	m.ParametersSwept.Inc()
}
