package driver

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts tick outcomes.
type Metrics struct {
	Samples   prometheus.Counter
	Discarded prometheus.Counter
	Failures  prometheus.Counter
	Length    prometheus.Gauge
}

// NewMetrics creates the driver's metrics and registers them with reg, if
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sensorplot",
			Name:      "samples_total",
			Help:      "Samples parsed and appended to the window.",
		}),
		Discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sensorplot",
			Name:      "lines_discarded_total",
			Help:      "Lines dropped because they were not valid integers.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sensorplot",
			Name:      "tick_failures_total",
			Help:      "Ticks that hit an unexpected error.",
		}),
		Length: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sensorplot",
			Name:      "window_length",
			Help:      "Samples currently in the window.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Samples, m.Discarded, m.Failures, m.Length)
	}
	return m
}

func (m *Metrics) observe(out Outcome, length int) {
	switch out.Kind {
	case Appended:
		m.Samples.Inc()
	case Discarded:
		m.Discarded.Inc()
	case Failed:
		m.Failures.Inc()
	}
	m.Length.Set(float64(length))
}
