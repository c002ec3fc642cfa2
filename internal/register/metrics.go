package register

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeNoop     = "noop"
)

type Metrics struct {
	Actions         *prometheus.CounterVec
	OrderTotal      prometheus.Histogram
	PersistFailures prometheus.Counter
}

// NewMetrics registers the register's collectors. A nil registerer gives
// working collectors that are never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "teacounter",
				Name:      "actions_total",
				Help:      "User gestures handled, by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		OrderTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "teacounter",
			Name:      "order_total",
			Help:      "Order totals shown to the customer",
			Buckets:   []float64{10, 25, 50, 100, 200, 500, 1000, 2500},
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teacounter",
			Name:      "persist_failures_total",
			Help:      "Catalog saves that failed",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Actions, m.OrderTotal, m.PersistFailures)
	}
	return m
}

func (m *Metrics) action(name, outcome string) {
	m.Actions.WithLabelValues(name, outcome).Inc()
}
