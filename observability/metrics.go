package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records purchase lifecycle activity for the node.
type SettlementMetrics struct {
	Operations   *prometheus.CounterVec
	Settled      prometheus.Counter
	Cancelled    prometheus.Counter
	Minted       prometheus.Counter
	ValueSettled *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
}

var (
	settlementOnce sync.Once
	settlementReg  *SettlementMetrics
)

// Settlement returns the lazily-initialised settlement metrics registered
// against the default Prometheus registerer.
func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		settlementReg = &SettlementMetrics{
			Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "paymint",
				Subsystem: "node",
				Name:      "operations_total",
				Help:      "Total node operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			Settled: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "paymint",
				Subsystem: "escrow",
				Name:      "purchases_settled_total",
				Help:      "Total purchases settled successfully.",
			}),
			Cancelled: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "paymint",
				Subsystem: "escrow",
				Name:      "purchases_cancelled_total",
				Help:      "Total purchases cancelled and refunded.",
			}),
			Minted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "paymint",
				Subsystem: "accessmint",
				Name:      "credentials_minted_total",
				Help:      "Total access credentials minted.",
			}),
			ValueSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "paymint",
				Subsystem: "escrow",
				Name:      "value_settled_total",
				Help:      "Total settled value in smallest units segmented by payment unit.",
			}, []string{"unit"}),
			Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "paymint",
				Subsystem: "node",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for node operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
		}
		prometheus.MustRegister(
			settlementReg.Operations,
			settlementReg.Settled,
			settlementReg.Cancelled,
			settlementReg.Minted,
			settlementReg.ValueSettled,
			settlementReg.Latency,
		)
	})
	return settlementReg
}
