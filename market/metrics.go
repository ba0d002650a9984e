package market

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krazyTry/igain-go/decimal_math"
	"github.com/krazyTry/igain-go/shared"
)

type metrics struct {
	operations  *prometheus.CounterVec
	poolA       prometheus.Gauge
	poolB       prometheus.Gauge
	totalSupply prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer, market string) (*metrics, error) {
	labels := prometheus.Labels{"market": market}
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "igain",
			Name:        "operations_total",
			Help:        "number of market operations by result",
			ConstLabels: labels,
		}, []string{"op", "result"}),
		poolA: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "igain",
			Name:        "pool_a",
			Help:        "A reserve in whole units",
			ConstLabels: labels,
		}),
		poolB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "igain",
			Name:        "pool_b",
			Help:        "B reserve in whole units",
			ConstLabels: labels,
		}),
		totalSupply: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "igain",
			Name:        "lp_supply",
			Help:        "outstanding LP shares in whole units",
			ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.poolA, m.poolB, m.totalSupply} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Market) observe(op shared.Operation, err error) {
	if m.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.metrics.operations.WithLabelValues(string(op), result).Inc()
	m.metrics.poolA.Set(decimal_math.FromFixedFloat(m.poolA))
	m.metrics.poolB.Set(decimal_math.FromFixedFloat(m.poolB))
	m.metrics.totalSupply.Set(decimal_math.FromFixedFloat(m.totalSupply))
}
