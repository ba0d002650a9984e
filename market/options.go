package market

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Clock supplies the timestamp read once at the start of every call.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type Option func(*Market)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Market) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithClock(clock Clock) Option {
	return func(m *Market) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithSettlement replaces the default LeveragedYieldSettlement.
func WithSettlement(s Settlement) Option {
	return func(m *Market) {
		if s != nil {
			m.settlement = s
		}
	}
}

// WithMetrics registers the market collectors with reg. Registration errors
// are logged and metrics are disabled.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(m *Market) {
		m.registerer = reg
	}
}
