package mongokit

import (
	"github.com/prometheus/client_golang/prometheus"

	"go.mongodb.org/mongo-driver/v2/event"
)

const metricsNamespace = "mongokit"

// PoolStats exposes driver connection pool activity as Prometheus collectors.
// Attach it to a connection with WithPoolStats; the driver then feeds the
// collectors through a pool event monitor.
//
// Create one PoolStats per registry and share it across connections; a second
// registration on the same registry fails with the registry's duplicate
// collector error.
type PoolStats struct {
	open           prometheus.Gauge
	inUse          prometheus.Gauge
	created        prometheus.Counter
	closed         prometheus.Counter
	checkoutFailed prometheus.Counter
	cleared        prometheus.Counter
}

// NewPoolStats builds the pool collectors and registers them with reg.
func NewPoolStats(reg prometheus.Registerer) (*PoolStats, error) {
	s := &PoolStats{
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pool_open_connections",
			Help:      "Connections currently established by the driver pool.",
		}),
		inUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pool_in_use_connections",
			Help:      "Connections currently checked out of the driver pool.",
		}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pool_connections_created_total",
			Help:      "Total connections the driver pool has established.",
		}),
		closed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pool_connections_closed_total",
			Help:      "Total connections the driver pool has closed.",
		}),
		checkoutFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pool_checkout_failures_total",
			Help:      "Total failed attempts to check a connection out of the pool.",
		}),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pool_cleared_total",
			Help:      "Total times the driver cleared the pool after a server error.",
		}),
	}

	for _, c := range []prometheus.Collector{s.open, s.inUse, s.created, s.closed, s.checkoutFailed, s.cleared} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Monitor returns the driver pool monitor feeding these collectors.
func (s *PoolStats) Monitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				s.created.Inc()
				s.open.Inc()
			case event.ConnectionClosed:
				s.closed.Inc()
				s.open.Dec()
			case event.ConnectionCheckedOut:
				s.inUse.Inc()
			case event.ConnectionCheckedIn:
				s.inUse.Dec()
			case event.ConnectionCheckOutFailed:
				s.checkoutFailed.Inc()
			case event.ConnectionPoolCleared:
				s.cleared.Inc()
			}
		},
	}
}
