package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "eventserver"

// Drop reasons used as the reason label of packets_dropped_total.
const (
	dropMalformed   = "malformed"
	dropCapacity    = "capacity"
	dropFragment    = "fragment"
	dropPayload     = "payload"
	dropUnsupported = "unsupported"
	dropExpired     = "expired"
)

// Removal reasons used as the reason label of clients_removed_total.
const (
	removeBye     = "bye"
	removeTimeout = "timeout"
	removeStop    = "stop"
)

// metrics holds the Prometheus collectors of one Server.
type metrics struct {
	packetsReceived *prometheus.CounterVec
	packetsDropped  *prometheus.CounterVec
	bytesReceived   prometheus.Counter
	clients         prometheus.Gauge
	clientsAdmitted prometheus.Counter
	clientsRemoved  *prometheus.CounterVec
	actionsQueued   *prometheus.CounterVec
	buttonRepeats   prometheus.Counter
	loopPanics      prometheus.Counter
}

// newMetrics registers the server collectors with reg.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "packets_received_total",
			Help:      "Total number of valid packets received by type",
		}, []string{"type"}),

		packetsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "packets_dropped_total",
			Help:      "Total number of datagrams or packets discarded by reason",
		}, []string{"reason"}),

		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "received_bytes_total",
			Help:      "Total number of datagram bytes received",
		}),

		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "clients",
			Help:      "Number of connected clients",
		}),

		clientsAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "clients_admitted_total",
			Help:      "Total number of client sessions created",
		}),

		clientsRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "clients_removed_total",
			Help:      "Total number of client sessions removed by reason",
		}, []string{"reason"}),

		actionsQueued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "actions_queued_total",
			Help:      "Total number of actions queued by kind",
		}, []string{"kind"}),

		buttonRepeats: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "button_repeats_total",
			Help:      "Total number of synthetic key repeats emitted",
		}),

		loopPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "loop_panics_total",
			Help:      "Total number of panics recovered in the receive loop",
		}),
	}
}

func (m *metrics) dropped(reason string) {
	m.packetsDropped.WithLabelValues(reason).Inc()
}
