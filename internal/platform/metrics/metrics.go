package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ConnectionsActive  *prometheus.GaugeVec
	EventsPublished    *prometheus.CounterVec
	EventsDropped      prometheus.Counter
	MessagesPersisted  *prometheus.CounterVec
	HandshakesRejected *prometheus.CounterVec
	UsersRegistered    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ConnectionsActive: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circles_ws_connections_active",
			Help: "Currently open websocket connections by family",
		}, []string{"family"}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "circles_events_published_total",
			Help: "Events published to broadcast groups by event type",
		}, []string{"type"}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "circles_events_dropped_total",
			Help: "Events not delivered because a subscriber's send buffer overflowed",
		}),
		MessagesPersisted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "circles_messages_persisted_total",
			Help: "Chat and direct messages durably recorded",
		}, []string{"kind"}),
		HandshakesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "circles_ws_handshakes_rejected_total",
			Help: "Websocket handshakes rejected before registration",
		}, []string{"reason"}),
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "circles_users_registered_total",
			Help: "Total number of users created in the system",
		}),
	}
}
