package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConnectionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_connections_open",
			Help: "WebSocket connections currently open",
		},
	)
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_sessions_active",
			Help: "Sessions currently registered",
		},
	)
	OpsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_ops_processed_total",
			Help: "Client operations processed, by op and result",
		},
		[]string{"op", "result"},
	)
	EventsBroadcast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_events_broadcast_total",
			Help: "Events fanned out to session rosters, by event name",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(ConnectionsOpen, SessionsActive, OpsProcessed, EventsBroadcast)
}
