package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	ActiveConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "signaling_active_connections",
		Help: "Live signaling connections by role",
	}, []string{"role"})
)

// Counters
var (
	ConnectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaling_connections_total",
		Help: "Connection attempts by outcome",
	}, []string{"outcome"})
	RelayedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaling_relayed_frames_total",
		Help: "Frames relayed to the counterpart role by type",
	}, []string{"type"})
	DroppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaling_dropped_frames_total",
		Help: "Relayable frames dropped by reason",
	}, []string{"reason"})
	ProtocolViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaling_protocol_violations_total",
		Help: "Frames rejected by the protocol engine",
	})
)
