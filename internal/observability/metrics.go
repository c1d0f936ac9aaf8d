package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebSocketBackpressureDrops counts messages dropped because a client's send
// buffer was full. Dropping beats blocking the hub.
var WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ripple_websocket_backpressure_drops_total",
	Help: "Total number of WebSocket messages dropped due to backpressure",
}, []string{"hub", "reason"})
