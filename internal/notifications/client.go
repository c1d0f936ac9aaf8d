package notifications

import (
	"log"
	"time"

	"ripple/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must fire before the read deadline
	maxMessageSize = 16384

	sendBufferSize = 256
)

// dropNotice is pushed to a client whose buffer overflowed, so the frontend
// knows there is a gap and can re-fetch instead of showing stale state.
var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// WSHub is the subset of hub behavior a client needs: a way to detach itself
// and a label for metrics.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client owns one websocket connection. The hub never writes to the
// connection directly; it goes through Send, drained by WritePump.
type Client struct {
	Hub    WSHub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint

	// IncomingHandler, when set, receives every message the peer sends.
	IncomingHandler func(*Client, []byte)
}

func NewClient(hub WSHub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// ReadPump consumes messages from the peer until the connection dies, keeping
// the read deadline fresh via pong handling. It must run on the connection's
// goroutine since gofiber websocket reads are not concurrency-safe.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ReadPump Error (User %d): %v", c.UserID, err)
			}
			return
		}
		if c.IncomingHandler != nil {
			c.IncomingHandler(c, message)
		}
	}
}

// WritePump drains Send onto the wire and keeps the connection alive with
// periodic pings. It exits when Send closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking. A slow consumer loses messages
// rather than stalling the hub; drops are counted and the client gets a
// best-effort gap notice.
func (c *Client) TrySend(message []byte) {
	defer func() {
		// Send may already be closed if the client unregistered mid-broadcast.
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
		return
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
	log.Printf("Client %d (%s): Buffer full, dropped message", c.UserID, c.Hub.Name())

	select {
	case c.Send <- dropNotice:
	default:
	}
}
