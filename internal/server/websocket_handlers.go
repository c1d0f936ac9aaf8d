package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"ripple/internal/middleware"
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	wsTicketTTL = 30 * time.Second

	// How long a consumed ticket stays valid in the in-process cache. The
	// Fiber websocket upgrade re-runs middleware, so the second pass must
	// still resolve the ticket after GETDEL removed it from Redis.
	consumedTicketGrace = 10 * time.Second
)

type consumedTicketEntry struct {
	userID    uint
	consumeAt time.Time
}

// IssueWSTicket handles POST /api/ws/ticket. It mints a short-lived
// single-use ticket the browser passes as a query parameter on the WebSocket
// upgrade, since custom headers are not available there.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("ticket store unavailable")))
	}

	userID := currentUserID(c)
	ticket := uuid.New().String()
	key := fmt.Sprintf("ws_ticket:%s", ticket)

	if err := s.redis.Set(c.Context(), key,
		strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WSAuthRequired authenticates WebSocket upgrade requests. A single-use
// ticket is preferred; a JWT in the query string or Authorization header is
// accepted as a fallback.
func (s *Server) WSAuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ticket := c.Query("ticket")
		if ticket != "" {
			userID, ok := s.resolveWSTicket(c.Context(), ticket)
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			c.Locals("userID", userID)
			c.Locals("wsTicket", ticket)
			return c.Next()
		}

		return middleware.WebSocketAuthRequired(c)
	}
}

// resolveWSTicket atomically consumes the ticket from Redis and caches it
// in-process for the remainder of the upgrade handshake.
func (s *Server) resolveWSTicket(ctx context.Context, ticket string) (uint, bool) {
	s.consumedTicketsMu.Lock()
	if entry, ok := s.consumedTickets[ticket]; ok {
		s.consumedTicketsMu.Unlock()
		if time.Since(entry.consumeAt) < consumedTicketGrace {
			return entry.userID, true
		}
		s.consumeWSTicket(ctx, ticket)
		return 0, false
	}
	s.consumedTicketsMu.Unlock()

	if s.redis == nil {
		return 0, false
	}

	key := fmt.Sprintf("ws_ticket:%s", ticket)
	userIDStr, err := s.redis.GetDel(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		return 0, false
	}

	s.consumedTicketsMu.Lock()
	s.consumedTickets[ticket] = consumedTicketEntry{
		userID:    uint(userID),
		consumeAt: time.Now(),
	}
	s.consumedTicketsMu.Unlock()

	return uint(userID), true
}

// consumeWSTicket drops a ticket from the in-process cache once the
// connection is established (or the ticket expired).
func (s *Server) consumeWSTicket(_ context.Context, ticket any) {
	str, ok := ticket.(string)
	if !ok || str == "" {
		return
	}
	s.consumedTicketsMu.Lock()
	delete(s.consumedTickets, str)
	s.consumedTicketsMu.Unlock()
}

// WebsocketHandler handles the notification WebSocket. The socket is
// server-push only: notification and chat events fan out through the hub.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID, ok := userIDVal.(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		// The handshake is complete; the single-use ticket is spent.
		s.consumeWSTicket(context.Background(), conn.Locals("wsTicket"))

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		welcome := map[string]any{
			"type":    "connected",
			"payload": map[string]any{"user_id": userID},
		}
		if welcomeJSON, err := json.Marshal(welcome); err == nil {
			client.TrySend(welcomeJSON)
		}

		// Write pump in a goroutine; read pump blocks until disconnect and
		// unregisters the client.
		go client.WritePump()
		client.ReadPump()
	})
}
