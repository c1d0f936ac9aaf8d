package server

import (
	"context"
	"encoding/json"
	"log"
)

// Event type constants prevent typos in event names.
const (
	EventNotificationNew = "notification:new"
	EventChatMessage     = "chat:message"
)

// NotifyUser satisfies service.Publisher. Delivery is best-effort: local
// connections get the event through the hub, other instances through Redis.
// Failures are logged and never surfaced to the triggering operation.
func (s *Server) NotifyUser(ctx context.Context, userID uint, eventType string, payload any) {
	event := map[string]any{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	message := string(eventJSON)
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(ctx, userID, message); err != nil {
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
		}
	}
}
