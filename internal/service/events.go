// Package service contains the business logic for the application.
package service

import (
	"context"

	"ripple/internal/models"
)

// Publisher pushes best-effort real-time events to a user's websocket
// connections. Implementations must never fail the calling operation;
// delivery is advisory.
type Publisher interface {
	NotifyUser(ctx context.Context, userID uint, eventType string, payload any)
}

// requireOwner is the single ownership gate for author-only mutations. It
// runs before any write so a denied caller can never partially mutate.
func requireOwner(resourceOwnerID, actorID uint, action string) error {
	if resourceOwnerID != actorID {
		return models.NewPermissionDeniedError("You can only " + action + " your own content")
	}
	return nil
}
