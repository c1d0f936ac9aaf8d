package service

import (
	"context"
	"encoding/json"

	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/repository"

	"gorm.io/gorm"
)

// NotificationSink is the write side of the notification store. Services
// that emit notifications depend on this instead of the full service so
// tests can observe emissions. Flush delivers any real-time events held back
// while a transaction was open; callers invoke it after a successful commit.
type NotificationSink interface {
	WithTx(tx *gorm.DB) NotificationSink
	Emit(ctx context.Context, in EmitNotificationInput) (*models.Notification, error)
	Flush(ctx context.Context)
}

// NotificationService manages the append-only notification log.
type NotificationService struct {
	repo   repository.NotificationRepository
	events Publisher
}

// EmitNotificationInput describes one notification to append.
type EmitNotificationInput struct {
	RecipientID uint
	ActorID     uint
	Type        models.NotificationType
	PostID      *uint
	CommentID   *uint
}

func NewNotificationService(repo repository.NotificationRepository, events Publisher) *NotificationService {
	return &NotificationService{repo: repo, events: events}
}

// WithTx returns a sink whose writes run on tx and whose real-time publishes
// are held back until Flush. Publishing from inside the transaction would
// announce a notification that a rollback then discards.
func (s *NotificationService) WithTx(tx *gorm.DB) NotificationSink {
	return &txNotificationSink{
		svc: &NotificationService{repo: s.repo.WithTx(tx), events: s.events},
	}
}

// Emit appends a notification and publishes the real-time event immediately.
// Self-directed events are dropped: users never get notified about their own
// actions. No dedup, repeated actions append repeatedly.
func (s *NotificationService) Emit(ctx context.Context, in EmitNotificationInput) (*models.Notification, error) {
	notification, err := s.store(ctx, in)
	if err != nil || notification == nil {
		return notification, err
	}
	s.publish(ctx, notification)
	return notification, nil
}

// Flush is a no-op on the base service; Emit outside a transaction has
// already published.
func (s *NotificationService) Flush(context.Context) {}

// store validates and appends the notification without publishing.
func (s *NotificationService) store(ctx context.Context, in EmitNotificationInput) (*models.Notification, error) {
	if in.RecipientID == in.ActorID {
		return nil, nil
	}
	if !in.Type.Valid() {
		return nil, models.NewValidationError("Unknown notification type")
	}

	notification := &models.Notification{
		RecipientID: in.RecipientID,
		ActorID:     in.ActorID,
		Type:        in.Type,
		PostID:      in.PostID,
		CommentID:   in.CommentID,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	middleware.NotificationsEmitted.WithLabelValues(string(in.Type)).Inc()
	return notification, nil
}

// publish sends the best-effort real-time event for a stored notification.
func (s *NotificationService) publish(ctx context.Context, notification *models.Notification) {
	if s.events == nil {
		return
	}
	if payload, err := json.Marshal(notification); err == nil {
		s.events.NotifyUser(ctx, notification.RecipientID, "notification:new", json.RawMessage(payload))
	}
}

// txNotificationSink wraps a transaction-bound service and buffers real-time
// publishes. Flush after a successful commit delivers them; abandoning the
// sink on rollback delivers nothing. One sink serves one transaction, so no
// locking is needed.
type txNotificationSink struct {
	svc     *NotificationService
	pending []*models.Notification
}

func (t *txNotificationSink) WithTx(tx *gorm.DB) NotificationSink {
	return t.svc.WithTx(tx)
}

func (t *txNotificationSink) Emit(ctx context.Context, in EmitNotificationInput) (*models.Notification, error) {
	notification, err := t.svc.store(ctx, in)
	if err != nil || notification == nil {
		return notification, err
	}
	t.pending = append(t.pending, notification)
	return notification, nil
}

func (t *txNotificationSink) Flush(ctx context.Context) {
	for _, notification := range t.pending {
		t.svc.publish(ctx, notification)
	}
	t.pending = nil
}

// ListForUser returns the recipient's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.GetByRecipient(ctx, recipientID, limit, offset)
}

// MarkRead marks one of the recipient's notifications as read. A
// notification belonging to someone else reads as not found.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID uint) error {
	updated, err := s.repo.MarkRead(ctx, notificationID, recipientID)
	if err != nil {
		return err
	}
	if !updated {
		return models.NewNotFoundError("Notification", notificationID)
	}
	return nil
}

// MarkAllRead marks every unread notification for the recipient as read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}

// UnreadCount returns the number of unread notifications for the recipient.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}
