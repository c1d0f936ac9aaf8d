package models

import "time"

// NotificationType enumerates the events that produce a notification.
type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationFollow, NotificationLike, NotificationComment:
		return true
	}
	return false
}

// Notification is an append-only record of an actor's action toward a
// recipient. Only IsRead is ever mutated after creation.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index" json:"recipient_id"`
	Recipient   *User            `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"recipient,omitempty"`
	ActorID     uint             `gorm:"not null" json:"actor_id"`
	Actor       *User            `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Type        NotificationType `gorm:"not null" json:"type"`
	PostID      *uint            `json:"post_id,omitempty"`
	CommentID   *uint            `json:"comment_id,omitempty"`
	IsRead      bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}
