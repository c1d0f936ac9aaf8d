package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MaxMessageContentLength bounds message bodies.
const MaxMessageContentLength = 2000

// Conversation is a two-party message thread. PairKey is the normalized
// "minID:maxID" of the participants; its unique index guarantees a single
// conversation per pair even under concurrent creation.
type Conversation struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	PairKey      string         `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Participants []User         `gorm:"many2many:conversation_participants;" json:"participants,omitempty"`
	Messages     []Message      `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`

	// Computed at query time, not persisted.
	UnreadCount int      `gorm:"-" json:"unread_count"`
	LastMessage *Message `gorm:"-" json:"last_message,omitempty"`
}

// PairKeyFor normalizes two user IDs into the canonical conversation key.
func PairKeyFor(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Message is one entry in a conversation, ordered by CreatedAt. IsRead
// means the non-sender participant has read it.
type Message struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ConversationID uint           `gorm:"not null;index" json:"conversation_id"`
	Conversation   *Conversation  `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"conversation,omitempty"`
	SenderID       uint           `gorm:"not null;index" json:"sender_id"`
	Sender         *User          `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	IsRead         bool           `gorm:"default:false" json:"is_read"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
