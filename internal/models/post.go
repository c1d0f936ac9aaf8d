package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxPostContentLength bounds post bodies.
const MaxPostContentLength = 500

// Post is authored content. Media fields hold opaque storage references;
// the core never reads or writes media bytes.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Content  string `gorm:"not null" json:"content"`
	Image    string `json:"image,omitempty"`
	Video    string `json:"video,omitempty"`
	Location string `json:"location,omitempty"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	User     *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Computed at query time, not persisted.
	LikesCount    int  `gorm:"-" json:"likes_count"`
	CommentsCount int  `gorm:"-" json:"comments_count"`
	Liked         bool `gorm:"-" json:"liked"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
