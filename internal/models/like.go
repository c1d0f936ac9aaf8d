package models

import "time"

// Like marks that a user liked a post once. The composite unique index
// backs the at-most-one invariant under concurrent toggles.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_user_post;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeState is the outcome of a like toggle.
type LikeState string

const (
	StateLiked   LikeState = "liked"
	StateUnliked LikeState = "unliked"
)
