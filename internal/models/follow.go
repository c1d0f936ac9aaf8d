package models

import "time"

// Follow is a directed edge in the social graph. The composite unique
// index makes concurrent duplicate follows a constraint violation rather
// than a duplicate row.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follower_following;index" json:"follower_id"`
	Follower    *User     `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"follower,omitempty"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follower_following;index" json:"following_id"`
	Following   *User     `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"following,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FollowState is the outcome of a follow toggle.
type FollowState string

const (
	StateFollowed   FollowState = "followed"
	StateUnfollowed FollowState = "unfollowed"
)
