package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User represents a registered account. Passwords are stored as bcrypt
// hashes and never serialized.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Bio       string         `gorm:"type:text" json:"bio,omitempty"`
	Avatar    string         `json:"avatar,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:UserID" json:"posts,omitempty"`

	// Computed at query time, not persisted.
	FollowersCount int `gorm:"-" json:"followers_count"`
	FollowingCount int `gorm:"-" json:"following_count"`
}

// SetPassword hashes the plaintext password with bcrypt and stores the hash.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// PublicProfile is the representation safe to return for other users.
type PublicProfile struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio,omitempty"`
	Avatar         string    `json:"avatar,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
}

// Public converts a User into its public representation.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		Bio:            u.Bio,
		Avatar:         u.Avatar,
		CreatedAt:      u.CreatedAt,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
	}
}
