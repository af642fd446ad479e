// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a registered account. Secrets never serialize.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Username         string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email            string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FullName         string    `gorm:"size:100;not null" json:"fullName"`
	Avatar           string    `gorm:"size:500;not null" json:"avatar"`
	AvatarKey        string    `gorm:"size:500" json:"-"`
	CoverImage       string    `gorm:"size:500" json:"coverImage"`
	CoverImageKey    string    `gorm:"size:500" json:"-"`
	Password         string    `gorm:"not null" json:"-"`
	RefreshTokenHash *string   `gorm:"size:64" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// BeforeSave keeps usernames in their canonical form.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Username = NormalizeUsername(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	return nil
}

// NormalizeUsername trims and lowercases a username for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Owner is the public projection of a user embedded in videos, comments and tweets.
type Owner struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// TableName maps the projection onto the users table.
func (Owner) TableName() string {
	return "users"
}

// OwnerColumns are the only user columns loaded for an Owner.
var OwnerColumns = []string{"id", "full_name", "username", "avatar"}

// ChannelProfile is a user's public channel view with subscription counts
// relative to the caller.
type ChannelProfile struct {
	ID                        uint   `json:"id"`
	FullName                  string `json:"fullName"`
	Username                  string `json:"username"`
	Email                     string `json:"email,omitempty"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}
