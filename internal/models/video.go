package models

import (
	"time"
)

// Video is an uploaded video owned by a user.
type Video struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	VideoFile    string    `gorm:"size:500;not null" json:"videoFile"`
	VideoFileKey string    `gorm:"size:500" json:"-"`
	Thumbnail    string    `gorm:"size:500" json:"thumbnail"`
	ThumbnailKey string    `gorm:"size:500" json:"-"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Views        int64     `gorm:"not null;default:0" json:"views"`
	IsPublished  bool      `gorm:"not null;default:true;index" json:"isPublished"`
	OwnerID      uint      `gorm:"not null;index" json:"ownerId"`
	Owner        *Owner    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OwnedBy implements Owned.
func (v *Video) OwnedBy() uint { return v.OwnerID }

// WatchHistoryEntry records that a user watched a video. Entries are read in
// ID order, so the newest view is last.
type WatchHistoryEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_watch_history_user_video"`
	VideoID   uint      `gorm:"not null;uniqueIndex:idx_watch_history_user_video"`
	WatchedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (WatchHistoryEntry) TableName() string {
	return "watch_history_entries"
}

// Owned is implemented by every resource that only its owner may change.
type Owned interface {
	OwnedBy() uint
}

// ChannelStats aggregates a channel's totals for the dashboard.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalViews       int64 `json:"totalViews"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
}

// NewPage assembles a Page, replacing a nil slice with an empty one.
func NewPage[T any](docs []T, total int64, page, limit int) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{
		Docs:        docs,
		TotalDocs:   total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
	}
}
