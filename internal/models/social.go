package models

import (
	"errors"
	"time"
)

// Comment is a user's comment on a video.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	VideoID   uint      `gorm:"not null;index" json:"videoId"`
	OwnerID   uint      `gorm:"not null;index" json:"ownerId"`
	Owner     *Owner    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy implements Owned.
func (c *Comment) OwnedBy() uint { return c.OwnerID }

// Tweet is a short text post on a user's channel.
type Tweet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	OwnerID   uint      `gorm:"not null;index" json:"ownerId"`
	Owner     *Owner    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy implements Owned.
func (t *Tweet) OwnedBy() uint { return t.OwnerID }

// Subscription records that Subscriber follows Channel. Both are users.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscriptions_pair" json:"subscriberId"`
	ChannelID    uint      `gorm:"not null;uniqueIndex:idx_subscriptions_pair;index" json:"channelId"`
	Subscriber   *Owner    `gorm:"foreignKey:SubscriberID" json:"subscriber,omitempty"`
	Channel      *Owner    `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LikeTarget names the kind of resource a Like points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// ErrInvalidLikeTarget is returned when a Like does not point at exactly one resource.
var ErrInvalidLikeTarget = errors.New("like must reference exactly one of video, comment or tweet")

// Like is a user's like on exactly one video, comment or tweet.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LikedByID uint      `gorm:"not null;uniqueIndex:idx_likes_user_video;uniqueIndex:idx_likes_user_comment;uniqueIndex:idx_likes_user_tweet" json:"likedBy"`
	VideoID   *uint     `gorm:"uniqueIndex:idx_likes_user_video;index" json:"videoId,omitempty"`
	CommentID *uint     `gorm:"uniqueIndex:idx_likes_user_comment" json:"commentId,omitempty"`
	TweetID   *uint     `gorm:"uniqueIndex:idx_likes_user_tweet" json:"tweetId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewLike builds a Like by userID on the given target.
func NewLike(userID uint, target LikeTarget, targetID uint) (*Like, error) {
	l := &Like{LikedByID: userID}
	id := targetID
	switch target {
	case LikeTargetVideo:
		l.VideoID = &id
	case LikeTargetComment:
		l.CommentID = &id
	case LikeTargetTweet:
		l.TweetID = &id
	default:
		return nil, ErrInvalidLikeTarget
	}
	return l, nil
}

// Target returns the single resource the like points at.
func (l *Like) Target() (LikeTarget, uint, error) {
	var (
		kind  LikeTarget
		id    uint
		count int
	)
	if l.VideoID != nil {
		kind, id = LikeTargetVideo, *l.VideoID
		count++
	}
	if l.CommentID != nil {
		kind, id = LikeTargetComment, *l.CommentID
		count++
	}
	if l.TweetID != nil {
		kind, id = LikeTargetTweet, *l.TweetID
		count++
	}
	if count != 1 {
		return "", 0, ErrInvalidLikeTarget
	}
	return kind, id, nil
}

// TargetColumn returns the likes column for a target kind.
func (t LikeTarget) TargetColumn() (string, error) {
	switch t {
	case LikeTargetVideo:
		return "video_id", nil
	case LikeTargetComment:
		return "comment_id", nil
	case LikeTargetTweet:
		return "tweet_id", nil
	}
	return "", ErrInvalidLikeTarget
}
