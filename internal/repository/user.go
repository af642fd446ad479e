// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"vidtube/internal/cache"
	"vidtube/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetByID loads the full row, secrets included. Never cached.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetProfile loads the public user, served from cache when possible.
	GetProfile(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByLogin matches a username or an email; either may be empty.
	FindByLogin(ctx context.Context, username, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SetRefreshTokenHash(ctx context.Context, id uint, hash *string) error
	SwapRefreshTokenHash(ctx context.Context, id uint, old, next string) error
	ChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID uint) ([]models.Video, error)
	AppendWatchHistory(ctx context.Context, userID, videoID uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).
			Omit("password", "refresh_token_hash").
			First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", models.NormalizeUsername(username))
}

func (r *userRepository) FindByLogin(ctx context.Context, username, email string) (*models.User, error) {
	username = models.NormalizeUsername(username)
	switch {
	case username != "" && email != "":
		return r.findOne(ctx, "username = ? OR email = ?", username, email)
	case username != "":
		return r.findOne(ctx, "username = ?", username)
	case email != "":
		return r.findOne(ctx, "email = ?", email)
	}
	return nil, nil
}

// findOne returns (nil, nil) when nothing matches.
func (r *userRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateIdentityError("")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewDuplicateIdentityError("Email is already in use")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) SetRefreshTokenHash(ctx context.Context, id uint, hash *string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("refresh_token_hash", hash)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// SwapRefreshTokenHash replaces the stored hash only while it still equals
// old. Of two callers presenting the same refresh token, one gets
// Unauthenticated.
func (r *userRepository) SwapRefreshTokenHash(ctx context.Context, id uint, old, next string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", id, old).
		UpdateColumn("refresh_token_hash", next)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewUnauthenticatedError("Refresh token is expired or used")
	}
	return nil
}

// ChannelProfile computes a channel's subscription counts and whether viewerID
// follows it in a single query.
func (r *userRepository) ChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	var profile models.ChannelProfile
	res := readDB(r.db).WithContext(ctx).
		Table("users AS u").
		Select(`u.id, u.full_name, u.username, u.email, u.avatar, u.cover_image,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
			EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?) AS is_subscribed`,
			viewerID).
		Where("u.username = ?", models.NormalizeUsername(username)).
		Limit(1).
		Scan(&profile)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 || profile.ID == 0 {
		return nil, models.NewNotFoundError("Channel", username)
	}
	return &profile, nil
}

// WatchHistory returns the videos userID watched, oldest view first, each with
// its owner's public projection.
func (r *userRepository) WatchHistory(ctx context.Context, userID uint) ([]models.Video, error) {
	videos := []models.Video{}
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Video{}).
		Joins("JOIN watch_history_entries wh ON wh.video_id = videos.id").
		Where("wh.user_id = ?", userID).
		Order("wh.id ASC").
		Preload("Owner", ownerPreload).
		Find(&videos).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return videos, nil
}

// AppendWatchHistory moves videoID to the end of userID's history and counts the view.
func (r *userRepository) AppendWatchHistory(ctx context.Context, userID, videoID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND video_id = ?", userID, videoID).
			Delete(&models.WatchHistoryEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.WatchHistoryEntry{UserID: userID, VideoID: videoID}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Video{}).Where("id = ?", videoID).
			UpdateColumn("views", gorm.Expr("views + 1")).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	invalidateVideoChannel(ctx, r.db, videoID)
	return nil
}
