package repository

import (
	"context"
	"errors"

	"vidtube/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	// Find returns (nil, nil) when userID has not liked the target.
	Find(ctx context.Context, userID uint, target models.LikeTarget, targetID uint) (*models.Like, error)
	// Create reports created=false when an identical like already exists.
	Create(ctx context.Context, like *models.Like) (created bool, err error)
	Delete(ctx context.Context, id uint) error
	LikedVideos(ctx context.Context, userID uint) ([]models.Video, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Find(ctx context.Context, userID uint, target models.LikeTarget, targetID uint) (*models.Like, error) {
	column, err := target.TargetColumn()
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	var like models.Like
	err = r.db.WithContext(ctx).
		Where("liked_by_id = ?", userID).
		Where(column+" = ?", targetID).
		First(&like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &like, nil
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) (bool, error) {
	if _, _, err := like.Target(); err != nil {
		return false, models.NewValidationError(err.Error())
	}
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, models.NewInternalError(err)
	}
	if like.VideoID != nil {
		invalidateVideoChannel(ctx, r.db, *like.VideoID)
	}
	return true, nil
}

func (r *likeRepository) Delete(ctx context.Context, id uint) error {
	var like models.Like
	if err := r.db.WithContext(ctx).Select("id", "video_id").Where("id = ?", id).Limit(1).Find(&like).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Delete(&models.Like{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	if like.VideoID != nil {
		invalidateVideoChannel(ctx, r.db, *like.VideoID)
	}
	return nil
}

// LikedVideos returns the published videos userID liked, most recent like first.
func (r *likeRepository) LikedVideos(ctx context.Context, userID uint) ([]models.Video, error) {
	videos := []models.Video{}
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Video{}).
		Joins("JOIN likes l ON l.video_id = videos.id").
		Where("l.liked_by_id = ? AND videos.is_published = ?", userID, true).
		Order("l.id DESC").
		Preload("Owner", ownerPreload).
		Find(&videos).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return videos, nil
}
