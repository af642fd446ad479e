package repository

import (
	"context"

	"vidtube/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository computes a channel's totals. Each count is a separate
// query so callers can run them concurrently.
type DashboardRepository interface {
	CountVideos(ctx context.Context, ownerID uint) (int64, error)
	SumViews(ctx context.Context, ownerID uint) (int64, error)
	CountSubscribers(ctx context.Context, channelID uint) (int64, error)
	CountVideoLikes(ctx context.Context, ownerID uint) (int64, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository returns a new DashboardRepository implementation.
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) CountVideos(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Video{}).Where("owner_id = ?", ownerID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *dashboardRepository) SumViews(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Video{}).
		Select("COALESCE(SUM(views), 0)").
		Where("owner_id = ?", ownerID).
		Scan(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *dashboardRepository) CountSubscribers(ctx context.Context, channelID uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Subscription{}).Where("channel_id = ?", channelID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *dashboardRepository) CountVideoLikes(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Like{}).
		Joins("JOIN videos v ON v.id = likes.video_id").
		Where("v.owner_id = ?", ownerID).
		Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
