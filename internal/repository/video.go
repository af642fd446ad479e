package repository

import (
	"context"
	"errors"
	"strings"

	"vidtube/internal/cache"
	"vidtube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VideoQuery filters and orders a video listing.
type VideoQuery struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string // createdAt, views or title
	SortType string // asc or desc
	OwnerID  uint
	// ViewerID sees their own unpublished videos when listing their channel.
	ViewerID uint
}

var videoSortColumns = map[string]string{
	"createdAt": "created_at",
	"views":     "views",
	"title":     "title",
}

// VideoRepository defines persistence operations for videos.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id uint) (*models.Video, error)
	List(ctx context.Context, q VideoQuery) ([]models.Video, int64, error)
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id uint) error
}

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository returns a new VideoRepository implementation.
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(video).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateChannelStats(ctx, video.OwnerID)
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).Preload("Owner", ownerPreload).First(&video, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Video", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &video, nil
}

func (r *videoRepository) List(ctx context.Context, q VideoQuery) ([]models.Video, int64, error) {
	page, limit := ClampPage(q.Page, q.Limit)

	base := readDB(r.db).WithContext(ctx).Model(&models.Video{})
	if q.OwnerID != 0 {
		base = base.Where("owner_id = ?", q.OwnerID)
	}
	if q.OwnerID == 0 || q.OwnerID != q.ViewerID {
		base = base.Where("is_published = ?", true)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		base = base.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	column, ok := videoSortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	desc := !strings.EqualFold(q.SortType, "asc")

	videos := []models.Video{}
	err := base.
		Preload("Owner", ownerPreload).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&videos).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return videos, total, nil
}

// Update writes the owner-editable columns only. Views are counted
// concurrently and must not be overwritten from a stale copy.
func (r *videoRepository) Update(ctx context.Context, video *models.Video) error {
	err := r.db.WithContext(ctx).Model(&models.Video{ID: video.ID}).
		Select("title", "description", "thumbnail", "thumbnail_key", "is_published").
		Updates(video).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateChannelStats(ctx, video.OwnerID)
	return nil
}

func (r *videoRepository) Delete(ctx context.Context, id uint) error {
	var ownerID uint
	if err := r.db.WithContext(ctx).Model(&models.Video{}).Select("owner_id").Where("id = ?", id).Scan(&ownerID).Error; err != nil {
		return models.NewInternalError(err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("video_id = ?", id)
		if err := tx.Where("video_id = ? OR comment_id IN (?)", id, commentIDs).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", id).Delete(&models.WatchHistoryEntry{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Video{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Video", id)
		}
		return nil
	})
	if err != nil {
		if appErr, ok := models.AsAppError(err); ok {
			return appErr
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateChannelStats(ctx, ownerID)
	return nil
}

// invalidateVideoChannel drops the cached stats of the channel owning videoID.
func invalidateVideoChannel(ctx context.Context, db *gorm.DB, videoID uint) {
	var ownerID uint
	if err := db.WithContext(ctx).Model(&models.Video{}).Select("owner_id").Where("id = ?", videoID).Scan(&ownerID).Error; err != nil || ownerID == 0 {
		return
	}
	cache.InvalidateChannelStats(ctx, ownerID)
}
