package repository

import (
	"context"
	"errors"

	"vidtube/internal/cache"
	"vidtube/internal/models"

	"gorm.io/gorm"
)

// SubscriptionRepository defines persistence operations for channel subscriptions.
type SubscriptionRepository interface {
	Find(ctx context.Context, subscriberID, channelID uint) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) (created bool, err error)
	Delete(ctx context.Context, id uint) error
	Subscribers(ctx context.Context, channelID uint) ([]models.Owner, error)
	SubscribedChannels(ctx context.Context, subscriberID uint) ([]models.Owner, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository returns a new SubscriptionRepository implementation.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Find(ctx context.Context, subscriberID, channelID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) (bool, error) {
	if err := r.db.WithContext(ctx).Omit("Subscriber", "Channel").Create(sub).Error; err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, models.NewInternalError(err)
	}
	cache.InvalidateChannelStats(ctx, sub.ChannelID)
	return true, nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, id uint) error {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Delete(&models.Subscription{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateChannelStats(ctx, sub.ChannelID)
	return nil
}

// Subscribers lists the users following channelID, newest first.
func (r *subscriptionRepository) Subscribers(ctx context.Context, channelID uint) ([]models.Owner, error) {
	return r.owners(ctx, "s.subscriber_id", "s.channel_id = ?", channelID)
}

// SubscribedChannels lists the channels subscriberID follows, newest first.
func (r *subscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID uint) ([]models.Owner, error) {
	return r.owners(ctx, "s.channel_id", "s.subscriber_id = ?", subscriberID)
}

func (r *subscriptionRepository) owners(ctx context.Context, joinColumn, where string, id uint) ([]models.Owner, error) {
	owners := []models.Owner{}
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Owner{}).
		Select("users.id, users.full_name, users.username, users.avatar").
		Joins("JOIN subscriptions s ON "+joinColumn+" = users.id").
		Where(where, id).
		Order("s.id DESC").
		Find(&owners).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return owners, nil
}
