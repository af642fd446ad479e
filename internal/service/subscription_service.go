package service

import (
	"context"

	"vidtube/internal/models"
	"vidtube/internal/notifications"
	"vidtube/internal/repository"
)

type SubscriptionService struct {
	subRepo  repository.SubscriptionRepository
	userRepo repository.UserRepository
	notifier ActivityNotifier
}

func NewSubscriptionService(subRepo repository.SubscriptionRepository, userRepo repository.UserRepository) *SubscriptionService {
	return &SubscriptionService{subRepo: subRepo, userRepo: userRepo}
}

// WithNotifier tells channel owners about new subscribers.
func (s *SubscriptionService) WithNotifier(n ActivityNotifier) *SubscriptionService {
	s.notifier = n
	return s
}

// ToggleSubscription subscribes subscriberID to channelID, or unsubscribes if
// already subscribed. It reports whether the caller is subscribed afterwards.
func (s *SubscriptionService) ToggleSubscription(ctx context.Context, subscriberID, channelID uint) (bool, error) {
	if subscriberID == channelID {
		return false, models.NewValidationError("You cannot subscribe to your own channel")
	}
	if _, err := s.userRepo.GetProfile(ctx, channelID); err != nil {
		return false, err
	}

	existing, err := s.subRepo.Find(ctx, subscriberID, channelID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := s.subRepo.Delete(ctx, existing.ID); err != nil {
			return false, err
		}
		return false, nil
	}

	created, err := s.subRepo.Create(ctx, &models.Subscription{SubscriberID: subscriberID, ChannelID: channelID})
	if err != nil {
		return false, err
	}
	if created && s.notifier != nil {
		s.notifier.NotifyUser(ctx, channelID, notifications.Event{
			Type:      notifications.EventSubscribed,
			ActorID:   subscriberID,
			ChannelID: channelID,
		})
	}
	return true, nil
}

func (s *SubscriptionService) ListSubscribers(ctx context.Context, channelID uint) ([]models.Owner, error) {
	if _, err := s.userRepo.GetProfile(ctx, channelID); err != nil {
		return nil, err
	}
	return s.subRepo.Subscribers(ctx, channelID)
}

func (s *SubscriptionService) ListSubscribedChannels(ctx context.Context, subscriberID uint) ([]models.Owner, error) {
	if _, err := s.userRepo.GetProfile(ctx, subscriberID); err != nil {
		return nil, err
	}
	return s.subRepo.SubscribedChannels(ctx, subscriberID)
}
