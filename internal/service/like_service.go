package service

import (
	"context"

	"vidtube/internal/models"
	"vidtube/internal/notifications"
	"vidtube/internal/repository"
)

type LikeService struct {
	likeRepo    repository.LikeRepository
	videoRepo   repository.VideoRepository
	commentRepo repository.CommentRepository
	tweetRepo   repository.TweetRepository
	notifier    ActivityNotifier
}

func NewLikeService(
	likeRepo repository.LikeRepository,
	videoRepo repository.VideoRepository,
	commentRepo repository.CommentRepository,
	tweetRepo repository.TweetRepository,
) *LikeService {
	return &LikeService{
		likeRepo:    likeRepo,
		videoRepo:   videoRepo,
		commentRepo: commentRepo,
		tweetRepo:   tweetRepo,
	}
}

// WithNotifier tells owners when their content is liked.
func (s *LikeService) WithNotifier(n ActivityNotifier) *LikeService {
	s.notifier = n
	return s
}

// ToggleLike likes the target if userID has not, and unlikes it otherwise. It
// reports whether the target is liked afterwards. A like created concurrently
// by another request counts as liked.
func (s *LikeService) ToggleLike(ctx context.Context, userID uint, target models.LikeTarget, targetID uint) (bool, error) {
	ownerID, err := s.ensureTarget(ctx, userID, target, targetID)
	if err != nil {
		return false, err
	}

	existing, err := s.likeRepo.Find(ctx, userID, target, targetID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := s.likeRepo.Delete(ctx, existing.ID); err != nil {
			return false, err
		}
		return false, nil
	}

	like, err := models.NewLike(userID, target, targetID)
	if err != nil {
		return false, models.NewValidationError(err.Error())
	}
	created, err := s.likeRepo.Create(ctx, like)
	if err != nil {
		return false, err
	}
	if created && s.notifier != nil && ownerID != userID {
		s.notifier.NotifyUser(ctx, ownerID, notifications.Event{
			Type:       notifications.EventLiked,
			ActorID:    userID,
			ChannelID:  ownerID,
			Resource:   string(target),
			ResourceID: targetID,
		})
	}
	return true, nil
}

func (s *LikeService) LikedVideos(ctx context.Context, userID uint) ([]models.Video, error) {
	videos, err := s.likeRepo.LikedVideos(ctx, userID)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

// ensureTarget checks the target exists and is visible to userID, and
// returns the id of its owner.
func (s *LikeService) ensureTarget(ctx context.Context, userID uint, target models.LikeTarget, targetID uint) (uint, error) {
	switch target {
	case models.LikeTargetVideo:
		video, err := s.videoRepo.GetByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		if !video.IsPublished && video.OwnerID != userID {
			return 0, models.NewNotFoundError("Video", targetID)
		}
		return video.OwnerID, nil
	case models.LikeTargetComment:
		comment, err := s.commentRepo.GetByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return comment.OwnerID, nil
	case models.LikeTargetTweet:
		tweet, err := s.tweetRepo.GetByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return tweet.OwnerID, nil
	}
	return 0, models.NewValidationError(models.ErrInvalidLikeTarget.Error())
}
