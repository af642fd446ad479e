package service

import (
	"context"

	"vidtube/internal/models"
	"vidtube/internal/repository"
)

type TweetService struct {
	tweetRepo repository.TweetRepository
	userRepo  repository.UserRepository
}

type CreateTweetInput struct {
	UserID  uint
	Content string
}

type UpdateTweetInput struct {
	UserID  uint
	TweetID uint
	Content string
}

func NewTweetService(tweetRepo repository.TweetRepository, userRepo repository.UserRepository) *TweetService {
	return &TweetService{tweetRepo: tweetRepo, userRepo: userRepo}
}

func (s *TweetService) CreateTweet(ctx context.Context, in CreateTweetInput) (*models.Tweet, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	tweet := &models.Tweet{Content: in.Content, OwnerID: in.UserID}
	if err := s.tweetRepo.Create(ctx, tweet); err != nil {
		return nil, err
	}
	return s.tweetRepo.GetByID(ctx, tweet.ID)
}

// ListUserTweets returns a user's tweets newest first.
func (s *TweetService) ListUserTweets(ctx context.Context, userID uint) ([]models.Tweet, error) {
	if _, err := s.userRepo.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	return s.tweetRepo.ListByOwner(ctx, userID)
}

func (s *TweetService) UpdateTweet(ctx context.Context, in UpdateTweetInput) (*models.Tweet, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	tweet, err := s.tweetRepo.GetByID(ctx, in.TweetID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(tweet, in.UserID, "update"); err != nil {
		return nil, err
	}

	tweet.Content = in.Content
	if err := s.tweetRepo.Update(ctx, tweet); err != nil {
		return nil, err
	}
	return tweet, nil
}

func (s *TweetService) DeleteTweet(ctx context.Context, userID, tweetID uint) error {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		return err
	}
	if err := requireOwner(tweet, userID, "delete"); err != nil {
		return err
	}
	return s.tweetRepo.Delete(ctx, tweetID)
}
