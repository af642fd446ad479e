package service

import (
	"context"
	"strings"

	"vidtube/internal/featureflags"
	"vidtube/internal/media"
	"vidtube/internal/models"
	"vidtube/internal/observability"
	"vidtube/internal/repository"
	"vidtube/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// ProfileService serves account data, channel profiles and watch history.
type ProfileService struct {
	userRepo repository.UserRepository
	media    MediaPublisher
	flags    *featureflags.Manager
}

type UpdateAccountInput struct {
	UserID   uint
	FullName string
	Email    string
}

func NewProfileService(userRepo repository.UserRepository, publisher MediaPublisher, flags *featureflags.Manager) *ProfileService {
	return &ProfileService{userRepo: userRepo, media: publisher, flags: flags}
}

func (s *ProfileService) GetCurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetProfile(ctx, userID)
}

// GetChannelProfile returns the channel named username as seen by callerID
// (zero for anonymous). Email is only included for the owner unless the
// channel_profile_email flag is on for the caller.
func (s *ProfileService) GetChannelProfile(ctx context.Context, username string, callerID uint) (*models.ChannelProfile, error) {
	username = models.NormalizeUsername(username)
	if username == "" {
		return nil, models.NewValidationError("Username is missing")
	}

	ctx, span := observability.StartSpan(ctx, "profile.ChannelProfile", attribute.String("channel.username", username))
	defer span.End()

	profile, err := s.userRepo.ChannelProfile(ctx, username, callerID)
	if err != nil {
		span.Fail(err)
		return nil, err
	}
	if profile.ID != callerID && !s.flags.Enabled(featureflags.ChannelProfileEmail, callerID) {
		profile.Email = ""
	}
	return profile, nil
}

// GetWatchHistory lists watched videos oldest first. Never nil.
func (s *ProfileService) GetWatchHistory(ctx context.Context, userID uint) ([]models.Video, error) {
	ctx, span := observability.StartSpan(ctx, "profile.WatchHistory")
	defer span.End()

	videos, err := s.userRepo.WatchHistory(ctx, userID)
	if err != nil {
		span.Fail(err)
		return nil, err
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

// RecordView moves videoID to the end of the user's history and counts a view.
func (s *ProfileService) RecordView(ctx context.Context, userID, videoID uint) error {
	return s.userRepo.AppendWatchHistory(ctx, userID, videoID)
}

func (s *ProfileService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FullName == "" || in.Email == "" {
		return nil, models.NewValidationError("Full name and email are required")
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.userRepo.UpdateFields(ctx, in.UserID, map[string]interface{}{
		"full_name": in.FullName,
		"email":     in.Email,
	}); err != nil {
		return nil, err
	}
	return s.userRepo.GetProfile(ctx, in.UserID)
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, userID uint, localPath string) (*models.User, error) {
	if localPath == "" {
		return nil, models.NewValidationError("Avatar file is missing")
	}
	return s.replaceImage(ctx, userID, localPath, media.FolderAvatars, "avatar", "avatar", "avatar_key",
		func(u *models.User) string { return u.AvatarKey })
}

func (s *ProfileService) UpdateCoverImage(ctx context.Context, userID uint, localPath string) (*models.User, error) {
	if localPath == "" {
		return nil, models.NewValidationError("Cover image file is missing")
	}
	return s.replaceImage(ctx, userID, localPath, media.FolderCovers, "cover image", "cover_image", "cover_image_key",
		func(u *models.User) string { return u.CoverImageKey })
}

// replaceImage uploads the new file, points the user at it and then drops the
// previous asset.
func (s *ProfileService) replaceImage(
	ctx context.Context,
	userID uint,
	localPath, folder, what, urlColumn, keyColumn string,
	oldKey func(*models.User) string,
) (*models.User, error) {
	current, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	asset, err := s.media.Publish(ctx, localPath, folder)
	if err != nil {
		return nil, models.NewUploadFailedError(what, err)
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		urlColumn: asset.URL,
		keyColumn: asset.Key,
	}); err != nil {
		s.media.Discard(ctx, asset.Key)
		return nil, err
	}
	s.media.Discard(ctx, oldKey(current))

	return s.userRepo.GetProfile(ctx, userID)
}
