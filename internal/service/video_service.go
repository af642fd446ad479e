package service

import (
	"context"
	"log/slog"
	"strings"

	"vidtube/internal/featureflags"
	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/notifications"
	"vidtube/internal/repository"
)

const maxTitleLen = 200

type VideoService struct {
	videoRepo repository.VideoRepository
	media     MediaPublisher
	views     ViewRecorder
	flags     *featureflags.Manager
	notifier  ActivityNotifier
}

type ListVideosInput struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortType string
	// OwnerID restricts the listing to one channel.
	OwnerID  uint
	CallerID uint
}

type PublishVideoInput struct {
	UserID        uint
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
}

type UpdateVideoInput struct {
	UserID        uint
	VideoID       uint
	Title         *string
	Description   *string
	ThumbnailPath string
}

func NewVideoService(
	videoRepo repository.VideoRepository,
	publisher MediaPublisher,
	views ViewRecorder,
	flags *featureflags.Manager,
) *VideoService {
	return &VideoService{
		videoRepo: videoRepo,
		media:     publisher,
		views:     views,
		flags:     flags,
	}
}

// WithNotifier tells a channel's subscribers about newly published videos.
func (s *VideoService) WithNotifier(n ActivityNotifier) *VideoService {
	s.notifier = n
	return s
}

func (s *VideoService) ListVideos(ctx context.Context, in ListVideosInput) (models.Page[models.Video], error) {
	switch in.SortBy {
	case "", "createdAt", "views", "title":
	default:
		return models.Page[models.Video]{}, models.NewValidationError("sortBy must be one of createdAt, views or title")
	}
	switch strings.ToLower(in.SortType) {
	case "", "asc", "desc":
	default:
		return models.Page[models.Video]{}, models.NewValidationError("sortType must be asc or desc")
	}

	page, limit := repository.ClampPage(in.Page, in.Limit)
	videos, total, err := s.videoRepo.List(ctx, repository.VideoQuery{
		Page:     page,
		Limit:    limit,
		Search:   in.Query,
		SortBy:   in.SortBy,
		SortType: in.SortType,
		OwnerID:  in.OwnerID,
		ViewerID: in.CallerID,
	})
	if err != nil {
		return models.Page[models.Video]{}, err
	}
	return models.NewPage(videos, total, page, limit), nil
}

func (s *VideoService) PublishVideo(ctx context.Context, in PublishVideoInput) (*models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return nil, models.NewValidationError("Title and description are required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if in.VideoPath == "" {
		return nil, models.NewValidationError("Video file is required")
	}

	file, err := s.media.Publish(ctx, in.VideoPath, media.FolderVideos)
	if err != nil {
		return nil, models.NewUploadFailedError("video", err)
	}
	var thumb media.Asset
	if in.ThumbnailPath != "" {
		thumb, err = s.media.Publish(ctx, in.ThumbnailPath, media.FolderThumbnails)
		if err != nil {
			s.media.Discard(ctx, file.Key)
			return nil, models.NewUploadFailedError("thumbnail", err)
		}
	}

	video := &models.Video{
		Title:        in.Title,
		Description:  in.Description,
		VideoFile:    file.URL,
		VideoFileKey: file.Key,
		Thumbnail:    thumb.URL,
		ThumbnailKey: thumb.Key,
		IsPublished:  true,
		OwnerID:      in.UserID,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		s.media.Discard(ctx, file.Key)
		s.media.Discard(ctx, thumb.Key)
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyFollowers(ctx, in.UserID, notifications.Event{
			Type:       notifications.EventVideoPublished,
			ActorID:    in.UserID,
			ChannelID:  in.UserID,
			Resource:   string(models.LikeTargetVideo),
			ResourceID: video.ID,
		})
	}
	return s.videoRepo.GetByID(ctx, video.ID)
}

// GetVideo loads a video for callerID. Drafts are only visible to their owner.
// Authenticated reads count as a view while the record_views flag is on.
func (s *VideoService) GetVideo(ctx context.Context, videoID, callerID uint) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsPublished && video.OwnerID != callerID {
		return nil, models.NewNotFoundError("Video", videoID)
	}

	if callerID != 0 && s.views != nil && s.flags.Enabled(featureflags.RecordViews, callerID) {
		if err := s.views.RecordView(ctx, callerID, videoID); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to record view",
				slog.Uint64("video_id", uint64(videoID)),
				slog.String("error", err.Error()),
			)
		} else {
			video.Views++
		}
	}
	return video, nil
}

func (s *VideoService) UpdateVideo(ctx context.Context, in UpdateVideoInput) (*models.Video, error) {
	if in.Title == nil && in.Description == nil && in.ThumbnailPath == "" {
		return nil, models.NewValidationError("Nothing to update")
	}

	video, err := s.videoRepo.GetByID(ctx, in.VideoID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(video, in.UserID, "update"); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title cannot be empty")
		}
		if len(title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 200 characters)")
		}
		video.Title = title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return nil, models.NewValidationError("Description cannot be empty")
		}
		video.Description = description
	}

	oldThumbKey := ""
	if in.ThumbnailPath != "" {
		thumb, err := s.media.Publish(ctx, in.ThumbnailPath, media.FolderThumbnails)
		if err != nil {
			return nil, models.NewUploadFailedError("thumbnail", err)
		}
		oldThumbKey = video.ThumbnailKey
		video.Thumbnail, video.ThumbnailKey = thumb.URL, thumb.Key
	}

	if err := s.videoRepo.Update(ctx, video); err != nil {
		if in.ThumbnailPath != "" {
			s.media.Discard(ctx, video.ThumbnailKey)
		}
		return nil, err
	}
	s.media.Discard(ctx, oldThumbKey)
	return video, nil
}

// DeleteVideo removes the video with its comments, likes and history entries,
// then its stored files.
func (s *VideoService) DeleteVideo(ctx context.Context, userID, videoID uint) error {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if err := requireOwner(video, userID, "delete"); err != nil {
		return err
	}
	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return err
	}
	s.media.Discard(ctx, video.VideoFileKey)
	s.media.Discard(ctx, video.ThumbnailKey)
	return nil
}

func (s *VideoService) TogglePublishStatus(ctx context.Context, userID, videoID uint) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(video, userID, "update"); err != nil {
		return nil, err
	}
	video.IsPublished = !video.IsPublished
	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}
