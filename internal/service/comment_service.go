package service

import (
	"context"

	"vidtube/internal/models"
	"vidtube/internal/notifications"
	"vidtube/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	videoRepo   repository.VideoRepository
	notifier    ActivityNotifier
}

type CreateCommentInput struct {
	UserID  uint
	VideoID uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type ListCommentsInput struct {
	VideoID  uint
	CallerID uint
	Page     int
	Limit    int
}

func NewCommentService(commentRepo repository.CommentRepository, videoRepo repository.VideoRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		videoRepo:   videoRepo,
	}
}

// WithNotifier tells video owners about new comments.
func (s *CommentService) WithNotifier(n ActivityNotifier) *CommentService {
	s.notifier = n
	return s
}

// visibleVideo loads a video the caller may see. Drafts read as missing to
// everyone but their owner.
func (s *CommentService) visibleVideo(ctx context.Context, videoID, callerID uint) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsPublished && video.OwnerID != callerID {
		return nil, models.NewNotFoundError("Video", videoID)
	}
	return video, nil
}

func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) (models.Page[models.Comment], error) {
	if _, err := s.visibleVideo(ctx, in.VideoID, in.CallerID); err != nil {
		return models.Page[models.Comment]{}, err
	}
	page, limit := repository.ClampPage(in.Page, in.Limit)
	comments, total, err := s.commentRepo.ListByVideo(ctx, in.VideoID, page, limit)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	return models.NewPage(comments, total, page, limit), nil
}

func (s *CommentService) AddComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	video, err := s.visibleVideo(ctx, in.VideoID, in.UserID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: in.Content,
		VideoID: in.VideoID,
		OwnerID: in.UserID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	if s.notifier != nil && video.OwnerID != in.UserID {
		s.notifier.NotifyUser(ctx, video.OwnerID, notifications.Event{
			Type:       notifications.EventCommented,
			ActorID:    in.UserID,
			ChannelID:  video.OwnerID,
			Resource:   string(models.LikeTargetVideo),
			ResourceID: video.ID,
		})
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(comment, in.UserID, "update"); err != nil {
		return nil, err
	}

	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := requireOwner(comment, userID, "delete"); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, commentID)
}
