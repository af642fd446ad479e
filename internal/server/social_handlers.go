package server

import (
	"vidtube/internal/middleware"
	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) toggleLike(c *fiber.Ctx, target models.LikeTarget, param string) error {
	targetID, err := parseID(c, param)
	if err != nil {
		return err
	}
	liked, err := s.likeService.ToggleLike(c.UserContext(), middleware.CurrentUserID(c), target, targetID)
	if err != nil {
		return err
	}
	message := "Like removed"
	if liked {
		message = "Like added"
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{"isLiked": liked}, message)
}

// ToggleVideoLike handles POST /api/v1/likes/toggle/v/:videoId
// @Summary Like or unlike a video
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Param videoId path int true "Video ID"
// @Success 200 {object} models.APIResponse{data=object{isLiked=bool}}
// @Router /likes/toggle/v/{videoId} [post]
func (s *Server) ToggleVideoLike(c *fiber.Ctx) error {
	return s.toggleLike(c, models.LikeTargetVideo, "videoId")
}

// ToggleCommentLike handles POST /api/v1/likes/toggle/c/:commentId
// @Summary Like or unlike a comment
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Param commentId path int true "Comment ID"
// @Success 200 {object} models.APIResponse{data=object{isLiked=bool}}
// @Router /likes/toggle/c/{commentId} [post]
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	return s.toggleLike(c, models.LikeTargetComment, "commentId")
}

// ToggleTweetLike handles POST /api/v1/likes/toggle/t/:tweetId
// @Summary Like or unlike a tweet
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Param tweetId path int true "Tweet ID"
// @Success 200 {object} models.APIResponse{data=object{isLiked=bool}}
// @Router /likes/toggle/t/{tweetId} [post]
func (s *Server) ToggleTweetLike(c *fiber.Ctx) error {
	return s.toggleLike(c, models.LikeTargetTweet, "tweetId")
}

// GetLikedVideos handles GET /api/v1/likes/videos
// @Summary Videos the caller liked
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Video}
// @Router /likes/videos [get]
func (s *Server) GetLikedVideos(c *fiber.Ctx) error {
	videos, err := s.likeService.LikedVideos(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, videos, "Liked videos fetched successfully")
}

// ToggleSubscription handles POST /api/v1/subscriptions/c/:channelId
// @Summary Subscribe to or unsubscribe from a channel
// @Tags subscriptions
// @Security BearerAuth
// @Produce json
// @Param channelId path int true "Channel (user) ID"
// @Success 200 {object} models.APIResponse{data=object{isSubscribed=bool}}
// @Failure 400 {object} models.ErrorResponse
// @Router /subscriptions/c/{channelId} [post]
func (s *Server) ToggleSubscription(c *fiber.Ctx) error {
	channelID, err := parseID(c, "channelId")
	if err != nil {
		return err
	}
	subscribed, err := s.subscriptionService.ToggleSubscription(c.UserContext(), middleware.CurrentUserID(c), channelID)
	if err != nil {
		return err
	}
	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{"isSubscribed": subscribed}, message)
}

// ListSubscribers handles GET /api/v1/subscriptions/c/:channelId
// @Summary Channel subscribers
// @Tags subscriptions
// @Security BearerAuth
// @Produce json
// @Param channelId path int true "Channel (user) ID"
// @Success 200 {object} models.APIResponse{data=[]models.Owner}
// @Router /subscriptions/c/{channelId} [get]
func (s *Server) ListSubscribers(c *fiber.Ctx) error {
	channelID, err := parseID(c, "channelId")
	if err != nil {
		return err
	}
	subscribers, err := s.subscriptionService.ListSubscribers(c.UserContext(), channelID)
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, subscribers, "Subscribers fetched successfully")
}

// ListSubscribedChannels handles GET /api/v1/subscriptions/u/:subscriberId
func (s *Server) ListSubscribedChannels(c *fiber.Ctx) error {
	subscriberID, err := parseID(c, "subscriberId")
	if err != nil {
		return err
	}
	channels, err := s.subscriptionService.ListSubscribedChannels(c.UserContext(), subscriberID)
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, channels, "Subscribed channels fetched successfully")
}

// GetChannelStats handles GET /api/v1/dashboard/stats
// @Summary Channel statistics for the caller
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.ChannelStats}
// @Router /dashboard/stats [get]
func (s *Server) GetChannelStats(c *fiber.Ctx) error {
	stats, err := s.dashboardService.ChannelStats(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, stats, "Channel stats fetched successfully")
}

// GetChannelVideos handles GET /api/v1/dashboard/videos
// @Summary The caller's videos, drafts included
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.APIResponse{data=models.Page[models.Video]}
// @Router /dashboard/videos [get]
func (s *Server) GetChannelVideos(c *fiber.Ctx) error {
	p := parsePagination(c)
	page, err := s.dashboardService.ChannelVideos(c.UserContext(), middleware.CurrentUserID(c), p.Page, p.Limit)
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, page, "Channel videos fetched successfully")
}
