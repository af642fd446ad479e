package server

import (
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateTweet handles POST /api/v1/tweets
// @Summary Post a tweet
// @Tags tweets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{content=string} true "Tweet"
// @Success 201 {object} models.APIResponse{data=models.Tweet}
// @Router /tweets [post]
func (s *Server) CreateTweet(c *fiber.Ctx) error {
	var req contentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	tweet, err := s.tweetService.CreateTweet(c.UserContext(), service.CreateTweetInput{
		UserID:  middleware.CurrentUserID(c),
		Content: req.Content,
	})
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusCreated, tweet, "Tweet created successfully")
}

// ListUserTweets handles GET /api/v1/tweets/user/:userId
// @Summary List a user's tweets
// @Tags tweets
// @Security BearerAuth
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} models.APIResponse{data=[]models.Tweet}
// @Failure 404 {object} models.ErrorResponse
// @Router /tweets/user/{userId} [get]
func (s *Server) ListUserTweets(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	tweets, err := s.tweetService.ListUserTweets(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, tweets, "Tweets fetched successfully")
}

// UpdateTweet handles PATCH /api/v1/tweets/:tweetId
func (s *Server) UpdateTweet(c *fiber.Ctx) error {
	tweetID, err := parseID(c, "tweetId")
	if err != nil {
		return err
	}
	var req contentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	tweet, err := s.tweetService.UpdateTweet(c.UserContext(), service.UpdateTweetInput{
		UserID:  middleware.CurrentUserID(c),
		TweetID: tweetID,
		Content: req.Content,
	})
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, tweet, "Tweet updated successfully")
}

// DeleteTweet handles DELETE /api/v1/tweets/:tweetId
func (s *Server) DeleteTweet(c *fiber.Ctx) error {
	tweetID, err := parseID(c, "tweetId")
	if err != nil {
		return err
	}
	if err := s.tweetService.DeleteTweet(c.UserContext(), middleware.CurrentUserID(c), tweetID); err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Tweet deleted successfully")
}
