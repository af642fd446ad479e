package server

import (
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/service"

	"github.com/gofiber/fiber/v2"
)

type contentRequest struct {
	Content string `json:"content" form:"content"`
}

// ListComments handles GET /api/v1/comments/:videoId
// @Summary List comments on a video
// @Tags comments
// @Produce json
// @Param videoId path int true "Video ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.APIResponse{data=models.Page[models.Comment]}
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{videoId} [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}
	p := parsePagination(c)

	page, err := s.commentService.ListComments(c.UserContext(), service.ListCommentsInput{
		VideoID:  videoID,
		CallerID: middleware.CurrentUserID(c),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, page, "Comments fetched successfully")
}

// AddComment handles POST /api/v1/comments/:videoId
// @Summary Comment on a video
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param videoId path int true "Video ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.APIResponse{data=models.Comment}
// @Router /comments/{videoId} [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}
	var req contentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := s.commentService.AddComment(c.UserContext(), service.CreateCommentInput{
		UserID:  middleware.CurrentUserID(c),
		VideoID: videoID,
		Content: req.Content,
	})
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusCreated, comment, "Comment added successfully")
}

// UpdateComment handles PATCH /api/v1/comments/c/:commentId
// @Summary Edit a comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param commentId path int true "Comment ID"
// @Param request body object{content=string} true "Comment"
// @Success 200 {object} models.APIResponse{data=models.Comment}
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/c/{commentId} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return err
	}
	var req contentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    middleware.CurrentUserID(c),
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, comment, "Comment updated successfully")
}

// DeleteComment handles DELETE /api/v1/comments/c/:commentId
// @Summary Delete a comment
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Param commentId path int true "Comment ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/c/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return err
	}
	if err := s.commentService.DeleteComment(c.UserContext(), middleware.CurrentUserID(c), commentID); err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Comment deleted successfully")
}
