package server

import (
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListVideos handles GET /api/v1/videos
// @Summary List videos
// @Description Paginated, searchable listing of published videos. Owners also see their drafts when filtering by their own userId.
// @Tags videos
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param query query string false "Search in title and description"
// @Param sortBy query string false "createdAt, views or title"
// @Param sortType query string false "asc or desc"
// @Param userId query int false "Restrict to one channel"
// @Success 200 {object} models.APIResponse{data=models.Page[models.Video]}
// @Failure 400 {object} models.ErrorResponse
// @Router /videos [get]
func (s *Server) ListVideos(c *fiber.Ctx) error {
	p := parsePagination(c)
	ownerID := c.QueryInt("userId", 0)
	if ownerID < 0 {
		return models.NewValidationError("Invalid user ID")
	}

	page, err := s.videoService.ListVideos(c.UserContext(), service.ListVideosInput{
		Page:     p.Page,
		Limit:    p.Limit,
		Query:    c.Query("query"),
		SortBy:   c.Query("sortBy"),
		SortType: c.Query("sortType"),
		OwnerID:  uint(ownerID),
		CallerID: middleware.CurrentUserID(c),
	})
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, page, "Videos fetched successfully")
}

// PublishVideo handles POST /api/v1/videos
// @Summary Publish a video
// @Tags videos
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param videoFile formData file true "Video file"
// @Param thumbnail formData file false "Thumbnail image"
// @Success 201 {object} models.APIResponse{data=models.Video}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /videos [post]
func (s *Server) PublishVideo(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	videoPath, err := s.saveUpload(c, "videoFile", "video")
	if err != nil {
		return err
	}
	thumbnailPath, err := s.saveUpload(c, "thumbnail", "image")
	if err != nil {
		removeTemp(c, videoPath)
		return err
	}
	defer removeTemp(c, videoPath, thumbnailPath)

	video, err := s.videoService.PublishVideo(c.UserContext(), service.PublishVideoInput{
		UserID:        middleware.CurrentUserID(c),
		Title:         req.Title,
		Description:   req.Description,
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath,
	})
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusCreated, video, "Video published successfully")
}

// GetVideo handles GET /api/v1/videos/:videoId
// @Summary Get a video
// @Description Authenticated reads are added to the caller's watch history
// @Tags videos
// @Produce json
// @Param videoId path int true "Video ID"
// @Success 200 {object} models.APIResponse{data=models.Video}
// @Failure 404 {object} models.ErrorResponse
// @Router /videos/{videoId} [get]
func (s *Server) GetVideo(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}

	video, err := s.videoService.GetVideo(c.UserContext(), videoID, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, video, "Video fetched successfully")
}

// UpdateVideo handles PATCH /api/v1/videos/:videoId
// @Summary Update a video
// @Tags videos
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param videoId path int true "Video ID"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Param thumbnail formData file false "Thumbnail image"
// @Success 200 {object} models.APIResponse{data=models.Video}
// @Failure 403 {object} models.ErrorResponse
// @Router /videos/{videoId} [patch]
func (s *Server) UpdateVideo(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}

	var req struct {
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	thumbnailPath, err := s.saveUpload(c, "thumbnail", "image")
	if err != nil {
		return err
	}
	defer removeTemp(c, thumbnailPath)

	in := service.UpdateVideoInput{
		UserID:        middleware.CurrentUserID(c),
		VideoID:       videoID,
		ThumbnailPath: thumbnailPath,
	}
	if req.Title != "" {
		in.Title = &req.Title
	}
	if req.Description != "" {
		in.Description = &req.Description
	}

	video, err := s.videoService.UpdateVideo(c.UserContext(), in)
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, video, "Video updated successfully")
}

// DeleteVideo handles DELETE /api/v1/videos/:videoId
// @Summary Delete a video
// @Tags videos
// @Security BearerAuth
// @Produce json
// @Param videoId path int true "Video ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /videos/{videoId} [delete]
func (s *Server) DeleteVideo(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}
	if err := s.videoService.DeleteVideo(c.UserContext(), middleware.CurrentUserID(c), videoID); err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Video deleted successfully")
}

// TogglePublishStatus handles PATCH /api/v1/videos/toggle/publish/:videoId
// @Summary Toggle publish status
// @Tags videos
// @Security BearerAuth
// @Produce json
// @Param videoId path int true "Video ID"
// @Success 200 {object} models.APIResponse{data=models.Video}
// @Router /videos/toggle/publish/{videoId} [patch]
func (s *Server) TogglePublishStatus(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}
	video, err := s.videoService.TogglePublishStatus(c.UserContext(), middleware.CurrentUserID(c), videoID)
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, video, "Video publish status toggled")
}
