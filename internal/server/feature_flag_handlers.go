package server

import (
	"vidtube/internal/middleware"
	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/v1/users/feature-flags
// @Summary Feature flags for the caller
// @Description Flags evaluated for the current user. Outside production the raw rollout rules are included.
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.APIResponse{data=object{evaluated=map[string]bool,raw=map[string]string}}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	data := fiber.Map{"evaluated": s.featureFlags.Snapshot(middleware.CurrentUserID(c))}
	if !s.config.IsProduction() {
		data["raw"] = s.featureFlags.Raw()
	}
	return models.Respond(c, fiber.StatusOK, data, "Feature flags fetched successfully")
}
