package server

import (
	"context"
	"time"

	"vidtube/internal/database"
	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 5 * time.Second

// Dependency states reported by ReadinessCheck.
const (
	depHealthy   = "healthy"
	depUnhealthy = "unhealthy"
	depDisabled  = "disabled"
)

// HealthCheck handles GET /healthcheck
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /healthcheck [get]
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return models.Respond(c, fiber.StatusOK, fiber.Map{"status": "OK"}, "Health check passed")
}

// LivenessCheck answers as long as the process serves HTTP.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now().UTC()})
}

// ReadinessCheck pings the database and Redis. The database is required.
// Redis is optional, so running without it is reported but stays ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	checks := fiber.Map{
		"database": probe(database.Ping(ctx, s.db)),
		"redis":    depDisabled,
	}
	ready := checks["database"] == depHealthy
	if s.redis != nil {
		state := probe(s.redis.Ping(ctx).Err())
		checks["redis"] = state
		ready = ready && state == depHealthy
	}

	code, status := fiber.StatusOK, "ready"
	if !ready {
		code, status = fiber.StatusServiceUnavailable, "not_ready"
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC(),
	})
}

func probe(err error) string {
	if err != nil {
		return depUnhealthy
	}
	return depHealthy
}
