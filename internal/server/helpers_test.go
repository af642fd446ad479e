package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vidtube/internal/auth"
	"vidtube/internal/config"
	"vidtube/internal/middleware"
	"vidtube/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for unit tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gormDB, mock
}

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"videoId", "video ID"},
		{"commentId", "comment ID"},
		{"subscriberId", "subscriber ID"},
		{"channelId", "channel ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c)
		return c.JSON(fiber.Map{"page": p.Page, "limit": p.Limit})
	})

	tests := []struct {
		query     string
		wantPage  float64
		wantLimit float64
	}{
		{"", 1, 10},
		{"?page=3&limit=25", 3, 25},
		{"?page=0&limit=0", 1, 10},
		{"?page=-2&limit=500", 1, 100},
		{"?page=abc", 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantPage, body["page"])
			assert.Equal(t, tt.wantLimit, body["limit"])
		})
	}
}

func TestParseID(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return models.RespondWithError(c, err)
	}})
	app.Get("/videos/:videoId", func(c *fiber.Ctx) error {
		id, err := parseID(c, "videoId")
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id})
	})

	for _, path := range []string{"/videos/0", "/videos/-1", "/videos/abc"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)

		var body models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.Equal(t, "Invalid video ID", body.Message)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/videos/12", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionCookies(t *testing.T) {
	tokens := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  "a",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "r",
		RefreshTTL:    7 * 24 * time.Hour,
	})

	for _, env := range []string{"development", "production"} {
		t.Run(env, func(t *testing.T) {
			s := &Server{config: &config.Config{Env: env}, tokens: tokens}
			app := fiber.New()
			app.Get("/set", func(c *fiber.Ctx) error {
				s.setSessionCookies(c, "access", "refresh")
				return c.SendStatus(fiber.StatusOK)
			})
			app.Get("/clear", func(c *fiber.Ctx) error {
				s.clearSessionCookies(c)
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil))
			require.NoError(t, err)
			refresh := findCookie(resp, refreshTokenCookie)
			require.NotNil(t, refresh)
			assert.Equal(t, "refresh", refresh.Value)
			assert.True(t, refresh.HttpOnly)
			assert.Equal(t, env == "production", refresh.Secure)
			assert.Equal(t, http.SameSiteLaxMode, refresh.SameSite)
			assert.Equal(t, 604800, refresh.MaxAge)
			assert.Equal(t, "/", refresh.Path)

			resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/clear", nil))
			require.NoError(t, err)
			cleared := findCookie(resp, refreshTokenCookie)
			require.NotNil(t, cleared)
			assert.Empty(t, cleared.Value)
			assert.True(t, cleared.Expires.Before(time.Now()))
		})
	}
}

func TestReadinessCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing()
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer func() { _ = rdb.Close() }()

		s := &Server{config: &config.Config{}, db: db, redis: rdb}
		app := fiber.New()
		app.Get("/health/ready", s.ReadinessCheck)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database down", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer func() { _ = rdb.Close() }()

		s := &Server{config: &config.Config{}, db: db, redis: rdb}
		app := fiber.New()
		app.Get("/health/ready", s.ReadinessCheck)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body struct {
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "unhealthy", body.Checks["database"])
		assert.Equal(t, "healthy", body.Checks["redis"])
	})

	t.Run("redis disabled", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing()

		s := &Server{config: &config.Config{}, db: db}
		app := fiber.New()
		app.Get("/health/ready", s.ReadinessCheck)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, "disabled", body.Checks["redis"])
	})
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/healthcheck", "/api/v1/healthcheck"} {
		resp, body := env.doJSON(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.True(t, body.Success)
	}

	resp, _ := env.doJSON(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.doJSON(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.doJSON(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusNotFound, body.StatusCode)
	assert.NotNil(t, body.Errors)
}

func TestHandleError_WrappedFiberError(t *testing.T) {
	var logs bytes.Buffer
	prev := middleware.Logger
	middleware.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	t.Cleanup(func() { middleware.Logger = prev })

	s := &Server{}
	app := fiber.New(fiber.Config{ErrorHandler: s.handleError})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fmt.Errorf("brew: %w", fiber.NewError(fiber.StatusTeapot, "short and stout"))
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("disk on fire")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.NotContains(t, logs.String(), "request failed")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, logs.String(), "request failed")
}
