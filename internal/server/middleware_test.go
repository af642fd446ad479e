package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidtube/internal/config"
	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frontendOrigin = "http://localhost:5173"

// middlewareApp is a bare app behind the global middleware stack with one
// route that always answers 200.
func middlewareApp(t *testing.T, method string) *fiber.App {
	t.Helper()
	srv := &Server{config: &config.Config{AllowedOrigins: frontendOrigin}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Add(method, "/probe", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func send(t *testing.T, app *fiber.App, method, origin string, header ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/probe", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// exhaustLimiter spends the per-IP budget of the global limiter.
func exhaustLimiter(t *testing.T, app *fiber.App, method string) {
	t.Helper()
	for i := 0; i < 100; i++ {
		require.Equal(t, fiber.StatusOK, send(t, app, method, frontendOrigin).StatusCode, "request %d", i)
	}
}

func TestSetupMiddleware_SecurityHeaders(t *testing.T) {
	resp := send(t, middlewareApp(t, http.MethodGet), http.MethodGet, "")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", fiber.HeaderXRequestID} {
		assert.NotEmpty(t, resp.Header.Get(h), h)
	}
}

func TestSetupMiddleware_RateLimitKeepsCORS(t *testing.T) {
	app := middlewareApp(t, http.MethodGet)
	exhaustLimiter(t, app, http.MethodGet)

	resp := send(t, app, http.MethodGet, frontendOrigin)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, frontendOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, fiber.StatusTooManyRequests, body.StatusCode)
}

func TestSetupMiddleware_PreflightSkipsLimiter(t *testing.T) {
	app := middlewareApp(t, http.MethodPost)
	exhaustLimiter(t, app, http.MethodPost)
	require.Equal(t, fiber.StatusTooManyRequests, send(t, app, http.MethodPost, frontendOrigin).StatusCode)

	resp := send(t, app, http.MethodOptions, frontendOrigin,
		"Access-Control-Request-Method", http.MethodPost,
		"Access-Control-Request-Headers", "authorization,content-type",
	)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, frontendOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestSetupMiddleware_ForeignOriginGetsNoCORS(t *testing.T) {
	resp := send(t, middlewareApp(t, http.MethodGet), http.MethodGet, "https://evil.example")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
