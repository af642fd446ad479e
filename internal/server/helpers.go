package server

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const refreshTokenCookie = "refreshToken"

// Pagination holds parsed page/limit query parameters.
type Pagination struct {
	Page  int
	Limit int
}

// parsePagination extracts page and limit query parameters, clamped to the
// repository bounds.
func parsePagination(c *fiber.Ctx) Pagination {
	page, limit := repository.ClampPage(c.QueryInt("page", 1), c.QueryInt("limit", 10))
	return Pagination{Page: page, Limit: limit}
}

// parseID extracts a route parameter by name as a positive uint.
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "videoId" -> "Invalid video ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + humanizeParam(param))
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "videoId" -> "video ID", "subscriberId" -> "subscriber ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parseBody decodes a JSON, urlencoded or multipart body into dst.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

func (s *Server) sessionCookie(name, value string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// setSessionCookies stores both tokens as HttpOnly cookies.
func (s *Server) setSessionCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(s.sessionCookie(middleware.AccessTokenCookie, accessToken, s.tokens.AccessTTL()))
	c.Cookie(s.sessionCookie(refreshTokenCookie, refreshToken, s.tokens.RefreshTTL()))
}

// clearSessionCookies expires both session cookies.
func (s *Server) clearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		cookie := s.sessionCookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.Cookie(cookie)
	}
}

// saveUpload writes the multipart file under field to the upload temp dir and
// returns its path, or "" when the request carries no such file. kind is the
// required MIME major type ("image", "video") or "" for any.
func (s *Server) saveUpload(c *fiber.Ctx, field, kind string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return "", nil
	}
	if kind != "" && !strings.HasPrefix(fh.Header.Get(fiber.HeaderContentType), kind+"/") {
		return "", models.NewValidationError(fmt.Sprintf("%s must be a valid %s file", field, kind))
	}

	dir := s.config.UploadTmpDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	path := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveFile(fh, path); err != nil {
		return "", models.NewInternalError(err)
	}
	return path, nil
}

// removeTemp deletes temp files a handler saved but a service never consumed.
func removeTemp(c *fiber.Ctx, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			middleware.Logger.WarnContext(c.UserContext(), "failed to remove temp upload",
				slog.String("path", p),
				slog.String("error", err.Error()),
			)
		}
	}
}
