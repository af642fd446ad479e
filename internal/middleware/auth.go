// Package middleware provides the Fiber middleware chain: authentication,
// logging, metrics, tracing and rate limiting.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"vidtube/internal/auth"
	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the guard.
const (
	LocalUser   = "user"
	LocalUserID = "userID"
	LocalClaims = "claims"

	// AccessTokenCookie is read when no Authorization header is present.
	AccessTokenCookie = "accessToken"
)

// TokenVerifier verifies signed access tokens.
type TokenVerifier interface {
	Verify(token string, kind auth.TokenKind) (*auth.Claims, error)
}

// UserLoader loads the sanitized user a token refers to.
type UserLoader interface {
	GetProfile(ctx context.Context, id uint) (*models.User, error)
}

// RevocationChecker reports whether a token id was revoked at logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Guard resolves the caller from an access token.
type Guard struct {
	tokens  TokenVerifier
	users   UserLoader
	revoked RevocationChecker
}

// NewGuard creates a Guard. revoked may be nil when no blacklist is available.
func NewGuard(tokens TokenVerifier, users UserLoader, revoked RevocationChecker) *Guard {
	return &Guard{tokens: tokens, users: users, revoked: revoked}
}

// AuthRequired rejects the request with Unauthenticated unless a valid,
// unrevoked access token for an existing user is presented.
func (g *Guard) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := g.authenticate(c); err != nil {
			return err
		}
		return c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (g *Guard) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if extractToken(c) == "" {
			return c.Next()
		}
		if err := g.authenticate(c); err != nil {
			Logger.DebugContext(c.UserContext(), "optional auth ignored token", slog.String("error", err.Error()))
		}
		return c.Next()
	}
}

func (g *Guard) authenticate(c *fiber.Ctx) error {
	ctx := c.UserContext()

	token := extractToken(c)
	if token == "" {
		return models.NewUnauthenticatedError("Unauthorized request")
	}

	claims, err := g.tokens.Verify(token, auth.KindAccess)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			Logger.DebugContext(ctx, "access token expired", slog.String("path", c.Path()))
			return models.NewUnauthenticatedError("Access token expired")
		}
		Logger.WarnContext(ctx, "invalid access token", slog.String("path", c.Path()), slog.String("ip", c.IP()))
		return models.NewUnauthenticatedError("Invalid access token")
	}

	if g.revoked != nil && claims.ID != "" {
		revoked, err := g.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		} else if revoked {
			return models.NewUnauthenticatedError("Token has been revoked")
		}
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.NewUnauthenticatedError("Invalid access token")
	}

	user, err := g.users.GetProfile(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewUnauthenticatedError("Invalid access token")
		}
		return err
	}

	c.Locals(LocalUser, user)
	c.Locals(LocalUserID, user.ID)
	c.Locals(LocalClaims, claims)
	c.SetUserContext(context.WithValue(ctx, UserIDKey, user.ID))
	return nil
}

func extractToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(AccessTokenCookie)
}

// CurrentUser returns the user stored by the guard, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}

// CurrentUserID returns the caller's id, or 0 for anonymous requests.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// CurrentClaims returns the verified access token claims, or nil.
func CurrentClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(LocalClaims).(*auth.Claims)
	return claims
}
