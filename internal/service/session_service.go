package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vidtube/internal/auth"
	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/observability"
	"vidtube/internal/repository"
	"vidtube/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// SessionService registers users and issues, rotates and revokes their tokens.
type SessionService struct {
	creds    *CredentialStore
	userRepo repository.UserRepository
	tokens   *auth.TokenService
	media    MediaPublisher
	revoker  TokenRevoker
}

// AuthResult is returned by every operation that starts a session.
type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

type LoginInput struct {
	Email    string
	Username string
	Password string
}

type ChangePasswordInput struct {
	UserID      uint
	OldPassword string
	NewPassword string
}

// NewSessionService wires a SessionService. revoker may be nil, in which case
// logout only clears the refresh token.
func NewSessionService(
	creds *CredentialStore,
	userRepo repository.UserRepository,
	tokens *auth.TokenService,
	publisher MediaPublisher,
	revoker TokenRevoker,
) *SessionService {
	return &SessionService{
		creds:    creds,
		userRepo: userRepo,
		tokens:   tokens,
		media:    publisher,
		revoker:  revoker,
	}
}

func (s *SessionService) Register(ctx context.Context, in RegisterInput) (result *AuthResult, err error) {
	defer func() { observability.RecordAuthEvent("register", err) }()

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = models.NormalizeUsername(in.Username)

	if in.FullName == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, models.NewValidationError("All fields are required")
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.AvatarPath == "" {
		return nil, models.NewValidationError("Avatar file is required")
	}
	if err := s.creds.EnsureAvailable(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	avatar, err := s.media.Publish(ctx, in.AvatarPath, media.FolderAvatars)
	if err != nil {
		return nil, models.NewUploadFailedError("avatar", err)
	}
	var cover media.Asset
	if in.CoverImagePath != "" {
		cover, err = s.media.Publish(ctx, in.CoverImagePath, media.FolderCovers)
		if err != nil {
			s.media.Discard(ctx, avatar.Key)
			return nil, models.NewUploadFailedError("cover image", err)
		}
	}

	user, err := s.creds.Create(ctx, NewUser{
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		Password:      in.Password,
		Avatar:        avatar.URL,
		AvatarKey:     avatar.Key,
		CoverImage:    cover.URL,
		CoverImageKey: cover.Key,
	})
	if err != nil {
		s.media.Discard(ctx, avatar.Key)
		s.media.Discard(ctx, cover.Key)
		return nil, err
	}

	return s.startSession(ctx, user, "")
}

// Login authenticates by email when one is given, by username otherwise.
// Unknown accounts and wrong passwords fail identically.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (result *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, "session.Login")
	defer span.End()
	defer func() {
		observability.RecordAuthEvent("login", err)
		span.Fail(err)
	}()

	in.Email = strings.TrimSpace(in.Email)
	in.Username = models.NormalizeUsername(in.Username)
	if in.Email == "" && in.Username == "" {
		return nil, models.NewValidationError("Username or email is required")
	}
	if in.Password == "" {
		return nil, models.NewValidationError("Password is required")
	}

	var user *models.User
	if in.Email != "" {
		user, err = s.userRepo.GetByEmail(ctx, in.Email)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, in.Username)
	}
	if err != nil {
		return nil, err
	}

	if !s.creds.VerifyPassword(user, in.Password) || user == nil {
		return nil, models.NewInvalidCredentialsError()
	}

	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))
	return s.startSession(ctx, user, "")
}

// Refresh exchanges a refresh token for a new token pair. The presented token
// must match the stored hash; on success it is replaced, so each refresh
// token works once.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (result *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, "session.Refresh")
	defer span.End()
	defer func() {
		observability.RecordAuthEvent("refresh", err)
		span.Fail(err)
	}()

	if refreshToken == "" {
		return nil, models.NewUnauthenticatedError("Unauthorized request")
	}

	claims, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		logTokenFailure(ctx, "refresh token rejected", err)
		return nil, models.NewUnauthenticatedError("Invalid refresh token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, models.NewUnauthenticatedError("Invalid refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthenticatedError("Invalid refresh token")
		}
		return nil, err
	}
	if !auth.RefreshTokenMatches(user.RefreshTokenHash, refreshToken) {
		return nil, models.NewUnauthenticatedError("Refresh token is expired or used")
	}

	return s.startSession(ctx, user, *user.RefreshTokenHash)
}

// Logout clears the stored refresh token and blacklists the access token the
// caller presented. Both steps are idempotent.
func (s *SessionService) Logout(ctx context.Context, userID uint, claims *auth.Claims) (err error) {
	defer func() { observability.RecordAuthEvent("logout", err) }()

	if err := s.userRepo.SetRefreshTokenHash(ctx, userID, nil); err != nil && !models.IsCode(err, models.CodeNotFound) {
		return err
	}

	if s.revoker == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to blacklist access token",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// ChangePassword requires the current password and rejects reusing it.
// Existing refresh tokens stop working.
func (s *SessionService) ChangePassword(ctx context.Context, in ChangePasswordInput) (err error) {
	defer func() { observability.RecordAuthEvent("change_password", err) }()

	if in.OldPassword == "" || in.NewPassword == "" {
		return models.NewValidationError("Old and new passwords are required")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return err
	}
	if !s.creds.VerifyPassword(user, in.OldPassword) {
		return models.NewInvalidCredentialsError()
	}
	return s.creds.UpdatePassword(ctx, user, in.NewPassword)
}

// startSession issues both tokens and stores the refresh token's hash. With a
// non-empty previous hash the store is a compare-and-swap, so a rotated token
// can be redeemed once even under concurrent refreshes.
func (s *SessionService) startSession(ctx context.Context, user *models.User, previous string) (*AuthResult, error) {
	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, models.NewSigningError(err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, models.NewSigningError(err)
	}

	hash, err := auth.HashRefreshToken(refresh)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if previous != "" {
		err = s.userRepo.SwapRefreshTokenHash(ctx, user.ID, previous, hash)
	} else {
		err = s.userRepo.SetRefreshTokenHash(ctx, user.ID, &hash)
	}
	if err != nil {
		return nil, err
	}

	safe := *user
	safe.Password = ""
	safe.RefreshTokenHash = nil
	return &AuthResult{User: &safe, AccessToken: access, RefreshToken: refresh}, nil
}

func logTokenFailure(ctx context.Context, msg string, err error) {
	if errors.Is(err, auth.ErrTokenExpired) {
		middleware.Logger.DebugContext(ctx, msg, slog.String("reason", err.Error()))
		return
	}
	middleware.Logger.WarnContext(ctx, msg, slog.String("reason", err.Error()))
}
