package service

import (
	"context"
	"strings"

	"vidtube/internal/auth"
	"vidtube/internal/models"
	"vidtube/internal/repository"
)

// CredentialStore owns password hashes and identity uniqueness.
type CredentialStore struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
}

// NewUser is the input for CredentialStore.Create. Password is plaintext.
type NewUser struct {
	Username      string
	Email         string
	FullName      string
	Password      string
	Avatar        string
	AvatarKey     string
	CoverImage    string
	CoverImageKey string
}

func NewCredentialStore(userRepo repository.UserRepository, hasher *auth.PasswordHasher) *CredentialStore {
	return &CredentialStore{userRepo: userRepo, hasher: hasher}
}

// EnsureAvailable fails with DuplicateIdentity when the username or email is taken.
func (s *CredentialStore) EnsureAvailable(ctx context.Context, username, email string) error {
	existing, err := s.userRepo.FindByLogin(ctx, models.NormalizeUsername(username), strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewDuplicateIdentityError("")
	}
	return nil
}

// Create hashes the password and inserts the user. A unique-index race after
// the availability check still surfaces as DuplicateIdentity.
func (s *CredentialStore) Create(ctx context.Context, in NewUser) (*models.User, error) {
	if err := s.EnsureAvailable(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:      models.NormalizeUsername(in.Username),
		Email:         strings.TrimSpace(in.Email),
		FullName:      strings.TrimSpace(in.FullName),
		Avatar:        in.Avatar,
		AvatarKey:     in.AvatarKey,
		CoverImage:    in.CoverImage,
		CoverImageKey: in.CoverImageKey,
		Password:      hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyPassword reports whether candidate matches the user's password. A nil
// user still pays for one bcrypt comparison.
func (s *CredentialStore) VerifyPassword(user *models.User, candidate string) bool {
	if user == nil {
		return s.hasher.Compare("", candidate)
	}
	return s.hasher.Compare(user.Password, candidate)
}

// UpdatePassword re-hashes and stores newPassword and ends every session by
// clearing the refresh token hash.
func (s *CredentialStore) UpdatePassword(ctx context.Context, user *models.User, newPassword string) error {
	if s.VerifyPassword(user, newPassword) {
		return models.NewSamePasswordError()
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password":           hashed,
		"refresh_token_hash": nil,
	}); err != nil {
		return err
	}
	user.Password = hashed
	user.RefreshTokenHash = nil
	return nil
}
