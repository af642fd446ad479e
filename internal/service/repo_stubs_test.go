package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vidtube/internal/media"
	"vidtube/internal/models"
	"vidtube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn              func(context.Context, uint) (*models.User, error)
	getProfileFn           func(context.Context, uint) (*models.User, error)
	getByEmailFn           func(context.Context, string) (*models.User, error)
	getByUsernameFn        func(context.Context, string) (*models.User, error)
	findByLoginFn          func(context.Context, string, string) (*models.User, error)
	createFn               func(context.Context, *models.User) error
	updateFieldsFn         func(context.Context, uint, map[string]interface{}) error
	setRefreshTokenHashFn  func(context.Context, uint, *string) error
	swapRefreshTokenHashFn func(context.Context, uint, string, string) error
	channelProfileFn       func(context.Context, string, uint) (*models.ChannelProfile, error)
	watchHistoryFn         func(context.Context, uint) ([]models.Video, error)
	appendWatchHistoryFn   func(context.Context, uint, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.getProfileFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) FindByLogin(ctx context.Context, username, email string) (*models.User, error) {
	return s.findByLoginFn(ctx, username, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *userRepoStub) SetRefreshTokenHash(ctx context.Context, id uint, hash *string) error {
	return s.setRefreshTokenHashFn(ctx, id, hash)
}
func (s *userRepoStub) SwapRefreshTokenHash(ctx context.Context, id uint, old, next string) error {
	return s.swapRefreshTokenHashFn(ctx, id, old, next)
}
func (s *userRepoStub) ChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	return s.channelProfileFn(ctx, username, viewerID)
}
func (s *userRepoStub) WatchHistory(ctx context.Context, userID uint) ([]models.Video, error) {
	return s.watchHistoryFn(ctx, userID)
}
func (s *userRepoStub) AppendWatchHistory(ctx context.Context, userID, videoID uint) error {
	return s.appendWatchHistoryFn(ctx, userID, videoID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:              func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getProfileFn:           func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:           func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn:        func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		findByLoginFn:          func(_ context.Context, _, _ string) (*models.User, error) { return nil, nil },
		createFn:               func(_ context.Context, _ *models.User) error { return nil },
		updateFieldsFn:         func(_ context.Context, _ uint, _ map[string]interface{}) error { return nil },
		setRefreshTokenHashFn:  func(_ context.Context, _ uint, _ *string) error { return nil },
		swapRefreshTokenHashFn: func(_ context.Context, _ uint, _, _ string) error { return nil },
		channelProfileFn: func(_ context.Context, username string, _ uint) (*models.ChannelProfile, error) {
			return &models.ChannelProfile{Username: username}, nil
		},
		watchHistoryFn:       func(_ context.Context, _ uint) ([]models.Video, error) { return nil, nil },
		appendWatchHistoryFn: func(_ context.Context, _, _ uint) error { return nil },
	}
}

// memoryUsers backs a userRepoStub with a map so session flows can run end to end.
type memoryUsers struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.User
}

func newMemoryUserRepo() (*userRepoStub, *memoryUsers) {
	m := &memoryUsers{nextID: 1, byID: map[uint]*models.User{}}
	find := func(match func(*models.User) bool) *models.User {
		for _, u := range m.byID {
			if match(u) {
				cp := *u
				return &cp
			}
		}
		return nil
	}

	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		u, ok := m.byID[id]
		if !ok {
			return nil, models.NewNotFoundError("User", id)
		}
		cp := *u
		return &cp, nil
	}
	repo.getProfileFn = func(ctx context.Context, id uint) (*models.User, error) {
		u, err := repo.getByIDFn(ctx, id)
		if err != nil {
			return nil, err
		}
		u.Password, u.RefreshTokenHash = "", nil
		return u, nil
	}
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return find(func(u *models.User) bool { return u.Email == email }), nil
	}
	repo.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return find(func(u *models.User) bool { return u.Username == models.NormalizeUsername(username) }), nil
	}
	repo.findByLoginFn = func(_ context.Context, username, email string) (*models.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return find(func(u *models.User) bool {
			return (username != "" && u.Username == username) || (email != "" && u.Email == email)
		}), nil
	}
	repo.createFn = func(_ context.Context, user *models.User) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		user.ID = m.nextID
		m.nextID++
		cp := *user
		m.byID[user.ID] = &cp
		return nil
	}
	repo.updateFieldsFn = func(_ context.Context, id uint, fields map[string]interface{}) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		u, ok := m.byID[id]
		if !ok {
			return models.NewNotFoundError("User", id)
		}
		for k, v := range fields {
			switch k {
			case "password":
				u.Password = v.(string)
			case "refresh_token_hash":
				u.RefreshTokenHash = nil
			case "full_name":
				u.FullName = v.(string)
			case "email":
				u.Email = v.(string)
			case "avatar":
				u.Avatar = v.(string)
			case "avatar_key":
				u.AvatarKey = v.(string)
			case "cover_image":
				u.CoverImage = v.(string)
			case "cover_image_key":
				u.CoverImageKey = v.(string)
			}
		}
		return nil
	}
	repo.setRefreshTokenHashFn = func(_ context.Context, id uint, hash *string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		u, ok := m.byID[id]
		if !ok {
			return models.NewNotFoundError("User", id)
		}
		if hash == nil {
			u.RefreshTokenHash = nil
			return nil
		}
		h := *hash
		u.RefreshTokenHash = &h
		return nil
	}
	repo.swapRefreshTokenHashFn = func(_ context.Context, id uint, old, next string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		u, ok := m.byID[id]
		if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != old {
			return models.NewUnauthenticatedError("Refresh token is expired or used")
		}
		u.RefreshTokenHash = &next
		return nil
	}
	return repo, m
}

func (m *memoryUsers) get(id uint) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

// videoRepoStub is a stub for repository.VideoRepository.
type videoRepoStub struct {
	createFn  func(context.Context, *models.Video) error
	getByIDFn func(context.Context, uint) (*models.Video, error)
	listFn    func(context.Context, repository.VideoQuery) ([]models.Video, int64, error)
	updateFn  func(context.Context, *models.Video) error
	deleteFn  func(context.Context, uint) error
}

func (s *videoRepoStub) Create(ctx context.Context, video *models.Video) error {
	return s.createFn(ctx, video)
}
func (s *videoRepoStub) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	return s.getByIDFn(ctx, id)
}
func (s *videoRepoStub) List(ctx context.Context, q repository.VideoQuery) ([]models.Video, int64, error) {
	return s.listFn(ctx, q)
}
func (s *videoRepoStub) Update(ctx context.Context, video *models.Video) error {
	return s.updateFn(ctx, video)
}
func (s *videoRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopVideoRepo() *videoRepoStub {
	return &videoRepoStub{
		createFn: func(_ context.Context, _ *models.Video) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Video, error) {
			return &models.Video{ID: id, IsPublished: true}, nil
		},
		listFn:   func(_ context.Context, _ repository.VideoQuery) ([]models.Video, int64, error) { return nil, 0, nil },
		updateFn: func(_ context.Context, _ *models.Video) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	getByIDFn     func(context.Context, uint) (*models.Comment, error)
	listByVideoFn func(context.Context, uint, int, int) ([]models.Comment, int64, error)
	updateFn      func(context.Context, *models.Comment) error
	deleteFn      func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByVideo(ctx context.Context, videoID uint, page, limit int) ([]models.Comment, int64, error) {
	return s.listByVideoFn(ctx, videoID, page, limit)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByVideoFn: func(_ context.Context, _ uint, _, _ int) ([]models.Comment, int64, error) {
			return nil, 0, nil
		},
		updateFn: func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// tweetRepoStub is a stub for repository.TweetRepository.
type tweetRepoStub struct {
	createFn      func(context.Context, *models.Tweet) error
	getByIDFn     func(context.Context, uint) (*models.Tweet, error)
	listByOwnerFn func(context.Context, uint) ([]models.Tweet, error)
	updateFn      func(context.Context, *models.Tweet) error
	deleteFn      func(context.Context, uint) error
}

func (s *tweetRepoStub) Create(ctx context.Context, tweet *models.Tweet) error {
	return s.createFn(ctx, tweet)
}
func (s *tweetRepoStub) GetByID(ctx context.Context, id uint) (*models.Tweet, error) {
	return s.getByIDFn(ctx, id)
}
func (s *tweetRepoStub) ListByOwner(ctx context.Context, ownerID uint) ([]models.Tweet, error) {
	return s.listByOwnerFn(ctx, ownerID)
}
func (s *tweetRepoStub) Update(ctx context.Context, tweet *models.Tweet) error {
	return s.updateFn(ctx, tweet)
}
func (s *tweetRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopTweetRepo() *tweetRepoStub {
	return &tweetRepoStub{
		createFn:      func(_ context.Context, _ *models.Tweet) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Tweet, error) { return &models.Tweet{ID: id}, nil },
		listByOwnerFn: func(_ context.Context, _ uint) ([]models.Tweet, error) { return []models.Tweet{}, nil },
		updateFn:      func(_ context.Context, _ *models.Tweet) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	findFn        func(context.Context, uint, models.LikeTarget, uint) (*models.Like, error)
	createFn      func(context.Context, *models.Like) (bool, error)
	deleteFn      func(context.Context, uint) error
	likedVideosFn func(context.Context, uint) ([]models.Video, error)
}

func (s *likeRepoStub) Find(ctx context.Context, userID uint, target models.LikeTarget, targetID uint) (*models.Like, error) {
	return s.findFn(ctx, userID, target, targetID)
}
func (s *likeRepoStub) Create(ctx context.Context, like *models.Like) (bool, error) {
	return s.createFn(ctx, like)
}
func (s *likeRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *likeRepoStub) LikedVideos(ctx context.Context, userID uint) ([]models.Video, error) {
	return s.likedVideosFn(ctx, userID)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		findFn: func(_ context.Context, _ uint, _ models.LikeTarget, _ uint) (*models.Like, error) {
			return nil, nil
		},
		createFn:      func(_ context.Context, _ *models.Like) (bool, error) { return true, nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
		likedVideosFn: func(_ context.Context, _ uint) ([]models.Video, error) { return nil, nil },
	}
}

// subscriptionRepoStub is a stub for repository.SubscriptionRepository.
type subscriptionRepoStub struct {
	findFn               func(context.Context, uint, uint) (*models.Subscription, error)
	createFn             func(context.Context, *models.Subscription) (bool, error)
	deleteFn             func(context.Context, uint) error
	subscribersFn        func(context.Context, uint) ([]models.Owner, error)
	subscribedChannelsFn func(context.Context, uint) ([]models.Owner, error)
}

func (s *subscriptionRepoStub) Find(ctx context.Context, subscriberID, channelID uint) (*models.Subscription, error) {
	return s.findFn(ctx, subscriberID, channelID)
}
func (s *subscriptionRepoStub) Create(ctx context.Context, sub *models.Subscription) (bool, error) {
	return s.createFn(ctx, sub)
}
func (s *subscriptionRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *subscriptionRepoStub) Subscribers(ctx context.Context, channelID uint) ([]models.Owner, error) {
	return s.subscribersFn(ctx, channelID)
}
func (s *subscriptionRepoStub) SubscribedChannels(ctx context.Context, subscriberID uint) ([]models.Owner, error) {
	return s.subscribedChannelsFn(ctx, subscriberID)
}

func noopSubscriptionRepo() *subscriptionRepoStub {
	return &subscriptionRepoStub{
		findFn:               func(_ context.Context, _, _ uint) (*models.Subscription, error) { return nil, nil },
		createFn:             func(_ context.Context, _ *models.Subscription) (bool, error) { return true, nil },
		deleteFn:             func(_ context.Context, _ uint) error { return nil },
		subscribersFn:        func(_ context.Context, _ uint) ([]models.Owner, error) { return []models.Owner{}, nil },
		subscribedChannelsFn: func(_ context.Context, _ uint) ([]models.Owner, error) { return []models.Owner{}, nil },
	}
}

// fakePublisher records uploads instead of storing them.
type fakePublisher struct {
	mu        sync.Mutex
	published []string
	discarded []string
	failOn    string
}

func (p *fakePublisher) Publish(_ context.Context, localPath, folder string) (media.Asset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn != "" && p.failOn == folder {
		return media.Asset{}, errors.New("storage unavailable")
	}
	key := folder + "/" + localPath
	p.published = append(p.published, key)
	return media.Asset{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (p *fakePublisher) Discard(_ context.Context, key string) {
	if key == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discarded = append(p.discarded, key)
}

// fakeRevoker records revoked token ids.
type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (r *fakeRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked == nil {
		r.revoked = map[string]time.Duration{}
	}
	r.revoked[jti] = ttl
	return nil
}

// assertAppErrorCode asserts that err is an AppError with the given code.
func assertAppErrorCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}
