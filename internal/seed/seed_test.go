package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vidtube/internal/auth"
	"vidtube/internal/database"
	"vidtube/internal/models"
	"vidtube/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSeeder_Run(t *testing.T) {
	db := openDB(t)
	opts := Options{
		Users:            4,
		VideosPerUser:    3,
		CommentsPerVideo: 2,
		TweetsPerUser:    2,
		LikeRatio:        1,
		SubscribeRatio:   1,
		BcryptCost:       bcrypt.MinCost,
		RandSeed:         42,
	}

	summary, err := NewSeeder(db).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Users)
	assert.Equal(t, 12, summary.Videos)
	assert.Equal(t, 24, summary.Comments)
	assert.Equal(t, 8, summary.Tweets)
	assert.Equal(t, 12, summary.Subscriptions, "everyone follows everyone else")

	assert.Equal(t, int64(4), count(t, db, &models.User{}))
	assert.Equal(t, int64(12), count(t, db, &models.Video{}))
	assert.Equal(t, int64(24), count(t, db, &models.Comment{}))
	assert.Equal(t, int64(8), count(t, db, &models.Tweet{}))
	assert.Equal(t, int64(summary.Likes), count(t, db, &models.Like{}))

	var videoLikes int64
	require.NoError(t, db.Model(&models.Like{}).Where("video_id IS NOT NULL").Count(&videoLikes).Error)
	assert.Equal(t, int64(4*3*3), videoLikes, "each user likes every other channel's videos")

	var selfSubs int64
	require.NoError(t, db.Model(&models.Subscription{}).Where("subscriber_id = channel_id").Count(&selfSubs).Error)
	assert.Zero(t, selfSubs)

	var selfLikes int64
	require.NoError(t, db.Model(&models.Like{}).
		Joins("JOIN videos ON videos.id = likes.video_id").
		Where("videos.owner_id = likes.liked_by_id").
		Count(&selfLikes).Error)
	assert.Zero(t, selfLikes)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.True(t, hasher.Compare(u.Password, DefaultPassword))
	}
}

func TestSeeder_DraftsStayUnpublished(t *testing.T) {
	db := openDB(t)
	summary, err := NewSeeder(db).Run(context.Background(), Options{
		Users:         2,
		VideosPerUser: 100,
		BcryptCost:    bcrypt.MinCost,
		RandSeed:      7,
	})
	require.NoError(t, err)
	require.Equal(t, 200, summary.Videos)

	var drafts int64
	require.NoError(t, db.Model(&models.Video{}).Where("is_published = ?", false).Count(&drafts).Error)
	assert.Positive(t, drafts)
	assert.Less(t, drafts, int64(200))
}

func TestSeeder_RequiresUsers(t *testing.T) {
	db := openDB(t)
	_, err := NewSeeder(db).Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestSeeder_ClearAll(t *testing.T) {
	db := openDB(t)
	s := NewSeeder(db)
	_, err := s.Run(context.Background(), Options{
		Users:            3,
		VideosPerUser:    1,
		CommentsPerVideo: 1,
		TweetsPerUser:    1,
		LikeRatio:        1,
		SubscribeRatio:   1,
		BcryptCost:       bcrypt.MinCost,
		RandSeed:         1,
	})
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(context.Background()))
	for _, model := range []any{&models.User{}, &models.Video{}, &models.Comment{}, &models.Tweet{}, &models.Like{}, &models.Subscription{}} {
		assert.Zero(t, count(t, db, model))
	}
}

func TestFactory_CreateSubscriptionRejectsSelf(t *testing.T) {
	db := openDB(t)
	f, err := NewFactory(db, Options{BcryptCost: bcrypt.MinCost, RandSeed: 3})
	require.NoError(t, err)

	u, err := f.CreateUser()
	require.NoError(t, err)
	other, err := f.CreateUser()
	require.NoError(t, err)

	assert.Error(t, f.CreateSubscription(u, u))
	require.NoError(t, f.CreateSubscription(u, other))

	video := f.BuildVideo(other)
	require.NoError(t, f.CreateVideosBatch([]*models.Video{video}))
	comment, err := f.CreateComment(u, video)
	require.NoError(t, err)
	require.NoError(t, f.CreateLike(other, models.LikeTargetComment, comment.ID))
	assert.Equal(t, int64(1), count(t, db, &models.Like{}))
}

func TestLoadPresets(t *testing.T) {
	presets, err := LoadPresets("")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo", "minimal", "populated"}, PresetNames(presets))

	opts, err := ApplyPreset(presets, "Minimal", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, opts.Users)
	assert.Equal(t, 2, opts.VideosPerUser)

	_, err = ApplyPreset(presets, "nope", DefaultOptions())
	assert.Error(t, err)
}

func TestLoadPresets_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yml")
	require.NoError(t, os.WriteFile(path, []byte("demo:\n  users: 2\nsolo:\n  users: 1\n  videos_per_user: 1\n"), 0o600))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, 2, presets["demo"].Users)
	assert.Equal(t, 1, presets["solo"].VideosPerUser)

	opts := presets["demo"].Apply(DefaultOptions())
	assert.Equal(t, 2, opts.Users)
	assert.Equal(t, 6, opts.VideosPerUser, "zero preset fields keep the base value")
}

func TestParsePresets_Invalid(t *testing.T) {
	_, err := ParsePresets([]byte("bad:\n  users: -1\n"))
	assert.Error(t, err)
	_, err = ParsePresets([]byte("bad:\n  like_ratio: 1.5\n"))
	assert.Error(t, err)
	_, err = ParsePresets([]byte("[not a map"))
	assert.Error(t, err)
}
