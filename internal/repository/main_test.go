package repository

import (
	"fmt"
	"testing"

	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB returns a migrated in-memory SQLite database. A single
// connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), &config.Config{DBMaxOpenConns: 1, DBMaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		FullName: username + " tester",
		Avatar:   "https://cdn.example.com/" + username + ".png",
		Password: "hashed",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createVideo(t *testing.T, db *gorm.DB, owner *models.User, title string, published bool, views int64) *models.Video {
	t.Helper()
	v := &models.Video{
		VideoFile:   "https://cdn.example.com/" + title + ".mp4",
		Title:       title,
		Description: "about " + title,
		OwnerID:     owner.ID,
		IsPublished: true,
		Views:       views,
	}
	require.NoError(t, db.Create(v).Error)
	if !published {
		require.NoError(t, db.Model(v).Update("is_published", false).Error)
	}
	return v
}

func subscribe(t *testing.T, db *gorm.DB, subscriber, channel *models.User) {
	t.Helper()
	require.NoError(t, db.Create(&models.Subscription{SubscriberID: subscriber.ID, ChannelID: channel.ID}).Error)
}
