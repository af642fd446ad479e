// Package service holds the application's business rules. Handlers call
// services; services call repositories and return *models.AppError values.
package service

import (
	"context"
	"fmt"
	"time"

	"vidtube/internal/media"
	"vidtube/internal/models"
	"vidtube/internal/notifications"
)

// MediaPublisher uploads request files to media storage.
type MediaPublisher interface {
	Publish(ctx context.Context, localPath, folder string) (media.Asset, error)
	Discard(ctx context.Context, key string)
}

// TokenRevoker blacklists an access token id until it would have expired.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// ActivityNotifier delivers activity events. Delivery is best effort.
type ActivityNotifier interface {
	NotifyUser(ctx context.Context, userID uint, e notifications.Event)
	NotifyFollowers(ctx context.Context, channelID uint, e notifications.Event)
}

// ViewRecorder appends a video to a user's watch history.
type ViewRecorder interface {
	RecordView(ctx context.Context, userID, videoID uint) error
}

func requireOwner(resource models.Owned, callerID uint, action string) error {
	if resource.OwnedBy() != callerID {
		return models.NewForbiddenError(fmt.Sprintf("You are not allowed to %s this resource", action))
	}
	return nil
}

const maxContentLen = 10000

func validateContent(content string) error {
	if content == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 10000 characters)")
	}
	return nil
}
