// Package media uploads user-supplied files to the configured media host.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"vidtube/internal/config"
	"vidtube/internal/middleware"
	"vidtube/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Folders group uploads by purpose.
const (
	FolderAvatars     = "avatars"
	FolderCovers      = "covers"
	FolderVideos      = "videos"
	FolderThumbnails  = "thumbnails"
	defaultUploadWait = 60 * time.Second
)

// ErrEmptyPath is returned when no local file was given.
var ErrEmptyPath = errors.New("media: empty local path")

// Asset is a stored file: URL is public, Key identifies it for deletion.
type Asset struct {
	URL string
	Key string
}

// Uploader stores a local file under folder and returns where it lives.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder string) (Asset, error)
	Delete(ctx context.Context, key string) error
}

// NewUploader builds the uploader selected by MEDIA_DRIVER.
func NewUploader(ctx context.Context, cfg *config.Config) (Uploader, error) {
	switch cfg.MediaDriver {
	case "s3":
		return NewS3Uploader(ctx, S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.MediaPublicBaseURL,
		})
	case "local", "":
		return NewLocalUploader(cfg.MediaLocalDir, cfg.MediaPublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported MEDIA_DRIVER %q", cfg.MediaDriver)
	}
}

// Publisher wraps an Uploader with a deadline, metrics and temp-file cleanup.
type Publisher struct {
	uploader Uploader
	timeout  time.Duration
}

// NewPublisher returns a Publisher. A non-positive timeout uses 60s.
func NewPublisher(uploader Uploader, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = defaultUploadWait
	}
	return &Publisher{uploader: uploader, timeout: timeout}
}

// Publish uploads localPath and always removes it afterwards. A failed
// removal is logged and does not fail the upload.
func (p *Publisher) Publish(ctx context.Context, localPath, folder string) (Asset, error) {
	defer removeTemp(ctx, localPath)

	if strings.TrimSpace(localPath) == "" {
		return Asset{}, ErrEmptyPath
	}

	ctx, span := observability.StartClientSpan(ctx, "media.Publish", attribute.String("media.folder", folder))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	asset, err := p.uploader.Upload(ctx, localPath, folder)
	observability.RecordUpload(err)
	if err != nil {
		span.Fail(err)
		return Asset{}, err
	}
	return asset, nil
}

// Discard deletes a previously published asset. Failures are logged only.
func (p *Publisher) Discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.uploader.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete media asset",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}

func removeTemp(ctx context.Context, localPath string) {
	if localPath == "" {
		return
	}
	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		middleware.Logger.WarnContext(ctx, "failed to remove temp upload",
			slog.String("path", localPath), slog.String("error", err.Error()))
	}
}

// objectKey builds "<folder>/<uuid><ext>" so uploads never collide.
func objectKey(folder, localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)
}
