package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vidtube/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLocalUploader(t *testing.T) {
	root := t.TempDir()
	up, err := NewLocalUploader(root, "https://cdn.test/static/")
	require.NoError(t, err)

	src := writeTemp(t, "Avatar.PNG", "png-bytes")
	asset, err := up.Upload(context.Background(), src, FolderAvatars)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.Key, "avatars/"))
	assert.True(t, strings.HasSuffix(asset.Key, ".png"))
	assert.Equal(t, "https://cdn.test/static/"+asset.Key, asset.URL)

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(asset.Key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(stored))

	require.NoError(t, up.Delete(context.Background(), asset.Key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(asset.Key)))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, up.Delete(context.Background(), asset.Key))
}

func TestLocalUploaderMissingFile(t *testing.T) {
	up, err := NewLocalUploader(t.TempDir(), "")
	require.NoError(t, err)

	_, err = up.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), FolderVideos)
	assert.Error(t, err)
	_, err = up.Upload(context.Background(), "", FolderVideos)
	assert.ErrorIs(t, err, ErrEmptyPath)
}

type failingUploader struct {
	err     error
	deleted []string
}

func (f *failingUploader) Upload(ctx context.Context, _, _ string) (Asset, error) {
	if f.err != nil {
		return Asset{}, f.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return Asset{}, errors.New("expected a deadline")
	}
	return Asset{URL: "https://cdn/x", Key: "x"}, nil
}

func (f *failingUploader) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return errors.New("host down")
}

func TestPublisherRemovesTempFile(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "success"},
		{name: "failure", err: errors.New("host down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeTemp(t, "clip.mp4", "data")
			p := NewPublisher(&failingUploader{err: tt.err}, time.Second)

			asset, err := p.Publish(context.Background(), src, FolderVideos)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "x", asset.Key)
			}
			_, statErr := os.Stat(src)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestPublisherDiscardLogsFailures(t *testing.T) {
	up := &failingUploader{}
	p := NewPublisher(up, 0)
	p.Discard(context.Background(), "")
	p.Discard(context.Background(), "old-key")
	assert.Equal(t, []string{"old-key"}, up.deleted)
}

func TestNewUploader(t *testing.T) {
	up, err := NewUploader(context.Background(), &config.Config{MediaDriver: "local", MediaLocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalUploader{}, up)

	_, err = NewUploader(context.Background(), &config.Config{MediaDriver: "ftp"})
	assert.Error(t, err)

	_, err = NewUploader(context.Background(), &config.Config{MediaDriver: "s3"})
	assert.Error(t, err)
}
