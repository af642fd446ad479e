package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader copies media into a directory served as static files. It
// backs development setups without an object store.
type LocalUploader struct {
	root    string
	baseURL string
}

// NewLocalUploader creates root if needed. baseURL prefixes returned URLs.
func NewLocalUploader(root, baseURL string) (*LocalUploader, error) {
	if strings.TrimSpace(root) == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local media: create %s: %w", root, err)
	}
	if baseURL == "" {
		baseURL = "/static"
	}
	return &LocalUploader{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root is the directory files are written to.
func (l *LocalUploader) Root() string { return l.root }

// Upload copies localPath under root/folder.
func (l *LocalUploader) Upload(ctx context.Context, localPath, folder string) (Asset, error) {
	if strings.TrimSpace(localPath) == "" {
		return Asset{}, ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return Asset{}, fmt.Errorf("local media: open %s: %w", localPath, err)
	}
	defer src.Close()

	key := objectKey(folder, localPath)
	dest := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Asset{}, fmt.Errorf("local media: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return Asset{}, fmt.Errorf("local media: create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return Asset{}, fmt.Errorf("local media: copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return Asset{}, fmt.Errorf("local media: close: %w", err)
	}

	return Asset{URL: l.baseURL + "/" + key, Key: key}, nil
}

// Delete removes key from root. Missing files are not an error.
func (l *LocalUploader) Delete(_ context.Context, key string) error {
	clean := filepath.Clean("/" + key)
	err := os.Remove(filepath.Join(l.root, clean))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local media: delete %s: %w", key, err)
	}
	return nil
}
