package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"vidtube/internal/cache"
	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/media"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockUploader is a mock of media.Uploader
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, localPath, folder string) (media.Asset, error) {
	args := m.Called(ctx, localPath, folder)
	return args.Get(0).(media.Asset), args.Error(1)
}

func (m *MockUploader) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:                "test",
		AccessTokenSecret:  "test-access-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenSecret: "test-refresh-secret",
		RefreshTokenTTL:    7 * 24 * time.Hour,
		BcryptCost:         4,
		AllowedOrigins:     "http://localhost:5173",
		MediaDriver:        "local",
		MediaLocalDir:      t.TempDir(),
		MediaPublicBaseURL: "http://localhost:8000/media",
		UploadTimeout:      5 * time.Second,
		UploadTmpDir:       t.TempDir(),
		MaxUploadSizeMB:    10,
		DBMaxOpenConns:     1,
		DBMaxIdleConns:     1,
	}
}

func setupTestDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

type testEnv struct {
	cfg    *config.Config
	db     *gorm.DB
	server *Server
	app    *fiber.App
}

// newTestEnv wires a full server on SQLite and miniredis. A nil uploader
// stores media under cfg.MediaLocalDir.
func newTestEnv(t *testing.T, uploader media.Uploader) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	db := setupTestDB(t, cfg)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	srv, err := NewServerWithDeps(cfg, db, rdb, uploader)
	require.NoError(t, err)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &testEnv{cfg: cfg, db: db, server: srv, app: srv.NewApp()}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) requestOption {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (e *testEnv) do(t *testing.T, req *http.Request, opts ...requestOption) (*http.Response, envelope) {
	t.Helper()
	for _, opt := range opts {
		opt(req)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var env envelope
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &env), string(body))
	}
	return resp, env
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}, opts ...requestOption) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(t, req, opts...)
}

type formFile struct {
	field       string
	filename    string
	contentType string
	content     string
}

func (e *testEnv) doMultipart(t *testing.T, method, path string, fields map[string]string, files []formFile, opts ...requestOption) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req, opts...)
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type session struct {
	userID       uint
	accessToken  string
	refreshToken *http.Cookie
}

func avatarFile() formFile {
	return formFile{field: "avatar", filename: "avatar.png", contentType: "image/png", content: "png-bytes"}
}

// registerUser signs up username with password hunter22 and returns its session.
func (e *testEnv) registerUser(t *testing.T, username, fullName string) session {
	t.Helper()
	resp, env := e.doMultipart(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"fullName": fullName,
		"email":    username + "@x.io",
		"username": username,
		"password": "hunter22",
	}, []formFile{avatarFile()})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	var payload struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	decodeData(t, env, &payload)

	return session{
		userID:       payload.User.ID,
		accessToken:  payload.AccessToken,
		refreshToken: findCookie(resp, refreshTokenCookie),
	}
}

func uintPath(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
