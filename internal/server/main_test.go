package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"grapes/internal/cache"
	"grapes/internal/config"
	"grapes/internal/database"
	"grapes/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret-key-12345678901234567890123456789012"

func testConfig() *config.Config {
	return &config.Config{
		Port:                       "0",
		Env:                        "test",
		AllowedOrigins:             "http://localhost:5173",
		JWTSecret:                  testJWTSecret,
		JWTExpirationMS:            3600000,
		JWTIssuer:                  "grapes-api",
		JWTAudience:                "grapes-client",
		RateLimitAuthMax:           10,
		RateLimitAuthWindowSeconds: 300,
	}
}

// testEnv is a full server over in-memory SQLite and miniredis.
type testEnv struct {
	t   *testing.T
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(context.Background(), db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	srv, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)

	return &testEnv{t: t, srv: srv, app: srv.NewApp(), db: db, mr: mr}
}

// do sends a request with an optional bearer token and JSON body and returns
// the response with its body read.
func (e *testEnv) do(method, path, token string, body any) (*http.Response, []byte) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(e.t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, data
}

// register signs up nickname and returns its token and player ID.
func (e *testEnv) register(nickname string) (string, string) {
	e.t.Helper()

	resp, body := e.do(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    nickname + "@example.com",
		"password": "secret123",
		"nickname": nickname,
	})
	require.Equal(e.t, fiber.StatusCreated, resp.StatusCode, string(body))

	out := decode[models.RegisterResponse](e.t, body)
	return out.Token, out.PlayerID
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func decodeError(t *testing.T, body []byte) models.ErrorResponse {
	t.Helper()
	return decode[models.ErrorResponse](t, body)
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
