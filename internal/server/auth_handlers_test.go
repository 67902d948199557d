package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"grapes/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":    "ana@example.com",
		"password": "secret123",
		"nickname": "ana",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	out := decode[models.RegisterResponse](t, body)
	assert.Equal(t, "ana", out.Nickname)
	assert.Equal(t, "ana@example.com", out.Email)
	assert.NotEmpty(t, out.Token)
	assert.NotEmpty(t, out.PlayerID)
	assert.Equal(t, int64(3600000), out.ExpiresIn)

	var player models.Player
	require.NoError(t, env.db.Where("id = ?", out.PlayerID).First(&player).Error)
	assert.Equal(t, 1, player.Level)
	require.NotNil(t, player.UserID)
}

func TestRegister_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.register("ana")

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"malformed body", "{not json", "Invalid request body"},
		{"duplicate nickname", fiber.Map{"email": "other@example.com", "password": "secret123", "nickname": "ana"}, "nickname already taken"},
		{"duplicate email", fiber.Map{"email": "ana@example.com", "password": "secret123", "nickname": "other"}, "email already registered"},
		{"short password", fiber.Map{"email": "new@example.com", "password": "abc", "nickname": "newbie"}, "password"},
		{"bad nickname", fiber.Map{"email": "new@example.com", "password": "secret123", "nickname": "a!"}, "nickname"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			errResp := decodeError(t, body)
			assert.Equal(t, models.CodeValidation, errResp.Code)
			assert.Contains(t, errResp.Error, tt.message)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register("lee")

	for _, body := range []fiber.Map{
		{"nickname": "lee", "password": "secret123"},
		{"email": "lee@example.com", "password": "secret123"},
		{"login": "lee", "password": "secret123"},
	} {
		resp, raw := env.do(http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
		out := decode[models.LoginResponse](t, raw)
		assert.Equal(t, "Bearer", out.Type)
		assert.NotEmpty(t, out.Token)
		assert.Equal(t, int64(3600000), out.ExpiresIn)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.register("lee")

	for _, body := range []fiber.Map{
		{"nickname": "lee", "password": "wrong-password"},
		{"nickname": "nobody", "password": "secret123"},
		{"email": "nobody@example.com", "password": "secret123"},
	} {
		resp, raw := env.do(http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", decodeError(t, raw).Error)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register("lee")

	resp, _ := env.do(http.MethodGet, "/api/players/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	revoked := 0
	for _, key := range env.mr.Keys() {
		if strings.HasPrefix(key, "blacklist:") {
			revoked++
		}
	}
	assert.Equal(t, 1, revoked)

	resp, body := env.do(http.MethodGet, "/api/players/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", decodeError(t, body).Error)
}

func signTestToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	token, playerID := env.register("lee")

	orphanToken, _, err := env.srv.tokens.Issue("ghost@example.com")
	require.NoError(t, err)

	validClaims := func() jwt.MapClaims {
		now := time.Now()
		return jwt.MapClaims{
			"sub": "lee@example.com",
			"iss": "grapes-api",
			"aud": "grapes-client",
			"exp": now.Add(time.Hour).Unix(),
			"iat": now.Unix(),
			"jti": "handcrafted",
		}
	}
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	wrongAudience := validClaims()
	wrongAudience["aud"] = "someone-else"

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + token},
		{"garbage token", "Bearer not.a.token"},
		{"wrong secret", "Bearer " + signTestToken(t, validClaims(), "another-secret-entirely-0123456789")},
		{"expired", "Bearer " + signTestToken(t, expired, testJWTSecret)},
		{"wrong audience", "Bearer " + signTestToken(t, wrongAudience, testJWTSecret)},
		{"no player for subject", "Bearer " + orphanToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/api/players/me")
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := env.app.Test(req, -1)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}

	t.Run("valid handcrafted token", func(t *testing.T) {
		resp, body := env.do(http.MethodGet, "/api/players/me", signTestToken(t, validClaims(), testJWTSecret), nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
		assert.Equal(t, playerID, decode[models.PlayerPrivate](t, body).ID)
	})
}
