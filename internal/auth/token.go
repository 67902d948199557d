// Package auth issues, verifies and revokes the bearer tokens used by the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"grapes/internal/config"
	"grapes/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevokedToken = errors.New("token has been revoked")
	errNoSecret     = errors.New("JWT secret not configured")
)

// Identity is the authenticated caller resolved from a token.
type Identity struct {
	UserID   string
	PlayerID string
	Email    string
}

// Claims are the verified parts of a token the API relies on.
type Claims struct {
	Subject   string
	JTI       string
	ExpiresAt time.Time
}

// TokenService signs HS256 tokens and tracks revoked token IDs in Redis.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	redis    *redis.Client
	now      func() time.Time
}

// NewTokenService builds a TokenService from cfg. rdb may be nil, in which
// case revocation is unavailable and revocation checks are skipped.
func NewTokenService(cfg *config.Config, rdb *redis.Client) *TokenService {
	return &TokenService{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      time.Duration(cfg.JWTExpirationMS) * time.Millisecond,
		redis:    rdb,
		now:      time.Now,
	}
}

// ExpiresInMS is the token lifetime reported to clients.
func (s *TokenService) ExpiresInMS() int64 {
	return s.ttl.Milliseconds()
}

// Issue signs a token for subject and returns it with its lifetime in milliseconds.
func (s *TokenService) Issue(subject string) (string, int64, error) {
	if len(s.secret) == 0 {
		return "", 0, errNoSecret
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iss": s.issuer,
		"aud": s.audience,
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, s.ExpiresInMS(), nil
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, errNoSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)

	return &Claims{Subject: sub, JTI: jti, ExpiresAt: exp.Time}, nil
}

// Verify checks signature, issuer, audience and expiry, then the revocation list.
// A Redis failure while checking revocation is logged and treated as not revoked.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.JTI != "" && s.redis != nil {
		n, err := s.redis.Exists(ctx, blacklistPrefix+claims.JTI).Result()
		switch {
		case err != nil:
			middleware.Logger.WarnContext(ctx, "token revocation check failed, allowing",
				slog.String("error", err.Error()),
			)
		case n > 0:
			return nil, ErrRevokedToken
		}
	}

	return claims, nil
}

// Revoke blacklists the token's jti until the token would have expired anyway.
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if claims.JTI == "" {
		return ErrInvalidToken
	}
	if s.redis == nil {
		middleware.Logger.WarnContext(ctx, "token revocation skipped: redis unavailable")
		return nil
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, blacklistPrefix+claims.JTI, "1", ttl).Err()
}
