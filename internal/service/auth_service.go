package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"grapes/internal/auth"
	"grapes/internal/models"
	"grapes/internal/observability"
	"grapes/internal/repository"
	"grapes/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const invalidCredentials = "Invalid credentials"

// TokenIssuer signs and revokes bearer tokens.
type TokenIssuer interface {
	Issue(subject string) (token string, expiresInMS int64, err error)
	Revoke(ctx context.Context, token string) error
}

// AuthService registers players and exchanges credentials for tokens.
type AuthService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	playerRepo repository.PlayerRepository
	tokens     TokenIssuer
	hashCost   int
}

// NewAuthService returns a new AuthService. db is used to open the
// registration transaction; the repositories serve the pre-checks and logins.
func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, playerRepo repository.PlayerRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{
		db:         db,
		userRepo:   userRepo,
		playerRepo: playerRepo,
		tokens:     tokens,
		hashCost:   bcrypt.DefaultCost,
	}
}

// Register creates a user and its player atomically and returns a token for it.
func (s *AuthService) Register(ctx context.Context, email, password, nickname string) (resp *models.RegisterResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.register")
	defer func() { observability.EndSpan(span, err) }()

	email = validation.NormalizeEmail(email)
	nickname = strings.TrimSpace(nickname)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateNickname(nickname); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	emailTaken, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		return nil, models.NewValidationError("email already registered")
	}
	nicknameTaken, err := s.playerRepo.ExistsByNickname(ctx, nickname)
	if err != nil {
		return nil, err
	}
	if nicknameTaken {
		return nil, models.NewValidationError("nickname already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Email: email, Password: string(hashed)}
	player := models.NewPlayer(nickname, nil)
	var token string
	var expiresIn int64

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		player.UserID = &user.ID
		if err := repository.NewPlayerRepository(tx).Create(ctx, player); err != nil {
			return err
		}

		var issueErr error
		token, expiresIn, issueErr = s.tokens.Issue(user.Email)
		if issueErr != nil {
			return models.NewInternalError(issueErr)
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}

	observability.PlayersRegistered.Inc()
	span.SetAttributes(attribute.String("player.id", player.ID))
	observability.GlobalLogger.Event(ctx, "player.registered",
		slog.String("player_id", player.ID),
		slog.String("user_id", user.ID),
	)

	return &models.RegisterResponse{
		PlayerID:  player.ID,
		Nickname:  player.Nickname,
		Email:     user.Email,
		Token:     token,
		ExpiresIn: expiresIn,
	}, nil
}

// Login authenticates by email when login contains "@", by nickname otherwise.
// Every failure is reported as the same Unauthorized error.
func (s *AuthService) Login(ctx context.Context, login, password string) (*models.LoginResponse, error) {
	user, err := s.findLoginUser(ctx, strings.TrimSpace(login))
	if err != nil {
		if models.IsCode(err, models.CodeInternal) {
			return nil, err
		}
		user = nil
	}
	if user == nil {
		observability.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}

	token, expiresIn, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.LoginAttempts.WithLabelValues("success").Inc()
	return &models.LoginResponse{
		Token:     token,
		Type:      "Bearer",
		ExpiresIn: expiresIn,
	}, nil
}

func (s *AuthService) findLoginUser(ctx context.Context, login string) (*models.User, error) {
	if login == "" {
		return nil, nil
	}
	if strings.Contains(login, "@") {
		return s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(login))
	}

	player, err := s.playerRepo.GetByNickname(ctx, login)
	if err != nil || player == nil || player.UserID == nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, *player.UserID)
}

// Logout revokes token. When the revocation store is unreachable the token
// simply lives until it expires.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	err := s.tokens.Revoke(ctx, token)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrInvalidToken):
		return models.NewUnauthorizedError("Unauthorized")
	default:
		observability.GlobalLogger.WarnContext(ctx, "token revocation failed",
			slog.String("error", err.Error()),
		)
		return nil
	}
}
