// Package bootstrap brings up the runtime dependencies shared by the server
// and the maintenance commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"grapes/internal/cache"
	"grapes/internal/config"
	"grapes/internal/database"
	"grapes/internal/middleware"
	"grapes/internal/models"
	"grapes/internal/observability"
	"grapes/internal/validation"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	adminNickname   = "AdminMaster"
	adminExperience = 100
)

var adminBalance = decimal.RequireFromString("1000.00")

// Options control runtime initialization behavior.
type Options struct {
	SeedAdmin bool
}

// InitRuntime connects to DB and Redis, applies the schema and optionally
// creates the initial admin account.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	observability.SetLogger(middleware.Logger)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedAdmin {
		if err := EnsureAdmin(context.Background(), db, cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	return db, r, nil
}

// EnsureAdmin creates the admin user and its player when no users exist yet.
func EnsureAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	if cfg == nil || db == nil {
		return nil
	}

	email := validation.NormalizeEmail(cfg.SeedAdminEmail)
	if email == "" {
		email = "admin@grapes.com"
	}
	if cfg.SeedAdminPassword == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be set when SEED_ADMIN is enabled")
	}

	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}

		user := &models.User{Email: email, Password: string(hashed)}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}

		player := models.NewPlayer(adminNickname, &user.ID)
		if _, err := player.GainExperience(adminExperience); err != nil {
			return err
		}
		player.Balance = adminBalance
		if err := tx.Create(player).Error; err != nil {
			return fmt.Errorf("create admin player: %w", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return err
	}

	if created {
		middleware.Logger.InfoContext(ctx, "admin account initialized",
			slog.String("email", email),
			slog.String("nickname", adminNickname),
		)
	}
	return nil
}
