package repository

import (
	"context"

	"grapes/internal/cache"
	"grapes/internal/models"
	"grapes/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlayerRepository defines persistence operations for players.
type PlayerRepository interface {
	GetByID(ctx context.Context, id string) (*models.Player, error)
	GetByNickname(ctx context.Context, nickname string) (*models.Player, error)
	FindByUserEmail(ctx context.Context, email string) (*models.Player, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	Create(ctx context.Context, player *models.Player) error
	Update(ctx context.Context, player *models.Player) error
}

type playerRepository struct {
	db *gorm.DB
}

// NewPlayerRepository returns a new PlayerRepository implementation.
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepository{db: db}
}

// GetByID reads through the player cache.
func (r *playerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	var player models.Player
	err := cache.Aside(ctx, cache.PlayerFamily, cache.PlayerKey(id), &player, cache.PlayerTTL, func() error {
		defer observability.TrackQuery("select", "players")()
		if err := r.db.WithContext(ctx).Where("id = ?", id).First(&player).Error; err != nil {
			return byIDError(err, "Player", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *playerRepository) GetByNickname(ctx context.Context, nickname string) (*models.Player, error) {
	defer observability.TrackQuery("select", "players")()

	var player models.Player
	if err := r.db.WithContext(ctx).Where("nickname = ?", nickname).First(&player).Error; err != nil {
		return nil, lookupError(err)
	}
	return &player, nil
}

// FindByUserEmail resolves the player owned by the user with email, with User loaded.
func (r *playerRepository) FindByUserEmail(ctx context.Context, email string) (*models.Player, error) {
	defer observability.TrackQuery("select", "players")()

	var player models.Player
	if err := r.db.WithContext(ctx).
		Select("players.*").
		Joins("JOIN users ON users.id = players.user_id").
		Where("users.email = ?", email).
		Preload("User").
		First(&player).Error; err != nil {
		return nil, lookupError(err)
	}
	return &player, nil
}

func (r *playerRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Player{}).Where("nickname = ?", nickname).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *playerRepository) Create(ctx context.Context, player *models.Player) error {
	defer observability.TrackQuery("insert", "players")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(player).Error; err != nil {
		if isUniqueConstraintError(err) {
			if violatesColumn(err, "players", "user_id") {
				return models.NewValidationError("user already has a player")
			}
			return models.NewValidationError("nickname already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update persists progression and profile fields and drops the cached copy.
func (r *playerRepository) Update(ctx context.Context, player *models.Player) error {
	defer observability.TrackQuery("update", "players")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(player).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("nickname already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePlayer(ctx, player.ID)
	return nil
}
