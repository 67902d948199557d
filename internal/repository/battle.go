package repository

import (
	"context"
	"time"

	"grapes/internal/models"
	"grapes/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BattleRepository defines persistence operations for battles.
type BattleRepository interface {
	Create(ctx context.Context, battle *models.Battle) error
	GetByID(ctx context.Context, id string) (*models.Battle, error)
	ListForPlayer(ctx context.Context, playerID string) ([]models.Battle, error)
	ListPendingForPlayer(ctx context.Context, playerID string) ([]models.Battle, error)
	ListForPlayerByCategory(ctx context.Context, playerID, category string) ([]models.Battle, error)
	CountPending(ctx context.Context, playerID string) (int64, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type battleRepository struct {
	db *gorm.DB
}

// NewBattleRepository returns a new BattleRepository implementation.
func NewBattleRepository(db *gorm.DB) BattleRepository {
	return &battleRepository{db: db}
}

func (r *battleRepository) involving(ctx context.Context, playerID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("(creator_id = ? OR opponent_id = ?)", playerID, playerID)
}

func (r *battleRepository) list(q *gorm.DB) ([]models.Battle, error) {
	defer observability.TrackQuery("select", "battles")()

	var battles []models.Battle
	if err := q.Preload("Creator").
		Preload("Opponent").
		Order("created_at DESC").
		Find(&battles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return battles, nil
}

func (r *battleRepository) Create(ctx context.Context, battle *models.Battle) error {
	defer observability.TrackQuery("insert", "battles")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(battle).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *battleRepository) GetByID(ctx context.Context, id string) (*models.Battle, error) {
	defer observability.TrackQuery("select", "battles")()

	var battle models.Battle
	if err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Opponent").
		Where("id = ?", id).
		First(&battle).Error; err != nil {
		return nil, byIDError(err, "Battle", id)
	}
	return &battle, nil
}

// ListForPlayer returns battles created by or against playerID, newest first.
func (r *battleRepository) ListForPlayer(ctx context.Context, playerID string) ([]models.Battle, error) {
	return r.list(r.involving(ctx, playerID))
}

func (r *battleRepository) ListPendingForPlayer(ctx context.Context, playerID string) ([]models.Battle, error) {
	return r.list(r.involving(ctx, playerID).Where("status = ?", models.BattleStatusPending))
}

func (r *battleRepository) ListForPlayerByCategory(ctx context.Context, playerID, category string) ([]models.Battle, error) {
	return r.list(r.involving(ctx, playerID).Where("category = ?", category))
}

func (r *battleRepository) CountPending(ctx context.Context, playerID string) (int64, error) {
	var count int64
	if err := r.involving(ctx, playerID).
		Model(&models.Battle{}).
		Where("status = ?", models.BattleStatusPending).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// MarkPaid settles a PENDING battle. A battle that is already PAID is left
// untouched and reported as a validation error.
func (r *battleRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	defer observability.TrackQuery("update", "battles")()

	result := r.db.WithContext(ctx).
		Model(&models.Battle{}).
		Where("id = ? AND status = ?", id, models.BattleStatusPending).
		Updates(map[string]any{"status": models.BattleStatusPaid, "paid_at": paidAt})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewValidationError("battle already paid")
	}
	return nil
}

func (r *battleRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "battles")()

	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Battle{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
