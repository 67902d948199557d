package repository

import (
	"context"
	"time"

	"grapes/internal/models"
	"grapes/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository defines the interface for friendship data operations
type FriendRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	GetByID(ctx context.Context, id string) (*models.Friendship, error)
	FindLiveBetween(ctx context.Context, playerA, playerB string) (*models.Friendship, error)
	AreFriends(ctx context.Context, playerA, playerB string) (bool, error)
	GetFriends(ctx context.Context, playerID string) ([]models.Player, error)
	GetPendingRequests(ctx context.Context, playerID string) ([]models.Friendship, error)
	GetSentRequests(ctx context.Context, playerID string) ([]models.Friendship, error)
	UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus, acceptedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func pairCondition(db *gorm.DB, playerA, playerB string) *gorm.DB {
	return db.Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
		playerA, playerB, playerB, playerA)
}

func (r *friendRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	defer observability.TrackQuery("insert", "friendships")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(friendship).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	defer observability.TrackQuery("select", "friendships")()

	var friendship models.Friendship
	if err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Addressee").
		Where("id = ?", id).
		First(&friendship).Error; err != nil {
		return nil, byIDError(err, "Friendship", id)
	}
	return &friendship, nil
}

// FindLiveBetween returns the PENDING or ACCEPTED record for the unordered pair,
// preferring ACCEPTED, or nil when the pair has none. REJECTED records are ignored.
func (r *friendRepository) FindLiveBetween(ctx context.Context, playerA, playerB string) (*models.Friendship, error) {
	defer observability.TrackQuery("select", "friendships")()

	var found []models.Friendship
	if err := pairCondition(r.db.WithContext(ctx), playerA, playerB).
		Where("status IN ?", []models.FriendshipStatus{models.FriendshipStatusPending, models.FriendshipStatusAccepted}).
		Order("created_at DESC").
		Find(&found).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	for i := range found {
		if found[i].Status == models.FriendshipStatusAccepted {
			return &found[i], nil
		}
	}
	return &found[0], nil
}

func (r *friendRepository) AreFriends(ctx context.Context, playerA, playerB string) (bool, error) {
	var count int64
	if err := pairCondition(r.db.WithContext(ctx).Model(&models.Friendship{}), playerA, playerB).
		Where("status = ?", models.FriendshipStatusAccepted).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// GetFriends returns the other party of every ACCEPTED friendship of playerID.
func (r *friendRepository) GetFriends(ctx context.Context, playerID string) ([]models.Player, error) {
	defer observability.TrackQuery("select", "friendships")()

	var players []models.Player
	if err := r.db.WithContext(ctx).
		Select("players.*").
		Joins("JOIN friendships f ON (players.id = f.requester_id OR players.id = f.addressee_id)").
		Where("f.status = ? AND (f.requester_id = ? OR f.addressee_id = ?) AND players.id <> ?",
			models.FriendshipStatusAccepted, playerID, playerID, playerID).
		Order("players.nickname ASC").
		Find(&players).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return players, nil
}

func (r *friendRepository) GetPendingRequests(ctx context.Context, playerID string) ([]models.Friendship, error) {
	return r.pending(ctx, "addressee_id", playerID)
}

func (r *friendRepository) GetSentRequests(ctx context.Context, playerID string) ([]models.Friendship, error) {
	return r.pending(ctx, "requester_id", playerID)
}

func (r *friendRepository) pending(ctx context.Context, column, playerID string) ([]models.Friendship, error) {
	defer observability.TrackQuery("select", "friendships")()

	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Where(column+" = ? AND status = ?", playerID, models.FriendshipStatusPending).
		Preload("Requester").
		Preload("Addressee").
		Order("created_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return friendships, nil
}

// UpdateStatus moves a PENDING friendship to status. It fails with a
// validation error when the record is no longer PENDING.
func (r *friendRepository) UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus, acceptedAt *time.Time) error {
	defer observability.TrackQuery("update", "friendships")()

	result := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("id = ? AND status = ?", id, models.FriendshipStatusPending).
		Updates(map[string]any{"status": status, "accepted_at": acceptedAt})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewValidationError("request already responded")
	}
	return nil
}

func (r *friendRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "friendships")()

	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Friendship{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
