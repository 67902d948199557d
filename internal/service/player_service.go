// Package service holds the business rules that sit between HTTP handlers and repositories.
package service

import (
	"context"
	"log/slog"
	"strings"

	"grapes/internal/models"
	"grapes/internal/observability"
	"grapes/internal/repository"
	"grapes/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// PlayerService provides player lookup and progression.
type PlayerService struct {
	playerRepo repository.PlayerRepository
}

// NewPlayerService returns a new PlayerService.
func NewPlayerService(playerRepo repository.PlayerRepository) *PlayerService {
	return &PlayerService{playerRepo: playerRepo}
}

func (s *PlayerService) GetByID(ctx context.Context, id string) (*models.Player, error) {
	return s.playerRepo.GetByID(ctx, id)
}

// GetByNickname returns NotFound when no player has nickname.
func (s *PlayerService) GetByNickname(ctx context.Context, nickname string) (*models.Player, error) {
	player, err := s.playerRepo.GetByNickname(ctx, nickname)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, models.NewNotFoundByFieldError("Player", "nickname", nickname)
	}
	return player, nil
}

// CreatePlayer creates a player that is not attached to any user.
func (s *PlayerService) CreatePlayer(ctx context.Context, nickname string) (*models.Player, error) {
	nickname = strings.TrimSpace(nickname)
	if err := validation.ValidateNickname(nickname); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	taken, err := s.playerRepo.ExistsByNickname(ctx, nickname)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("nickname already taken")
	}

	player := models.NewPlayer(nickname, nil)
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// AddExperience grants amount experience to the player and persists any level-ups.
func (s *PlayerService) AddExperience(ctx context.Context, playerID string, amount int) (player *models.Player, err error) {
	ctx, span := observability.StartSpan(ctx, "player.add_experience",
		attribute.String("player.id", playerID),
		attribute.Int("xp.amount", amount),
	)
	defer func() { observability.EndSpan(span, err) }()

	player, err = s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	gained, err := player.GainExperience(amount)
	if err != nil {
		return nil, err
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, err
	}

	if gained > 0 {
		observability.PlayerLevelUps.Add(float64(gained))
		observability.GlobalLogger.Event(ctx, "player.level_up",
			slog.String("player_id", player.ID),
			slog.Int("levels", gained),
			slog.Int("level", player.Level),
		)
	}
	span.SetAttributes(attribute.Int("player.level", player.Level))
	return player, nil
}
