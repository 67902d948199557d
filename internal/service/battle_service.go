package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"grapes/internal/models"
	"grapes/internal/observability"
	"grapes/internal/repository"
	"grapes/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// BattleService records and settles battles between players and external parties.
type BattleService struct {
	battleRepo repository.BattleRepository
	playerRepo repository.PlayerRepository
	now        func() time.Time
}

// NewBattleService returns a new BattleService.
func NewBattleService(battleRepo repository.BattleRepository, playerRepo repository.PlayerRepository) *BattleService {
	return &BattleService{
		battleRepo: battleRepo,
		playerRepo: playerRepo,
		now:        time.Now,
	}
}

func counterpartKind(b *models.Battle) string {
	if b.IsExternal() {
		return "external"
	}
	return "friend"
}

func (s *BattleService) recordTransition(ctx context.Context, transition string, b *models.Battle) {
	observability.BattleTransitions.WithLabelValues(transition, counterpartKind(b)).Inc()
	observability.GlobalLogger.Event(ctx, "battle."+transition,
		slog.String("battle_id", b.ID),
		slog.String("creator_id", b.CreatorID),
		slog.String("amount", b.Amount.StringFixed(2)),
	)
}

// Create dispatches to CreateWithFriend or CreateWithExternal depending on
// which counterpart the input names.
func (s *BattleService) Create(ctx context.Context, creatorID string, in validation.BattleInput) (*models.Battle, error) {
	if err := validation.ValidateBattleInput(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.OpponentNickname) != "" {
		return s.CreateWithFriend(ctx, creatorID, in.OpponentNickname, in)
	}
	return s.CreateWithExternal(ctx, creatorID, in.ExternalName, in)
}

// CreateWithFriend records a battle against the registered player opponentNickname.
func (s *BattleService) CreateWithFriend(ctx context.Context, creatorID, opponentNickname string, in validation.BattleInput) (battle *models.Battle, err error) {
	ctx, span := observability.StartSpan(ctx, "battle.create",
		attribute.String("player.id", creatorID),
		attribute.String("battle.counterpart", "friend"),
	)
	defer func() { observability.EndSpan(span, err) }()

	in.OpponentNickname = strings.TrimSpace(opponentNickname)
	in.ExternalName = ""
	if err := validation.ValidateBattleInput(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	opponent, err := s.playerRepo.GetByNickname(ctx, in.OpponentNickname)
	if err != nil {
		return nil, err
	}
	if opponent == nil {
		return nil, models.NewNotFoundByFieldError("Player", "nickname", in.OpponentNickname)
	}
	if opponent.ID == creatorID {
		return nil, models.NewValidationError("cannot create a battle against yourself")
	}

	battle = s.newBattle(creatorID, in)
	battle.OpponentID = &opponent.ID
	return s.persist(ctx, battle)
}

// CreateWithExternal records a battle against a free-text name with no account.
func (s *BattleService) CreateWithExternal(ctx context.Context, creatorID, externalName string, in validation.BattleInput) (battle *models.Battle, err error) {
	ctx, span := observability.StartSpan(ctx, "battle.create",
		attribute.String("player.id", creatorID),
		attribute.String("battle.counterpart", "external"),
	)
	defer func() { observability.EndSpan(span, err) }()

	in.OpponentNickname = ""
	in.ExternalName = strings.TrimSpace(externalName)
	if err := validation.ValidateBattleInput(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	battle = s.newBattle(creatorID, in)
	battle.ExternalName = &in.ExternalName
	return s.persist(ctx, battle)
}

func (s *BattleService) newBattle(creatorID string, in validation.BattleInput) *models.Battle {
	return &models.Battle{
		CreatorID:         creatorID,
		CreatorIsCreditor: *in.IAmCreditor,
		Amount:            in.Amount.Round(2),
		Category:          strings.TrimSpace(in.Category),
		Description:       strings.TrimSpace(in.Description),
		Status:            models.BattleStatusPending,
		CreatedAt:         s.now(),
	}
}

func (s *BattleService) persist(ctx context.Context, battle *models.Battle) (*models.Battle, error) {
	if err := s.battleRepo.Create(ctx, battle); err != nil {
		return nil, err
	}
	s.recordTransition(ctx, "created", battle)
	return s.battleRepo.GetByID(ctx, battle.ID)
}

// MarkAsPaid settles a pending battle. Either party may settle it.
func (s *BattleService) MarkAsPaid(ctx context.Context, battleID, actorID string) (battle *models.Battle, err error) {
	ctx, span := observability.StartSpan(ctx, "battle.pay", attribute.String("battle.id", battleID))
	defer func() { observability.EndSpan(span, err) }()

	battle, err = s.battleRepo.GetByID(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !battle.Involves(actorID) {
		return nil, models.NewValidationError("not involved in this battle")
	}
	if battle.Status == models.BattleStatusPaid {
		return nil, models.NewValidationError("battle already paid")
	}

	paidAt := s.now()
	if err := s.battleRepo.MarkPaid(ctx, battleID, paidAt); err != nil {
		return nil, err
	}

	battle.Status = models.BattleStatusPaid
	battle.PaidAt = &paidAt
	s.recordTransition(ctx, "paid", battle)
	return battle, nil
}

// Delete removes a battle. Only its creator may do so.
func (s *BattleService) Delete(ctx context.Context, battleID, actorID string) error {
	battle, err := s.battleRepo.GetByID(ctx, battleID)
	if err != nil {
		return err
	}
	if !battle.IsCreator(actorID) {
		return models.NewValidationError("only the creator may remove a battle")
	}
	if err := s.battleRepo.Delete(ctx, battleID); err != nil {
		return err
	}
	s.recordTransition(ctx, "deleted", battle)
	return nil
}

// ListForPlayer returns playerID's battles newest first, optionally filtered by category.
func (s *BattleService) ListForPlayer(ctx context.Context, playerID, category string) ([]models.Battle, error) {
	category = strings.TrimSpace(category)
	if category != "" {
		return s.battleRepo.ListForPlayerByCategory(ctx, playerID, category)
	}
	return s.battleRepo.ListForPlayer(ctx, playerID)
}

func (s *BattleService) ListPendingForPlayer(ctx context.Context, playerID string) ([]models.Battle, error) {
	return s.battleRepo.ListPendingForPlayer(ctx, playerID)
}

func (s *BattleService) CountPending(ctx context.Context, playerID string) (int64, error) {
	return s.battleRepo.CountPending(ctx, playerID)
}

// Summary totals playerID's pending battles into amounts owed each way.
func (s *BattleService) Summary(ctx context.Context, playerID string) (*models.BattleSummary, error) {
	pending, err := s.battleRepo.ListPendingForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	count, err := s.battleRepo.CountPending(ctx, playerID)
	if err != nil {
		return nil, err
	}
	summary := models.SummarizeFor(pending, playerID)
	summary.PendingCount = count
	return &summary, nil
}
