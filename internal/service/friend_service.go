package service

import (
	"context"
	"log/slog"
	"time"

	"grapes/internal/models"
	"grapes/internal/observability"
	"grapes/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FriendService provides friend-request and friendship business logic.
type FriendService struct {
	friendRepo repository.FriendRepository
	playerRepo repository.PlayerRepository
	now        func() time.Time
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, playerRepo repository.PlayerRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		playerRepo: playerRepo,
		now:        time.Now,
	}
}

func (s *FriendService) recordTransition(ctx context.Context, transition string, f *models.Friendship) {
	observability.FriendshipTransitions.WithLabelValues(transition).Inc()
	observability.GlobalLogger.Event(ctx, "friendship."+transition,
		slog.String("friendship_id", f.ID),
		slog.String("requester_id", f.RequesterID),
		slog.String("addressee_id", f.AddresseeID),
	)
}

// SendRequest sends a friend request from requesterID to the player named addresseeNickname.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, addresseeNickname string) (friendship *models.Friendship, err error) {
	ctx, span := observability.StartSpan(ctx, "friendship.request", attribute.String("player.id", requesterID))
	defer func() { observability.EndSpan(span, err) }()

	addressee, err := s.playerRepo.GetByNickname(ctx, addresseeNickname)
	if err != nil {
		return nil, err
	}
	if addressee == nil {
		return nil, models.NewNotFoundByFieldError("Player", "nickname", addresseeNickname)
	}
	if addressee.ID == requesterID {
		return nil, models.NewValidationError("cannot send a friend request to yourself")
	}

	existing, err := s.friendRepo.FindLiveBetween(ctx, requesterID, addressee.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.FriendshipStatusAccepted {
			return nil, models.NewValidationError("already friends")
		}
		return nil, models.NewValidationError("friend request already pending")
	}

	friendship = &models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addressee.ID,
		Status:      models.FriendshipStatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.friendRepo.Create(ctx, friendship); err != nil {
		return nil, err
	}
	s.recordTransition(ctx, "requested", friendship)

	return s.friendRepo.GetByID(ctx, friendship.ID)
}

// AcceptRequest accepts a pending request addressed to actorID.
func (s *FriendService) AcceptRequest(ctx context.Context, friendshipID, actorID string) (*models.Friendship, error) {
	return s.respond(ctx, friendshipID, actorID, models.FriendshipStatusAccepted)
}

// RejectRequest rejects a pending request addressed to actorID.
func (s *FriendService) RejectRequest(ctx context.Context, friendshipID, actorID string) (*models.Friendship, error) {
	return s.respond(ctx, friendshipID, actorID, models.FriendshipStatusRejected)
}

func (s *FriendService) respond(ctx context.Context, friendshipID, actorID string, status models.FriendshipStatus) (friendship *models.Friendship, err error) {
	ctx, span := observability.StartSpan(ctx, "friendship.respond",
		attribute.String("friendship.id", friendshipID),
		attribute.String("friendship.status", string(status)),
	)
	defer func() { observability.EndSpan(span, err) }()

	friendship, err = s.friendRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if friendship.AddresseeID != actorID {
		return nil, models.NewValidationError("not the addressee")
	}
	if friendship.Status != models.FriendshipStatusPending {
		return nil, models.NewValidationError("request already responded")
	}

	var acceptedAt *time.Time
	if status == models.FriendshipStatusAccepted {
		now := s.now()
		acceptedAt = &now
	}
	if err := s.friendRepo.UpdateStatus(ctx, friendshipID, status, acceptedAt); err != nil {
		return nil, err
	}

	friendship.Status = status
	friendship.AcceptedAt = acceptedAt
	if status == models.FriendshipStatusAccepted {
		s.recordTransition(ctx, "accepted", friendship)
	} else {
		s.recordTransition(ctx, "rejected", friendship)
	}
	return friendship, nil
}

// RemoveFriendship deletes a friendship of any status that actorID is party to.
func (s *FriendService) RemoveFriendship(ctx context.Context, friendshipID, actorID string) error {
	friendship, err := s.friendRepo.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if !friendship.Involves(actorID) {
		return models.NewValidationError("not a party to this friendship")
	}
	if err := s.friendRepo.Delete(ctx, friendshipID); err != nil {
		return err
	}
	s.recordTransition(ctx, "removed", friendship)
	return nil
}

// GetFriends returns the players with an accepted friendship with playerID.
func (s *FriendService) GetFriends(ctx context.Context, playerID string) ([]models.Player, error) {
	return s.friendRepo.GetFriends(ctx, playerID)
}

// GetPendingRequests returns pending requests addressed to playerID.
func (s *FriendService) GetPendingRequests(ctx context.Context, playerID string) ([]models.Friendship, error) {
	return s.friendRepo.GetPendingRequests(ctx, playerID)
}

// GetSentRequests returns pending requests sent by playerID.
func (s *FriendService) GetSentRequests(ctx context.Context, playerID string) ([]models.Friendship, error) {
	return s.friendRepo.GetSentRequests(ctx, playerID)
}

func (s *FriendService) AreFriends(ctx context.Context, playerA, playerB string) (bool, error) {
	return s.friendRepo.AreFriends(ctx, playerA, playerB)
}

// AreFriendsByNickname resolves nickname and reports whether it is a friend of playerID.
func (s *FriendService) AreFriendsByNickname(ctx context.Context, playerID, nickname string) (bool, error) {
	other, err := s.playerRepo.GetByNickname(ctx, nickname)
	if err != nil {
		return false, err
	}
	if other == nil {
		return false, models.NewNotFoundByFieldError("Player", "nickname", nickname)
	}
	return s.friendRepo.AreFriends(ctx, playerID, other.ID)
}
