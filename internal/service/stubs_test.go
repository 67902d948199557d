package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"grapes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn       func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	existsByEmailFn func(context.Context, string) (bool, error)
	countFn         func(context.Context) (int64, error)
	createFn        func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.existsByEmailFn(ctx, email)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id string) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		existsByEmailFn: func(context.Context, string) (bool, error) { return false, nil },
		countFn:         func(context.Context) (int64, error) { return 0, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
	}
}

type playerRepoStub struct {
	getByIDFn          func(context.Context, string) (*models.Player, error)
	getByNicknameFn    func(context.Context, string) (*models.Player, error)
	findByUserEmailFn  func(context.Context, string) (*models.Player, error)
	existsByNicknameFn func(context.Context, string) (bool, error)
	createFn           func(context.Context, *models.Player) error
	updateFn           func(context.Context, *models.Player) error
}

func (s *playerRepoStub) GetByID(ctx context.Context, id string) (*models.Player, error) {
	return s.getByIDFn(ctx, id)
}
func (s *playerRepoStub) GetByNickname(ctx context.Context, nickname string) (*models.Player, error) {
	return s.getByNicknameFn(ctx, nickname)
}
func (s *playerRepoStub) FindByUserEmail(ctx context.Context, email string) (*models.Player, error) {
	return s.findByUserEmailFn(ctx, email)
}
func (s *playerRepoStub) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return s.existsByNicknameFn(ctx, nickname)
}
func (s *playerRepoStub) Create(ctx context.Context, player *models.Player) error {
	return s.createFn(ctx, player)
}
func (s *playerRepoStub) Update(ctx context.Context, player *models.Player) error {
	return s.updateFn(ctx, player)
}

func noopPlayerRepo() *playerRepoStub {
	return &playerRepoStub{
		getByIDFn:          func(_ context.Context, id string) (*models.Player, error) { return &models.Player{ID: id, Level: 1}, nil },
		getByNicknameFn:    func(context.Context, string) (*models.Player, error) { return nil, nil },
		findByUserEmailFn:  func(context.Context, string) (*models.Player, error) { return nil, nil },
		existsByNicknameFn: func(context.Context, string) (bool, error) { return false, nil },
		createFn:           func(context.Context, *models.Player) error { return nil },
		updateFn:           func(context.Context, *models.Player) error { return nil },
	}
}

// playersByNickname answers GetByNickname from a fixed set.
func playersByNickname(players ...*models.Player) func(context.Context, string) (*models.Player, error) {
	return func(_ context.Context, nickname string) (*models.Player, error) {
		for _, p := range players {
			if p.Nickname == nickname {
				return p, nil
			}
		}
		return nil, nil
	}
}

type friendRepoStub struct {
	createFn             func(context.Context, *models.Friendship) error
	getByIDFn            func(context.Context, string) (*models.Friendship, error)
	findLiveBetweenFn    func(context.Context, string, string) (*models.Friendship, error)
	areFriendsFn         func(context.Context, string, string) (bool, error)
	getFriendsFn         func(context.Context, string) ([]models.Player, error)
	getPendingRequestsFn func(context.Context, string) ([]models.Friendship, error)
	getSentRequestsFn    func(context.Context, string) ([]models.Friendship, error)
	updateStatusFn       func(context.Context, string, models.FriendshipStatus, *time.Time) error
	deleteFn             func(context.Context, string) error
}

func (s *friendRepoStub) Create(ctx context.Context, friendship *models.Friendship) error {
	return s.createFn(ctx, friendship)
}
func (s *friendRepoStub) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	return s.getByIDFn(ctx, id)
}
func (s *friendRepoStub) FindLiveBetween(ctx context.Context, a, b string) (*models.Friendship, error) {
	return s.findLiveBetweenFn(ctx, a, b)
}
func (s *friendRepoStub) AreFriends(ctx context.Context, a, b string) (bool, error) {
	return s.areFriendsFn(ctx, a, b)
}
func (s *friendRepoStub) GetFriends(ctx context.Context, playerID string) ([]models.Player, error) {
	return s.getFriendsFn(ctx, playerID)
}
func (s *friendRepoStub) GetPendingRequests(ctx context.Context, playerID string) ([]models.Friendship, error) {
	return s.getPendingRequestsFn(ctx, playerID)
}
func (s *friendRepoStub) GetSentRequests(ctx context.Context, playerID string) ([]models.Friendship, error) {
	return s.getSentRequestsFn(ctx, playerID)
}
func (s *friendRepoStub) UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus, acceptedAt *time.Time) error {
	return s.updateStatusFn(ctx, id, status, acceptedAt)
}
func (s *friendRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		createFn:             func(context.Context, *models.Friendship) error { return nil },
		getByIDFn:            func(_ context.Context, id string) (*models.Friendship, error) { return &models.Friendship{ID: id}, nil },
		findLiveBetweenFn:    func(context.Context, string, string) (*models.Friendship, error) { return nil, nil },
		areFriendsFn:         func(context.Context, string, string) (bool, error) { return false, nil },
		getFriendsFn:         func(context.Context, string) ([]models.Player, error) { return nil, nil },
		getPendingRequestsFn: func(context.Context, string) ([]models.Friendship, error) { return nil, nil },
		getSentRequestsFn:    func(context.Context, string) ([]models.Friendship, error) { return nil, nil },
		updateStatusFn:       func(context.Context, string, models.FriendshipStatus, *time.Time) error { return nil },
		deleteFn:             func(context.Context, string) error { return nil },
	}
}

type battleRepoStub struct {
	createFn                  func(context.Context, *models.Battle) error
	getByIDFn                 func(context.Context, string) (*models.Battle, error)
	listForPlayerFn           func(context.Context, string) ([]models.Battle, error)
	listPendingForPlayerFn    func(context.Context, string) ([]models.Battle, error)
	listForPlayerByCategoryFn func(context.Context, string, string) ([]models.Battle, error)
	countPendingFn            func(context.Context, string) (int64, error)
	markPaidFn                func(context.Context, string, time.Time) error
	deleteFn                  func(context.Context, string) error
}

func (s *battleRepoStub) Create(ctx context.Context, battle *models.Battle) error {
	return s.createFn(ctx, battle)
}
func (s *battleRepoStub) GetByID(ctx context.Context, id string) (*models.Battle, error) {
	return s.getByIDFn(ctx, id)
}
func (s *battleRepoStub) ListForPlayer(ctx context.Context, playerID string) ([]models.Battle, error) {
	return s.listForPlayerFn(ctx, playerID)
}
func (s *battleRepoStub) ListPendingForPlayer(ctx context.Context, playerID string) ([]models.Battle, error) {
	return s.listPendingForPlayerFn(ctx, playerID)
}
func (s *battleRepoStub) ListForPlayerByCategory(ctx context.Context, playerID, category string) ([]models.Battle, error) {
	return s.listForPlayerByCategoryFn(ctx, playerID, category)
}
func (s *battleRepoStub) CountPending(ctx context.Context, playerID string) (int64, error) {
	return s.countPendingFn(ctx, playerID)
}
func (s *battleRepoStub) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	return s.markPaidFn(ctx, id, paidAt)
}
func (s *battleRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func noopBattleRepo() *battleRepoStub {
	return &battleRepoStub{
		createFn:                  func(context.Context, *models.Battle) error { return nil },
		getByIDFn:                 func(_ context.Context, id string) (*models.Battle, error) { return &models.Battle{ID: id}, nil },
		listForPlayerFn:           func(context.Context, string) ([]models.Battle, error) { return nil, nil },
		listPendingForPlayerFn:    func(context.Context, string) ([]models.Battle, error) { return nil, nil },
		listForPlayerByCategoryFn: func(context.Context, string, string) ([]models.Battle, error) { return nil, nil },
		countPendingFn:            func(context.Context, string) (int64, error) { return 0, nil },
		markPaidFn:                func(context.Context, string, time.Time) error { return nil },
		deleteFn:                  func(context.Context, string) error { return nil },
	}
}

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Contains(t, appErr.Message, message)
	}
}

func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation, message)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeNotFound, "")
}
