package service

import (
	"context"
	"testing"
	"time"

	"grapes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = &models.Player{ID: "p-alice", Nickname: "alice", Level: 1}
	bob   = &models.Player{ID: "p-bob", Nickname: "bob", Level: 2}
	carol = &models.Player{ID: "p-carol", Nickname: "carol", Level: 1}
)

func friendServiceWith(friends *friendRepoStub) *FriendService {
	players := noopPlayerRepo()
	players.getByNicknameFn = playersByNickname(alice, bob, carol)
	svc := NewFriendService(friends, players)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestFriendService_SendRequest(t *testing.T) {
	t.Run("creates pending request", func(t *testing.T) {
		repo := noopFriendRepo()
		var created *models.Friendship
		repo.createFn = func(_ context.Context, f *models.Friendship) error {
			f.ID = "f1"
			created = f
			return nil
		}
		repo.getByIDFn = func(context.Context, string) (*models.Friendship, error) {
			return created, nil
		}

		f, err := friendServiceWith(repo).SendRequest(context.Background(), alice.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, models.FriendshipStatusPending, f.Status)
		assert.Equal(t, alice.ID, f.RequesterID)
		assert.Equal(t, bob.ID, f.AddresseeID)
		assert.Nil(t, f.AcceptedAt)
		assert.Equal(t, 2026, f.CreatedAt.Year())
	})

	t.Run("unknown nickname", func(t *testing.T) {
		_, err := friendServiceWith(noopFriendRepo()).SendRequest(context.Background(), alice.ID, "ghost")
		assertNotFoundError(t, err)
	})

	t.Run("self", func(t *testing.T) {
		_, err := friendServiceWith(noopFriendRepo()).SendRequest(context.Background(), alice.ID, "alice")
		assertValidationError(t, err, "yourself")
	})

	t.Run("already friends", func(t *testing.T) {
		repo := noopFriendRepo()
		repo.findLiveBetweenFn = func(context.Context, string, string) (*models.Friendship, error) {
			return &models.Friendship{Status: models.FriendshipStatusAccepted}, nil
		}
		_, err := friendServiceWith(repo).SendRequest(context.Background(), alice.ID, "bob")
		assertValidationError(t, err, "already friends")
	})

	t.Run("pending in either direction", func(t *testing.T) {
		repo := noopFriendRepo()
		repo.findLiveBetweenFn = func(_ context.Context, a, b string) (*models.Friendship, error) {
			// The pending request was sent by bob to alice.
			return &models.Friendship{RequesterID: bob.ID, AddresseeID: alice.ID, Status: models.FriendshipStatusPending}, nil
		}
		repo.createFn = func(context.Context, *models.Friendship) error {
			t.Fatal("must not create a duplicate request")
			return nil
		}
		_, err := friendServiceWith(repo).SendRequest(context.Background(), alice.ID, "bob")
		assertValidationError(t, err, "friend request already pending")
	})
}

func pendingFriendship() *models.Friendship {
	return &models.Friendship{
		ID:          "f1",
		RequesterID: alice.ID,
		AddresseeID: bob.ID,
		Status:      models.FriendshipStatusPending,
		Requester:   alice,
		Addressee:   bob,
	}
}

func TestFriendService_Respond(t *testing.T) {
	t.Run("accept sets accepted_at", func(t *testing.T) {
		repo := noopFriendRepo()
		repo.getByIDFn = func(context.Context, string) (*models.Friendship, error) { return pendingFriendship(), nil }
		var gotStatus models.FriendshipStatus
		var gotAcceptedAt *time.Time
		repo.updateStatusFn = func(_ context.Context, _ string, status models.FriendshipStatus, at *time.Time) error {
			gotStatus, gotAcceptedAt = status, at
			return nil
		}

		f, err := friendServiceWith(repo).AcceptRequest(context.Background(), "f1", bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.FriendshipStatusAccepted, f.Status)
		assert.Equal(t, models.FriendshipStatusAccepted, gotStatus)
		require.NotNil(t, gotAcceptedAt)
		require.NotNil(t, f.AcceptedAt)
	})

	t.Run("reject leaves accepted_at nil", func(t *testing.T) {
		repo := noopFriendRepo()
		repo.getByIDFn = func(context.Context, string) (*models.Friendship, error) { return pendingFriendship(), nil }
		var gotAcceptedAt *time.Time
		repo.updateStatusFn = func(_ context.Context, _ string, _ models.FriendshipStatus, at *time.Time) error {
			gotAcceptedAt = at
			return nil
		}

		f, err := friendServiceWith(repo).RejectRequest(context.Background(), "f1", bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.FriendshipStatusRejected, f.Status)
		assert.Nil(t, gotAcceptedAt)
		assert.Nil(t, f.AcceptedAt)
	})

	t.Run("only the addressee may respond", func(t *testing.T) {
		repo := noopFriendRepo()
		repo.getByIDFn = func(context.Context, string) (*models.Friendship, error) { return pendingFriendship(), nil }
		svc := friendServiceWith(repo)

		_, err := svc.AcceptRequest(context.Background(), "f1", alice.ID)
		assertValidationError(t, err, "not the addressee")
		_, err = svc.RejectRequest(context.Background(), "f1", carol.ID)
		assertValidationError(t, err, "not the addressee")
	})

	t.Run("already responded", func(t *testing.T) {
		for _, status := range []models.FriendshipStatus{models.FriendshipStatusAccepted, models.FriendshipStatusRejected} {
			repo := noopFriendRepo()
			repo.getByIDFn = func(context.Context, string) (*models.Friendship, error) {
				f := pendingFriendship()
				f.Status = status
				return f, nil
			}
			_, err := friendServiceWith(repo).AcceptRequest(context.Background(), "f1", bob.ID)
			assertValidationError(t, err, "request already responded")
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo := noopFriendRepo()
		repo.getByIDFn = func(_ context.Context, id string) (*models.Friendship, error) {
			return nil, models.NewNotFoundError("Friendship", id)
		}
		_, err := friendServiceWith(repo).AcceptRequest(context.Background(), "nope", bob.ID)
		assertNotFoundError(t, err)
	})
}

func TestFriendService_RemoveFriendship(t *testing.T) {
	repo := noopFriendRepo()
	repo.getByIDFn = func(context.Context, string) (*models.Friendship, error) { return pendingFriendship(), nil }
	deleted := ""
	repo.deleteFn = func(_ context.Context, id string) error {
		deleted = id
		return nil
	}
	svc := friendServiceWith(repo)

	err := svc.RemoveFriendship(context.Background(), "f1", carol.ID)
	assertValidationError(t, err, "")
	assert.Empty(t, deleted)

	require.NoError(t, svc.RemoveFriendship(context.Background(), "f1", alice.ID))
	assert.Equal(t, "f1", deleted)
}

func TestFriendService_AreFriendsByNickname(t *testing.T) {
	repo := noopFriendRepo()
	repo.areFriendsFn = func(_ context.Context, a, b string) (bool, error) {
		return a == alice.ID && b == bob.ID, nil
	}
	svc := friendServiceWith(repo)

	ok, err := svc.AreFriendsByNickname(context.Background(), alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.AreFriendsByNickname(context.Background(), alice.ID, "carol")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.AreFriendsByNickname(context.Background(), alice.ID, "ghost")
	assertNotFoundError(t, err)
}
