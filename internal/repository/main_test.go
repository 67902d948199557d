package repository

import (
	"context"
	"testing"
	"time"

	"grapes/internal/database"
	"grapes/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(context.Background(), db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// seedPlayer inserts a user and its player with a random email.
func seedPlayer(t *testing.T, db *gorm.DB, nickname string) *models.Player {
	t.Helper()
	user := &models.User{Email: gofakeit.Email(), Password: "hash"}
	require.NoError(t, db.Create(user).Error)

	player := models.NewPlayer(nickname, &user.ID)
	require.NoError(t, db.Create(player).Error)
	return player
}

func seedFriendship(t *testing.T, db *gorm.DB, requester, addressee *models.Player, status models.FriendshipStatus, createdAt time.Time) *models.Friendship {
	t.Helper()
	f := &models.Friendship{
		RequesterID: requester.ID,
		AddresseeID: addressee.ID,
		Status:      status,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(f).Error)
	return f
}

func seedBattle(t *testing.T, db *gorm.DB, creator *models.Player, opponent *models.Player, external, category string, status models.BattleStatus, createdAt time.Time) *models.Battle {
	t.Helper()
	b := &models.Battle{
		CreatorID:         creator.ID,
		CreatorIsCreditor: true,
		Amount:            decimal.RequireFromString("10.00"),
		Category:          category,
		Status:            status,
		CreatedAt:         createdAt,
	}
	if opponent != nil {
		b.OpponentID = &opponent.ID
	} else {
		b.ExternalName = &external
	}
	require.NoError(t, db.Create(b).Error)
	return b
}
