package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"grapes/internal/database"
	"grapes/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
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

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestDefaultFixtures_AreValid(t *testing.T) {
	fx, err := DefaultFixtures()
	require.NoError(t, err)
	assert.NotEmpty(t, fx.Players)
	assert.NotEmpty(t, fx.Friendships)
	assert.NotEmpty(t, fx.Battles)
}

func TestParseFixtures_Rejections(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"Empty", "players: []", "no players"},
		{"Malformed", "players: [", "decode fixtures"},
		{"Bad Nickname", "players:\n  - nickname: a b\n", "player"},
		{"Duplicate Player", "players:\n  - nickname: Alice\n  - nickname: Alice\n", "declared twice"},
		{"Weak Password", "password: abc\nplayers:\n  - nickname: Alice\n    email: alice@example.com\n", "fixtures password"},
		{
			"Unknown Friend",
			"players:\n  - nickname: Alice\nfriendships:\n  - requester: Alice\n    addressee: Bob\n    status: PENDING\n",
			"unknown player",
		},
		{
			"Bad Status",
			"players:\n  - nickname: Alice\n  - nickname: Bob\nfriendships:\n  - requester: Alice\n    addressee: Bob\n    status: MAYBE\n",
			"unknown status",
		},
		{
			"Self Battle",
			"players:\n  - nickname: Alice\nbattles:\n  - creator: Alice\n    opponent: Alice\n    amount: \"1\"\n    category: food\n",
			"against themselves",
		},
		{
			"Zero Amount",
			"players:\n  - nickname: Alice\nbattles:\n  - creator: Alice\n    external: Joe\n    amount: \"0\"\n    category: food\n",
			"amount must be greater than zero",
		},
		{
			"Both Counterparts",
			"players:\n  - nickname: Alice\n  - nickname: Bob\nbattles:\n  - creator: Alice\n    opponent: Bob\n    external: Joe\n    amount: \"1\"\n    category: food\n",
			"not both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFixturesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yml")
	require.NoError(t, os.WriteFile(path, []byte("players:\n  - nickname: Solo\n"), 0o600))

	fx, err := LoadFixturesFile(path)
	require.NoError(t, err)
	require.Len(t, fx.Players, 1)
	assert.Equal(t, "Solo", fx.Players[0].Nickname)

	_, err = LoadFixturesFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestApplyFixtures_Default(t *testing.T) {
	db := openTestDB(t)
	fx, err := DefaultFixtures()
	require.NoError(t, err)

	players, err := NewSeeder(db, Options{SkipBcrypt: true}).ApplyFixtures(fx)
	require.NoError(t, err)

	assert.Equal(t, int64(len(fx.Players)), count(t, db, &models.Player{}))
	assert.Equal(t, int64(3), count(t, db, &models.User{}))
	assert.Equal(t, int64(len(fx.Friendships)), count(t, db, &models.Friendship{}))
	assert.Equal(t, int64(len(fx.Battles)), count(t, db, &models.Battle{}))

	alice := players["Alice"]
	require.NotNil(t, alice)
	assert.Equal(t, 2, alice.Level)
	assert.Equal(t, 150, alice.Experience)
	assert.True(t, alice.Balance.Equal(decimal.RequireFromString("120")))
	assert.Nil(t, players["Dave"].UserID)
	assert.Equal(t, "neon", players["Carol"].ActiveSkin)

	var paid int64
	require.NoError(t, db.Model(&models.Battle{}).Where("status = ?", models.BattleStatusPaid).Count(&paid).Error)
	assert.Equal(t, int64(1), paid)

	var external models.Battle
	require.NoError(t, db.Where("external_name IS NOT NULL").First(&external).Error)
	assert.Equal(t, "Uncle Joe", *external.ExternalName)
	assert.Nil(t, external.OpponentID)
}

func TestApplyFixtures_RollsBackOnConflict(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(models.NewPlayer("Carol", nil)).Error)

	fx, err := DefaultFixtures()
	require.NoError(t, err)

	_, err = NewSeeder(db, Options{SkipBcrypt: true}).ApplyFixtures(fx)
	require.Error(t, err)

	assert.Equal(t, int64(1), count(t, db, &models.Player{}))
	assert.Zero(t, count(t, db, &models.User{}))
}

func TestSeedRandom(t *testing.T) {
	db := openTestDB(t)
	s := NewSeeder(db, Options{SkipBcrypt: true, RandomSeed: 42})

	players, err := s.SeedRandom(6, 20)
	require.NoError(t, err)
	require.Len(t, players, 6)

	assert.Equal(t, int64(6), count(t, db, &models.User{}))
	assert.Equal(t, int64(6), count(t, db, &models.Friendship{}))
	assert.Equal(t, int64(20), count(t, db, &models.Battle{}))

	var selfBattles int64
	require.NoError(t, db.Model(&models.Battle{}).Where("creator_id = opponent_id").Count(&selfBattles).Error)
	assert.Zero(t, selfBattles)

	for _, p := range players {
		assert.GreaterOrEqual(t, p.Level, 1)
		assert.Less(t, p.Experience, p.XPToNextLevel())
	}
}

func TestSeedRandom_TwoPlayersMakeOneFriendship(t *testing.T) {
	db := openTestDB(t)
	_, err := NewSeeder(db, Options{SkipBcrypt: true}).SeedRandom(2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(t, db, &models.Friendship{}))
}

func TestClearAll(t *testing.T) {
	db := openTestDB(t)
	s := NewSeeder(db, Options{SkipBcrypt: true})
	_, err := s.SeedRandom(3, 5)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll())

	for _, model := range []any{&models.Battle{}, &models.Friendship{}, &models.Player{}, &models.User{}} {
		assert.Zero(t, count(t, db, model))
	}
}

func TestFactory_Nickname(t *testing.T) {
	f := NewFactory(nil, Options{RandomSeed: 7})
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		nick := f.Nickname()
		assert.LessOrEqual(t, len(nick), 20)
		assert.GreaterOrEqual(t, len(nick), 3)
		assert.Regexp(t, `^[A-Za-z0-9_]+$`, nick)
		assert.False(t, seen[nick], "duplicate nickname %s", nick)
		seen[nick] = true
	}
}

func TestFactory_BuildBattle(t *testing.T) {
	f := NewFactory(nil, Options{RandomSeed: 3, MaxDays: 10})
	creator := &models.Player{ID: "creator"}
	opponent := &models.Player{ID: "opponent"}

	b := f.BuildBattle(creator, Against(opponent))
	assert.Equal(t, "creator", b.CreatorID)
	require.NotNil(t, b.OpponentID)
	assert.Nil(t, b.ExternalName)
	assert.True(t, b.Amount.IsPositive())
	assert.Equal(t, models.BattleStatusPending, b.Status)
	assert.Contains(t, battleCategories, b.Category)

	ext := f.BuildBattle(creator, AgainstExternal("  Joe  "))
	require.NotNil(t, ext.ExternalName)
	assert.Equal(t, "Joe", *ext.ExternalName)
	assert.Nil(t, ext.OpponentID)
}
