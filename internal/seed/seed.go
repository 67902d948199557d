package seed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"grapes/internal/middleware"
	"grapes/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Options tune how seed data is generated.
type Options struct {
	// SkipBcrypt stores passwords in plain text. Only for tests.
	SkipBcrypt bool
	// MaxDays spreads generated battles over this many past days.
	MaxDays int
	// RandomSeed makes generated data reproducible when non-zero.
	RandomSeed int64
}

// Seeder populates a database with fixture and generated data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// Factory exposes the underlying entity factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll removes every battle, friendship, player and user.
func (s *Seeder) ClearAll() error {
	middleware.Logger.Info("clearing existing data")
	for _, model := range []any{&models.Battle{}, &models.Friendship{}, &models.Player{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// ApplyFixtures inserts a fixture set in one transaction and returns the
// created players by nickname.
func (s *Seeder) ApplyFixtures(fx *Fixtures) (map[string]*models.Player, error) {
	players := make(map[string]*models.Player, len(fx.Players))

	err := s.db.Transaction(func(tx *gorm.DB) error {
		f := &Factory{db: tx, opts: s.factory.opts, rng: s.factory.rng}

		for _, pf := range fx.Players {
			var user *models.User
			if pf.Email != "" {
				u, err := f.CreateUser(pf.Email, fx.Password)
				if err != nil {
					return fmt.Errorf("create user %s: %w", pf.Email, err)
				}
				user = u
			}

			var gainErr error
			player, err := f.CreatePlayer(pf.Nickname, user, func(p *models.Player) {
				_, gainErr = p.GainExperience(pf.Experience)
				if pf.Balance != "" {
					p.Balance = decimal.RequireFromString(pf.Balance)
				}
				if pf.Skin != "" {
					p.ActiveSkin = pf.Skin
				}
			})
			if gainErr != nil {
				return gainErr
			}
			if err != nil {
				return fmt.Errorf("create player %s: %w", pf.Nickname, err)
			}
			players[pf.Nickname] = player
		}

		for _, ff := range fx.Friendships {
			if _, err := f.CreateFriendship(players[ff.Requester], players[ff.Addressee], ff.Status); err != nil {
				return fmt.Errorf("create friendship %s -> %s: %w", ff.Requester, ff.Addressee, err)
			}
		}

		for i, bf := range fx.Battles {
			overrides := []func(*models.Battle){func(b *models.Battle) {
				b.Amount = decimal.RequireFromString(strings.TrimSpace(bf.Amount))
				b.CreatorIsCreditor = bf.Creditor
				b.Category = strings.TrimSpace(bf.Category)
				b.Description = bf.Description
			}}
			if bf.Opponent != "" {
				overrides = append(overrides, Against(players[bf.Opponent]))
			} else {
				overrides = append(overrides, AgainstExternal(bf.External))
			}
			if bf.Paid {
				overrides = append(overrides, Settled(time.Now()))
			}
			if _, err := f.CreateBattle(players[bf.Creator], overrides...); err != nil {
				return fmt.Errorf("create battle %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.Info("fixtures applied",
		slog.Int("players", len(fx.Players)),
		slog.Int("friendships", len(fx.Friendships)),
		slog.Int("battles", len(fx.Battles)),
	)
	return players, nil
}

// SeedRandom creates numPlayers generated players, links neighbors in a ring
// of friendships and spreads numBattles battles among them. Roughly one battle
// in five is against an external party and one in four is already paid.
func (s *Seeder) SeedRandom(numPlayers, numBattles int) ([]*models.Player, error) {
	f := s.factory
	players := make([]*models.Player, 0, numPlayers)
	for i := 0; i < numPlayers; i++ {
		p, err := f.CreateRandomPlayer()
		if err != nil {
			return nil, fmt.Errorf("create player: %w", err)
		}
		players = append(players, p)
	}
	middleware.Logger.Info("players created", slog.Int("count", len(players)))

	if len(players) < 2 {
		return players, nil
	}

	friendships := 0
	for i := range players {
		next := (i + 1) % len(players)
		if len(players) == 2 && i == 1 {
			continue
		}
		status := models.FriendshipStatusAccepted
		if i%4 == 3 {
			status = models.FriendshipStatusPending
		}
		if _, err := f.CreateFriendship(players[i], players[next], status); err != nil {
			return nil, fmt.Errorf("create friendship: %w", err)
		}
		friendships++
	}
	middleware.Logger.Info("friendships created", slog.Int("count", friendships))

	for i := 0; i < numBattles; i++ {
		creator := players[f.rng.Intn(len(players))]
		var overrides []func(*models.Battle)
		if f.rng.Intn(5) == 0 {
			overrides = append(overrides, AgainstExternal(fakeExternalName()))
		} else {
			opponent := players[f.rng.Intn(len(players))]
			for opponent.ID == creator.ID {
				opponent = players[f.rng.Intn(len(players))]
			}
			overrides = append(overrides, Against(opponent))
		}
		if f.rng.Intn(4) == 0 {
			overrides = append(overrides, Settled(time.Now()))
		}
		if _, err := f.CreateBattle(creator, overrides...); err != nil {
			return nil, fmt.Errorf("create battle: %w", err)
		}
	}
	middleware.Logger.Info("battles created", slog.Int("count", numBattles))

	return players, nil
}
