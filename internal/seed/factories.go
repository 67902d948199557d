// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"grapes/internal/models"
	"grapes/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the login password given to generated users.
const DefaultPassword = "password123"

var battleCategories = []string{"food", "rent", "bet", "travel", "gift", "drinks"}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	seq  int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed))}
}

func (f *Factory) hashPassword(password string) (string, error) {
	if f.opts.SkipBcrypt {
		return password, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Nickname returns a unique, valid nickname derived from a fake first name.
func (f *Factory) Nickname() string {
	f.seq++
	suffix := fmt.Sprintf("_%d", f.seq)

	var b strings.Builder
	for _, r := range gofakeit.FirstName() {
		if r < 128 && (r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "player"
	}
	if limit := validation.MaxNicknameLength - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	return base + suffix
}

// CreateUser persists a user with the given email and password.
func (f *Factory) CreateUser(email, password string) (*models.User, error) {
	hashed, err := f.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Email: validation.NormalizeEmail(email), Password: hashed}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePlayer constructs and persists a player. A non-nil user links the
// player to that login. Optional overrides run before the insert.
func (f *Factory) CreatePlayer(nickname string, user *models.User, overrides ...func(*models.Player)) (*models.Player, error) {
	var userID *string
	if user != nil {
		userID = &user.ID
	}
	player := models.NewPlayer(nickname, userID)
	for _, override := range overrides {
		override(player)
	}
	if err := f.db.Create(player).Error; err != nil {
		return nil, err
	}
	return player, nil
}

// CreateRandomPlayer creates a user with a fake email and its player, with
// some experience already earned.
func (f *Factory) CreateRandomPlayer() (*models.Player, error) {
	nickname := f.Nickname()
	user, err := f.CreateUser(strings.ToLower(nickname)+"@example.com", DefaultPassword)
	if err != nil {
		return nil, err
	}
	return f.CreatePlayer(nickname, user, func(p *models.Player) {
		_, _ = p.GainExperience(f.rng.Intn(1500))
	})
}

// CreateFriendship persists a friendship request between two players.
func (f *Factory) CreateFriendship(requester, addressee *models.Player, status models.FriendshipStatus) (*models.Friendship, error) {
	friendship := &models.Friendship{
		RequesterID: requester.ID,
		AddresseeID: addressee.ID,
		Status:      status,
	}
	if status == models.FriendshipStatusAccepted {
		now := time.Now()
		friendship.AcceptedAt = &now
	}
	if err := f.db.Create(friendship).Error; err != nil {
		return nil, err
	}
	return friendship, nil
}

// BuildBattle constructs a pending battle created by creator with a fake
// amount, category and description. It does not persist it.
func (f *Factory) BuildBattle(creator *models.Player, overrides ...func(*models.Battle)) *models.Battle {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 60
	}
	battle := &models.Battle{
		CreatorID:         creator.ID,
		CreatorIsCreditor: f.rng.Intn(2) == 0,
		Amount:            decimal.NewFromFloat(gofakeit.Price(1, 150)).Round(2),
		Category:          battleCategories[f.rng.Intn(len(battleCategories))],
		Description:       gofakeit.Sentence(4),
		Status:            models.BattleStatusPending,
		CreatedAt:         time.Now().Add(-time.Duration(f.rng.Intn(maxDays*24)) * time.Hour),
	}
	for _, override := range overrides {
		override(battle)
	}
	if len(battle.Description) > validation.MaxDescriptionLength {
		battle.Description = battle.Description[:validation.MaxDescriptionLength]
	}
	return battle
}

// CreateBattle builds and persists a battle.
func (f *Factory) CreateBattle(creator *models.Player, overrides ...func(*models.Battle)) (*models.Battle, error) {
	battle := f.BuildBattle(creator, overrides...)
	if err := f.db.Create(battle).Error; err != nil {
		return nil, err
	}
	return battle, nil
}

func fakeExternalName() string {
	name := gofakeit.Name()
	if len(name) > validation.MaxExternalNameLength {
		name = name[:validation.MaxExternalNameLength]
	}
	return name
}

// Against sets a registered opponent on a battle.
func Against(opponent *models.Player) func(*models.Battle) {
	return func(b *models.Battle) {
		b.OpponentID = &opponent.ID
		b.ExternalName = nil
	}
}

// AgainstExternal sets a free-text counterpart on a battle.
func AgainstExternal(name string) func(*models.Battle) {
	return func(b *models.Battle) {
		trimmed := strings.TrimSpace(name)
		b.ExternalName = &trimmed
		b.OpponentID = nil
	}
}

// Settled marks a battle as paid at the given time.
func Settled(at time.Time) func(*models.Battle) {
	return func(b *models.Battle) {
		b.Status = models.BattleStatusPaid
		b.PaidAt = &at
	}
}
