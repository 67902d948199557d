package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"grapes/internal/models"
	"grapes/internal/validation"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yml
var defaultFixtures []byte

// Fixtures is a hand-written data set: players, the friendships between them
// and the battles they fought.
type Fixtures struct {
	Password    string              `yaml:"password"`
	Players     []PlayerFixture     `yaml:"players"`
	Friendships []FriendshipFixture `yaml:"friendships"`
	Battles     []BattleFixture     `yaml:"battles"`
}

// PlayerFixture describes one player. Email is optional; without it the
// player has no login.
type PlayerFixture struct {
	Nickname   string `yaml:"nickname"`
	Email      string `yaml:"email"`
	Experience int    `yaml:"experience"`
	Balance    string `yaml:"balance"`
	Skin       string `yaml:"skin"`
}

// FriendshipFixture is a request from Requester to Addressee, by nickname.
type FriendshipFixture struct {
	Requester string                  `yaml:"requester"`
	Addressee string                  `yaml:"addressee"`
	Status    models.FriendshipStatus `yaml:"status"`
}

// BattleFixture is a debt created by Creator against either Opponent (a
// nickname) or External (free text).
type BattleFixture struct {
	Creator     string `yaml:"creator"`
	Opponent    string `yaml:"opponent"`
	External    string `yaml:"external"`
	Amount      string `yaml:"amount"`
	Creditor    bool   `yaml:"creditor"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Paid        bool   `yaml:"paid"`
}

// DefaultFixtures returns the demo data set bundled with the binary.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// LoadFixturesFile reads and validates a fixtures file from disk.
func LoadFixturesFile(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(raw)
}

// ParseFixtures decodes YAML fixtures and checks them for consistency.
func ParseFixtures(raw []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate checks that every fixture obeys the same rules the API enforces
// and that friendships and battles only reference declared players.
func (fx *Fixtures) Validate() error {
	if len(fx.Players) == 0 {
		return errors.New("fixtures declare no players")
	}

	known := make(map[string]bool, len(fx.Players))
	hasLogin := false
	for _, p := range fx.Players {
		if err := validation.ValidateNickname(p.Nickname); err != nil {
			return fmt.Errorf("player %q: %w", p.Nickname, err)
		}
		if known[p.Nickname] {
			return fmt.Errorf("player %q declared twice", p.Nickname)
		}
		known[p.Nickname] = true

		if p.Email != "" {
			hasLogin = true
			if err := validation.ValidateEmail(p.Email); err != nil {
				return fmt.Errorf("player %q: %w", p.Nickname, err)
			}
		}
		if p.Experience < 0 {
			return fmt.Errorf("player %q: experience must not be negative", p.Nickname)
		}
		if p.Balance != "" {
			if _, err := decimal.NewFromString(p.Balance); err != nil {
				return fmt.Errorf("player %q: invalid balance: %w", p.Nickname, err)
			}
		}
	}
	if hasLogin {
		if err := validation.ValidatePassword(fx.Password); err != nil {
			return fmt.Errorf("fixtures password: %w", err)
		}
	}

	for i, f := range fx.Friendships {
		if !known[f.Requester] || !known[f.Addressee] {
			return fmt.Errorf("friendship %d references an unknown player", i)
		}
		if f.Requester == f.Addressee {
			return fmt.Errorf("friendship %d pairs %q with themselves", i, f.Requester)
		}
		switch f.Status {
		case models.FriendshipStatusPending, models.FriendshipStatusAccepted, models.FriendshipStatusRejected:
		default:
			return fmt.Errorf("friendship %d has unknown status %q", i, f.Status)
		}
	}

	for i, b := range fx.Battles {
		if !known[b.Creator] {
			return fmt.Errorf("battle %d references unknown creator %q", i, b.Creator)
		}
		if b.Opponent != "" && !known[b.Opponent] {
			return fmt.Errorf("battle %d references unknown opponent %q", i, b.Opponent)
		}
		if b.Opponent == b.Creator {
			return fmt.Errorf("battle %d pits %q against themselves", i, b.Creator)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(b.Amount))
		if err != nil {
			return fmt.Errorf("battle %d: invalid amount: %w", i, err)
		}
		creditor := b.Creditor
		if err := validation.ValidateBattleInput(validation.BattleInput{
			OpponentNickname: b.Opponent,
			ExternalName:     b.External,
			Amount:           amount,
			IAmCreditor:      &creditor,
			Category:         b.Category,
			Description:      b.Description,
		}); err != nil {
			return fmt.Errorf("battle %d: %w", i, err)
		}
	}
	return nil
}
