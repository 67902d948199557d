package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// DefaultSkin is the cosmetic skin assigned at registration.
	DefaultSkin = "default"
	// XPPerLevel scales the experience needed to leave a level.
	XPPerLevel = 100
	// MaxExperienceGrant caps a single experience grant.
	MaxExperienceGrant = 1_000_000
)

// Player is the game profile: nickname, progression, and balance.
// UserID is nil for players created without a login identity.
type Player struct {
	ID         string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *string         `gorm:"type:uuid;uniqueIndex:idx_players_user_id" json:"user_id,omitempty"`
	Nickname   string          `gorm:"type:varchar(20);uniqueIndex:idx_players_nickname;not null" json:"nickname"`
	Experience int             `gorm:"not null;default:0" json:"experience"`
	Level      int             `gorm:"not null;default:1" json:"level"`
	Balance    decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"balance"`
	ActiveSkin string          `gorm:"type:varchar(50);not null;default:'default'" json:"active_skin"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "players"
}

// NewPlayer returns a level-1 player with no experience, zero balance and the default skin.
func NewPlayer(nickname string, userID *string) *Player {
	return &Player{
		UserID:     userID,
		Nickname:   nickname,
		Level:      1,
		Balance:    decimal.Zero,
		ActiveSkin: DefaultSkin,
	}
}

// BeforeCreate assigns a UUID and fills progression defaults.
func (p *Player) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Level < 1 {
		p.Level = 1
	}
	if p.ActiveSkin == "" {
		p.ActiveSkin = DefaultSkin
	}
	return nil
}

// XPToNextLevel is the experience needed to leave the current level.
func (p *Player) XPToNextLevel() int {
	return p.Level * XPPerLevel
}

// GainExperience adds amount to the player's experience and levels up for as
// long as the accumulated experience covers the cost of the current level.
// Each level-up consumes its cost. It returns the number of levels gained.
// A negative amount, or one above MaxExperienceGrant, is rejected without
// touching the player.
func (p *Player) GainExperience(amount int) (int, error) {
	if amount < 0 {
		return 0, NewValidationError("experience amount must not be negative")
	}
	if amount > MaxExperienceGrant {
		return 0, NewValidationError(fmt.Sprintf("experience amount must not exceed %d", MaxExperienceGrant))
	}
	if p.Experience > math.MaxInt32-amount {
		return 0, NewValidationError("experience would overflow")
	}
	if p.Level < 1 {
		p.Level = 1
	}

	p.Experience += amount
	gained := 0
	for cost := p.XPToNextLevel(); p.Experience >= cost; cost = p.XPToNextLevel() {
		p.Experience -= cost
		p.Level++
		gained++
	}
	return gained, nil
}
