package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BattleStatus is the settlement state of a battle.
type BattleStatus string

const (
	// BattleStatusPending marks an unsettled debt.
	BattleStatusPending BattleStatus = "PENDING"
	// BattleStatusPaid marks a settled debt.
	BattleStatusPaid BattleStatus = "PAID"
)

// Battle is a debt between its creator and either another player (OpponentID)
// or a free-text external party (ExternalName). Exactly one of the two is set.
// CreatorIsCreditor records which side is owed from the creator's perspective.
type Battle struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID         string          `gorm:"type:uuid;not null;index:idx_battles_creator" json:"creator_id"`
	OpponentID        *string         `gorm:"type:uuid;index:idx_battles_opponent" json:"opponent_id,omitempty"`
	ExternalName      *string         `gorm:"type:varchar(100);check:chk_battles_counterpart,(opponent_id IS NULL) <> (external_name IS NULL)" json:"external_name,omitempty"`
	CreatorIsCreditor bool            `gorm:"not null" json:"creator_is_creditor"`
	Amount            decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"amount"`
	Category          string          `gorm:"type:varchar(50);not null" json:"category"`
	Description       string          `gorm:"type:varchar(255)" json:"description,omitempty"`
	Status            BattleStatus    `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_battles_status" json:"status"`
	CreatedAt         time.Time       `gorm:"index:idx_battles_created_at" json:"created_at"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`

	Creator  *Player `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Opponent *Player `gorm:"foreignKey:OpponentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Battle) TableName() string {
	return "battles"
}

// BeforeCreate assigns a UUID when the caller has not set one.
func (b *Battle) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// IsExternal reports whether the counterpart is not a registered player.
func (b *Battle) IsExternal() bool {
	return b.OpponentID == nil
}

// IsCreator reports whether playerID created the battle.
func (b *Battle) IsCreator(playerID string) bool {
	return b.CreatorID == playerID
}

// IsOpponent reports whether playerID is the registered counterpart.
func (b *Battle) IsOpponent(playerID string) bool {
	return b.OpponentID != nil && *b.OpponentID == playerID
}

// Involves reports whether playerID is the creator or the opponent.
func (b *Battle) Involves(playerID string) bool {
	return b.IsCreator(playerID) || b.IsOpponent(playerID)
}

// IsCreditorFor reports whether viewerID is owed money. The creator sees
// CreatorIsCreditor as stored; anyone else sees its negation.
func (b *Battle) IsCreditorFor(viewerID string) bool {
	if b.IsCreator(viewerID) {
		return b.CreatorIsCreditor
	}
	return !b.CreatorIsCreditor
}

// OpponentNameFor returns the display name of the counterpart from viewerID's
// side: the opponent's nickname or the external name for the creator, and the
// creator's nickname for everyone else. Creator and Opponent must be loaded.
func (b *Battle) OpponentNameFor(viewerID string) string {
	if !b.IsCreator(viewerID) {
		if b.Creator != nil {
			return b.Creator.Nickname
		}
		return ""
	}
	if b.Opponent != nil {
		return b.Opponent.Nickname
	}
	if b.ExternalName != nil {
		return *b.ExternalName
	}
	return ""
}

// OpponentNicknameFor is like OpponentNameFor but nil when the counterpart
// seen by viewerID is external.
func (b *Battle) OpponentNicknameFor(viewerID string) *string {
	if b.IsCreator(viewerID) && b.IsExternal() {
		return nil
	}
	name := b.OpponentNameFor(viewerID)
	return &name
}
