package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendshipStatus represents the status of a friendship request.
type FriendshipStatus string

const (
	// FriendshipStatusPending indicates a request awaiting the addressee's answer.
	FriendshipStatusPending FriendshipStatus = "PENDING"
	// FriendshipStatusAccepted indicates an accepted request.
	FriendshipStatusAccepted FriendshipStatus = "ACCEPTED"
	// FriendshipStatusRejected indicates a rejected request.
	FriendshipStatusRejected FriendshipStatus = "REJECTED"
)

// Friendship is a directed request from Requester to Addressee.
type Friendship struct {
	ID          string           `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID string           `gorm:"type:uuid;not null;index:idx_friendships_pair,priority:1" json:"requester_id"`
	AddresseeID string           `gorm:"type:uuid;not null;index:idx_friendships_pair,priority:2;index:idx_friendships_addressee" json:"addressee_id"`
	Status      FriendshipStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_friendships_status" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	AcceptedAt  *time.Time       `json:"accepted_at,omitempty"`

	Requester *Player `gorm:"foreignKey:RequesterID" json:"-"`
	Addressee *Player `gorm:"foreignKey:AddresseeID" json:"-"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// BeforeCreate assigns a UUID. Direction is preserved so sent and received
// requests stay distinguishable.
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Involves reports whether playerID is either party of the friendship.
func (f *Friendship) Involves(playerID string) bool {
	return f.RequesterID == playerID || f.AddresseeID == playerID
}

// OtherParty returns the ID of the party that is not playerID.
func (f *Friendship) OtherParty(playerID string) string {
	if f.RequesterID == playerID {
		return f.AddresseeID
	}
	return f.RequesterID
}
