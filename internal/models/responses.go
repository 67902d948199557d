package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	PlayerID  string `json:"playerId"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ExpiresIn int64  `json:"expiresIn"`
}

// PlayerPublic is the view of a player shown to other players.
type PlayerPublic struct {
	Nickname      string `json:"nickname"`
	ActiveSkin    string `json:"activeSkin"`
	Level         int    `json:"level"`
	Experience    int    `json:"experience"`
	XPToNextLevel int    `json:"xpToNextLevel"`
}

// PlayerPrivate is the view of a player shown to its owner.
type PlayerPrivate struct {
	PlayerPublic
	ID      string          `json:"id"`
	Email   string          `json:"email,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

// Friend is an accepted friend as listed to the other party.
type Friend struct {
	ID         string `json:"id"`
	Nickname   string `json:"nickname"`
	Level      int    `json:"level"`
	ActiveSkin string `json:"activeSkin"`
}

// FriendshipResponse describes a friend request.
type FriendshipResponse struct {
	ID                string           `json:"id"`
	RequesterNickname string           `json:"requesterNickname"`
	AddresseeNickname string           `json:"addresseeNickname"`
	Status            FriendshipStatus `json:"status"`
	CreatedAt         time.Time        `json:"createdAt"`
	AcceptedAt        *time.Time       `json:"acceptedAt,omitempty"`
}

// BattleView is a battle projected onto one viewer's side.
type BattleView struct {
	ID               string          `json:"id"`
	OpponentName     string          `json:"opponentName"`
	OpponentNickname *string         `json:"opponentNickname"`
	Amount           decimal.Decimal `json:"amount"`
	IsCreditor       bool            `json:"isCreditor"`
	Category         string          `json:"category"`
	Description      string          `json:"description,omitempty"`
	Status           BattleStatus    `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
}

// BattleSummary totals a viewer's pending battles.
type BattleSummary struct {
	PendingCount int64           `json:"pendingCount"`
	OwedToMe     decimal.Decimal `json:"owedToMe"`
	IOwe         decimal.Decimal `json:"iOwe"`
	Net          decimal.Decimal `json:"net"`
}

// ToPublic builds the public view of p.
func (p *Player) ToPublic() PlayerPublic {
	return PlayerPublic{
		Nickname:      p.Nickname,
		ActiveSkin:    p.ActiveSkin,
		Level:         p.Level,
		Experience:    p.Experience,
		XPToNextLevel: p.XPToNextLevel(),
	}
}

// ToPrivate builds the owner's view of p. email may be empty for user-less players.
func (p *Player) ToPrivate(email string) PlayerPrivate {
	return PlayerPrivate{
		PlayerPublic: p.ToPublic(),
		ID:           p.ID,
		Email:        email,
		Balance:      p.Balance,
	}
}

// ToFriend builds the friend-list entry for p.
func (p *Player) ToFriend() Friend {
	return Friend{
		ID:         p.ID,
		Nickname:   p.Nickname,
		Level:      p.Level,
		ActiveSkin: p.ActiveSkin,
	}
}

// ToResponse builds the API view of f. Requester and Addressee must be loaded.
func (f *Friendship) ToResponse() FriendshipResponse {
	resp := FriendshipResponse{
		ID:         f.ID,
		Status:     f.Status,
		CreatedAt:  f.CreatedAt,
		AcceptedAt: f.AcceptedAt,
	}
	if f.Requester != nil {
		resp.RequesterNickname = f.Requester.Nickname
	}
	if f.Addressee != nil {
		resp.AddresseeNickname = f.Addressee.Nickname
	}
	return resp
}

// ViewFor projects b onto viewerID's side. Creator and Opponent must be loaded.
func (b *Battle) ViewFor(viewerID string) BattleView {
	return BattleView{
		ID:               b.ID,
		OpponentName:     b.OpponentNameFor(viewerID),
		OpponentNickname: b.OpponentNicknameFor(viewerID),
		Amount:           b.Amount,
		IsCreditor:       b.IsCreditorFor(viewerID),
		Category:         b.Category,
		Description:      b.Description,
		Status:           b.Status,
		CreatedAt:        b.CreatedAt,
		PaidAt:           b.PaidAt,
	}
}

// ViewsFor projects every battle onto viewerID's side.
func ViewsFor(battles []Battle, viewerID string) []BattleView {
	views := make([]BattleView, 0, len(battles))
	for i := range battles {
		views = append(views, battles[i].ViewFor(viewerID))
	}
	return views
}

// SummarizeFor totals the pending battles in battles from viewerID's side.
func SummarizeFor(battles []Battle, viewerID string) BattleSummary {
	summary := BattleSummary{
		OwedToMe: decimal.Zero,
		IOwe:     decimal.Zero,
	}
	for i := range battles {
		b := &battles[i]
		if b.Status != BattleStatusPending || !b.Involves(viewerID) {
			continue
		}
		summary.PendingCount++
		if b.IsCreditorFor(viewerID) {
			summary.OwedToMe = summary.OwedToMe.Add(b.Amount)
		} else {
			summary.IOwe = summary.IOwe.Add(b.Amount)
		}
	}
	summary.Net = summary.OwedToMe.Sub(summary.IOwe)
	return summary
}
