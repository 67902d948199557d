// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
	MinNicknameLength = 3
	MaxNicknameLength = 20
	MaxEmailLength    = 254

	MaxCategoryLength     = 50
	MaxDescriptionLength  = 255
	MaxExternalNameLength = 100
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
	nicknameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	// MaxAmount is the exclusive upper bound of a battle amount, set by the
	// NUMERIC(19,2) column.
	MaxAmount = decimal.New(1, 17)
)

// ValidatePassword checks the password length bounds.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	}
	return nil
}

// ValidateNickname checks that a nickname is 3-20 letters, digits or underscores.
func ValidateNickname(nickname string) error {
	if len(nickname) < MinNicknameLength || len(nickname) > MaxNicknameLength {
		return fmt.Errorf("nickname must be between %d and %d characters", MinNicknameLength, MaxNicknameLength)
	}
	if !nicknameRegex.MatchString(nickname) {
		return fmt.Errorf("nickname can only contain letters, numbers, and underscores")
	}
	return nil
}

// NormalizeEmail is the stored form of an email address: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// BattleInput is the user-supplied part of a new battle.
type BattleInput struct {
	OpponentNickname string
	ExternalName     string
	Amount           decimal.Decimal
	IAmCreditor      *bool
	Category         string
	Description      string
}

// ValidateBattleInput checks amount, category, description and that exactly one
// counterpart is named.
func ValidateBattleInput(in BattleInput) error {
	hasOpponent := strings.TrimSpace(in.OpponentNickname) != ""
	hasExternal := strings.TrimSpace(in.ExternalName) != ""
	switch {
	case hasOpponent && hasExternal:
		return fmt.Errorf("provide either opponentNickname or externalName, not both")
	case !hasOpponent && !hasExternal:
		return fmt.Errorf("either opponentNickname or externalName is required")
	}
	if hasExternal && utf8.RuneCountInString(in.ExternalName) > MaxExternalNameLength {
		return fmt.Errorf("externalName must not exceed %d characters", MaxExternalNameLength)
	}

	if !in.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if in.Amount.GreaterThanOrEqual(MaxAmount) {
		return fmt.Errorf("amount must be less than %s", MaxAmount.String())
	}
	if in.Amount.Exponent() < -2 && !in.Amount.Equal(in.Amount.Round(2)) {
		return fmt.Errorf("amount must have at most two decimal places")
	}
	if in.IAmCreditor == nil {
		return fmt.Errorf("iAmCreditor is required")
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		return fmt.Errorf("category is required")
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return fmt.Errorf("category must not exceed %d characters", MaxCategoryLength)
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return fmt.Errorf("description must not exceed %d characters", MaxDescriptionLength)
	}
	return nil
}
