package model

import (
	"strings"
	"time"

	"study-access-redemption/internal/domain"
)

// DefaultDurationDays is granted when a code carries a missing or malformed
// duration. Redemption must never be blocked by a bad duration field.
const DefaultDurationDays = 30

// AccessCode represents a single-use token that grants subscription days.
type AccessCode struct {
	ID           string
	Code         string // normalized lookup key
	DurationDays int
	IsUsed       bool
	UsedByUserID *string    // Pointer to allow for NULL
	UsedAt       *time.Time // Pointer to allow for NULL
	// Applied flips to true once the granted days have landed on the
	// subscription. A claimed-but-unapplied code marks a half-done
	// redemption that a retry is allowed to finish.
	Applied   bool
	CreatedAt time.Time
}

// NormalizeCode applies the single normalization policy for code lookups:
// trim surrounding whitespace, uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewAccessCode builds an unused code. A non-positive duration falls back to
// DefaultDurationDays.
func NewAccessCode(id, code string, durationDays int) (*AccessCode, error) {
	code = NormalizeCode(code)
	if id == "" || code == "" {
		return nil, domain.ErrInvalidArgument
	}
	if durationDays <= 0 {
		durationDays = DefaultDurationDays
	}
	return &AccessCode{
		ID:           id,
		Code:         code,
		DurationDays: durationDays,
		CreatedAt:    time.Now(),
	}, nil
}

// GrantDays returns the duration this code grants, substituting the default
// for malformed values.
func (c *AccessCode) GrantDays() int {
	if c.DurationDays <= 0 {
		return DefaultDurationDays
	}
	return c.DurationDays
}

// UsedBy reports whether the code has been claimed by the given user.
func (c *AccessCode) UsedBy(userID string) bool {
	return c.IsUsed && c.UsedByUserID != nil && *c.UsedByUserID == userID
}
