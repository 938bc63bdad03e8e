package model

import (
	"time"

	"study-access-redemption/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired SubscriptionStatus = "EXPIRED"
)

// Subscription is a user's premium-access validity window. At most one
// document exists per user; the unique index on user_id enforces it for new
// rows (historical duplicates are read newest-first).
type Subscription struct {
	ID        string // UUID
	UserID    string
	Status    SubscriptionStatus
	StartDate time.Time
	EndDate   time.Time
	// Version is the optimistic-concurrency counter; every successful
	// update increments it, and writes carry the version they read.
	Version int64
	// LastCodeID is the access code whose grant landed most recently. A
	// retry of a claimed-but-unapplied code checks it to avoid extending
	// twice when only the code's applied flag failed to persist.
	LastCodeID *string
	CreatedAt  time.Time
}

// NewSubscription creates a first-time subscription starting now, granted by
// the given access code.
func NewSubscription(id, userID, codeID string, now time.Time, durationDays int) (*Subscription, error) {
	if id == "" || userID == "" || durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	s := &Subscription{
		ID:        id,
		UserID:    userID,
		Status:    SubscriptionStatusActive,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, durationDays),
		Version:   1,
		CreatedAt: now,
	}
	if codeID != "" {
		s.LastCodeID = &codeID
	}
	return s, nil
}

// ExtensionBase is the starting point for granting days: the current end
// date while it is still in the future, otherwise now. An expired
// subscription is extended from the redemption moment, never backdated.
func (s *Subscription) ExtensionBase(now time.Time) time.Time {
	if s.EndDate.After(now) {
		return s.EndDate
	}
	return now
}

// Extend pushes the end date out by durationDays from ExtensionBase and
// reactivates a lapsed subscription. StartDate is preserved.
func (s *Subscription) Extend(now time.Time, durationDays int, codeID string) {
	s.EndDate = s.ExtensionBase(now).AddDate(0, 0, durationDays)
	s.Status = SubscriptionStatusActive
	if codeID != "" {
		s.LastCodeID = &codeID
	}
}

// GrantedBy reports whether this code's extension already landed here.
func (s *Subscription) GrantedBy(codeID string) bool {
	return s.LastCodeID != nil && *s.LastCodeID == codeID
}

// Lapsed reports whether the validity window has passed.
func (s *Subscription) Lapsed(now time.Time) bool {
	return now.After(s.EndDate)
}
