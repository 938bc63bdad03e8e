package repository

import (
	"context"
	"time"

	"study-access-redemption/internal/domain/model"
)

// AccessCodeRepository is the port for managing access codes.
//
// The backing store offers durable per-document writes and read-your-writes
// per document, but no cross-document transactions. Claim and MarkApplied
// are therefore specified as single conditional document updates; Claim is
// the linearization point of the whole redemption.
type AccessCodeRepository interface {
	// Save creates a new access code.
	Save(ctx context.Context, code *model.AccessCode) error
	// FindByCode finds a code regardless of claim state. Redemption reads
	// through this so a claimed code can still resume a half-done grant.
	FindByCode(ctx context.Context, code string) (*model.AccessCode, error)
	// Claim atomically transitions is_used false -> true, recording the
	// claiming user and time. It reports claimed=false without error when
	// the code was already used at the moment of write.
	Claim(ctx context.Context, id, userID string, at time.Time) (claimed bool, err error)
	// MarkApplied records that the claimed code's grant has landed on the
	// subscription.
	MarkApplied(ctx context.Context, id string) error
	// List returns the most recently created codes.
	List(ctx context.Context, limit int) ([]*model.AccessCode, error)
}
