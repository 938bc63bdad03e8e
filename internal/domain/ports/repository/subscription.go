package repository

import (
	"context"
	"time"

	"study-access-redemption/internal/domain/model"
)

// SubscriptionRepository is the port for user subscriptions.
type SubscriptionRepository interface {
	// Create inserts a new subscription. Returns domain.ErrAlreadyExists
	// when the user already has one (unique index on user_id), which
	// callers treat as a concurrent-create conflict.
	Create(ctx context.Context, sub *model.Subscription) error
	// FindByUserID returns the user's subscription, newest first when
	// historical duplicates exist. domain.ErrNotFound when absent.
	FindByUserID(ctx context.Context, userID string) (*model.Subscription, error)
	// UpdateVersioned writes the subscription conditional on the version it
	// was read at, bumping the version on success. Returns
	// domain.ErrVersionConflict when another writer got there first.
	UpdateVersioned(ctx context.Context, sub *model.Subscription) error
	// MarkExpired flips active subscriptions whose end date has passed to
	// EXPIRED, returning how many were flipped.
	MarkExpired(ctx context.Context, now time.Time) (int, error)
	// CountByStatus reports subscription totals for metrics.
	CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error)
}
