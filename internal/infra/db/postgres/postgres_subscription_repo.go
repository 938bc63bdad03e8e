package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-access-redemption/internal/domain"
	"study-access-redemption/internal/domain/model"
	"study-access-redemption/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) repository.SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, status, start_date, end_date, version, last_code_id, created_at`

func (r *subscriptionRepo) Create(ctx context.Context, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, user_id, status, start_date, end_date, version, last_code_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.pool.Exec(ctx, q, s.ID, s.UserID, s.Status, s.StartDate, s.EndDate, s.Version, s.LastCodeID, s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// Unique index on user_id collapses concurrent first-time creates.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE user_id = $1
 ORDER BY created_at DESC
 LIMIT 1;
`
	var s model.Subscription
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&s.ID, &s.UserID, &s.Status, &s.StartDate, &s.EndDate, &s.Version, &s.LastCodeID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &s, nil
}

// UpdateVersioned writes the subscription conditional on the version it was
// read at. RowsAffected 0 means another writer won; the caller re-reads and
// recomputes.
func (r *subscriptionRepo) UpdateVersioned(ctx context.Context, s *model.Subscription) error {
	const q = `
UPDATE subscriptions
   SET status = $2, end_date = $3, last_code_id = $4, version = version + 1
 WHERE id = $1 AND version = $5;
`
	tag, err := r.pool.Exec(ctx, q, s.ID, s.Status, s.EndDate, s.LastCodeID, s.Version)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	s.Version++
	return nil
}

func (r *subscriptionRepo) MarkExpired(ctx context.Context, now time.Time) (int, error) {
	const q = `
UPDATE subscriptions
   SET status = $2, version = version + 1
 WHERE status = $1 AND end_date < $3;
`
	tag, err := r.pool.Exec(ctx, q, model.SubscriptionStatusActive, model.SubscriptionStatusExpired, now)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return int(tag.RowsAffected()), nil
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	const q = `
SELECT status, COUNT(*)
  FROM subscriptions
 GROUP BY status;
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	out := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status model.SubscriptionStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
