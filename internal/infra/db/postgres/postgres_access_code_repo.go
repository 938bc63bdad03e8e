// File: internal/infra/db/postgres/postgres_access_code_repo.go
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

// Ensure implementation satisfies the interface.
var _ repository.AccessCodeRepository = (*accessCodeRepo)(nil)

type accessCodeRepo struct {
	pool *pgxpool.Pool
}

func NewAccessCodeRepo(pool *pgxpool.Pool) repository.AccessCodeRepository {
	return &accessCodeRepo{pool: pool}
}

const accessCodeColumns = `id, code, duration_days, is_used, used_by_user_id, used_at, applied, created_at`

func (r *accessCodeRepo) Save(ctx context.Context, code *model.AccessCode) error {
	const q = `
INSERT INTO access_codes (id, code, duration_days, is_used, used_by_user_id, used_at, applied, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.pool.Exec(ctx, q,
		code.ID, code.Code, code.DurationDays, code.IsUsed, code.UsedByUserID, code.UsedAt, code.Applied, code.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// FindByCode finds a code regardless of claim state.
func (r *accessCodeRepo) FindByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	const q = `
SELECT ` + accessCodeColumns + `
  FROM access_codes
 WHERE code = $1
 LIMIT 1;
`
	return r.scanOne(r.pool.QueryRow(ctx, q, code))
}

// Claim performs the conditional is_used FALSE -> TRUE transition. The WHERE
// guard plus RowsAffected is the linearization point: exactly one concurrent
// caller observes claimed=true.
func (r *accessCodeRepo) Claim(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	const q = `
UPDATE access_codes
   SET is_used = TRUE, used_by_user_id = $2, used_at = $3, applied = FALSE
 WHERE id = $1 AND is_used = FALSE;
`
	tag, err := r.pool.Exec(ctx, q, id, userID, at)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func (r *accessCodeRepo) MarkApplied(ctx context.Context, id string) error {
	const q = `
UPDATE access_codes
   SET applied = TRUE
 WHERE id = $1 AND is_used = TRUE;
`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accessCodeRepo) List(ctx context.Context, limit int) ([]*model.AccessCode, error) {
	const q = `
SELECT ` + accessCodeColumns + `
  FROM access_codes
 ORDER BY created_at DESC
 LIMIT $1;
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.AccessCode
	for rows.Next() {
		var ac model.AccessCode
		if err := rows.Scan(
			&ac.ID, &ac.Code, &ac.DurationDays, &ac.IsUsed, &ac.UsedByUserID, &ac.UsedAt, &ac.Applied, &ac.CreatedAt,
		); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &ac)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *accessCodeRepo) scanOne(row pgx.Row) (*model.AccessCode, error) {
	var ac model.AccessCode
	err := row.Scan(
		&ac.ID, &ac.Code, &ac.DurationDays, &ac.IsUsed, &ac.UsedByUserID, &ac.UsedAt, &ac.Applied, &ac.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &ac, nil
}
