package operation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const operationColumns = `id, owner_id, kind, payload, status, attempt_count, next_attempt_at, last_error, locked_until, created_at, updated_at`

// PostgresStore implements Store on a pgx connection pool. The claim CAS is a
// conditional UPDATE, and quota charges ride in the same transaction as the
// completing status update. It also implements the quota reader/incrementer
// pair used by the eligibility evaluator, backed by the owner_daily_quota
// table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store backed by the given pool. The schema is
// applied separately via migrations, see internal/db/migrations.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, ErrStoreNil
	}
	return &PostgresStore{pool: pool}, nil
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, op *Operation) (*Operation, error) {
	if op == nil {
		return nil, ErrPayloadNil
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO operations (id, owner_id, kind, payload, status, attempt_count, next_attempt_at, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		op.ID, op.OwnerID, op.Kind, op.Payload, op.Status, op.AttemptCount, op.NextAttemptAt, op.LastError, op.CreatedAt, op.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert operation %s: %w", op.ID, err)
	}

	return s.Get(ctx, op.ID)
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Operation, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+operationColumns+` FROM operations WHERE id = $1`, id)

	op, err := scanOperation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load operation %s: %w", id, err)
	}
	return op, nil
}

// FindDue implements Store.
func (s *PostgresStore) FindDue(ctx context.Context, now time.Time, kinds []string, limit int) ([]Operation, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + operationColumns + `
		FROM operations
		WHERE status IN ('pending', 'failed_retryable') AND next_attempt_at <= $1`
	args := []any{now}

	if len(kinds) > 0 {
		query += ` AND kind = ANY($2)`
		args = append(args, kinds)
	}
	query += fmt.Sprintf(` ORDER BY next_attempt_at ASC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query due operations: %w", err)
	}
	defer rows.Close()

	var due []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due operation: %w", err)
		}
		due = append(due, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read due operations: %w", err)
	}

	return due, nil
}

// Claim implements Store. The WHERE clause on awaitable statuses is the
// compare-and-swap: under concurrent claims the row-level lock lets exactly
// one UPDATE see an awaitable status.
func (s *PostgresStore) Claim(ctx context.Context, id uuid.UUID, lockFor time.Duration) (*Operation, error) {
	lockedUntil := time.Now().Add(lockFor)

	row := s.pool.QueryRow(ctx, `
		UPDATE operations
		SET status = 'in_flight', next_attempt_at = NULL, locked_until = $2, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'failed_retryable')
		RETURNING `+operationColumns,
		id, lockedUntil,
	)

	op, err := scanOperation(row)
	if err == nil {
		return op, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to claim operation %s: %w", id, err)
	}

	// Lost the CAS or the operation is gone; look once more to tell which.
	if _, getErr := s.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrAlreadyClaimed
}

// Release implements Store.
func (s *PostgresStore) Release(ctx context.Context, id uuid.UUID, rel Release) error {
	if err := validateRelease(rel); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin release transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	increment := 0
	if rel.CountAttempt {
		increment = 1
	}

	tag, err := tx.Exec(ctx, `
		UPDATE operations
		SET status = $2,
		    attempt_count = attempt_count + $3,
		    next_attempt_at = $4,
		    last_error = CASE WHEN $5 = '' THEN last_error ELSE $5 END,
		    locked_until = NULL,
		    updated_at = now()
		WHERE id = $1 AND status = 'in_flight'`,
		id, rel.Status, increment, rel.NextAttemptAt, rel.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to release operation %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		op, getErr := s.Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		if op.Status.Terminal() {
			return ErrTerminalState
		}
		return ErrNotClaimed
	}

	if rel.Status == StatusCompleted && rel.Quota != nil {
		if _, err := incrementQuota(ctx, tx, rel.Quota.OwnerID, rel.Quota.Day); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit release of operation %s: %w", id, err)
	}
	return nil
}

// Reschedule implements Store.
func (s *PostgresStore) Reschedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE operations
		SET next_attempt_at = $2, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'failed_retryable')`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule operation %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		op, getErr := s.Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		if op.Status.Terminal() {
			return ErrTerminalState
		}
		return ErrNotClaimed
	}
	return nil
}

// Cancel implements Store.
func (s *PostgresStore) Cancel(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE operations
		SET status = 'cancelled', next_attempt_at = NULL, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'failed_retryable')`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel operation %s: %w", id, err)
	}
	return nil
}

// RequeueExpired implements Store.
func (s *PostgresStore) RequeueExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE operations
		SET status = CASE WHEN attempt_count = 0 THEN 'pending' ELSE 'failed_retryable' END,
		    next_attempt_at = $1,
		    locked_until = NULL,
		    updated_at = now()
		WHERE status = 'in_flight' AND locked_until <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue expired operations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// PurgeTerminal implements Store.
func (s *PostgresStore) PurgeTerminal(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM operations
		WHERE status IN ('completed', 'failed_terminal', 'blocked', 'cancelled')
		  AND updated_at < $1`,
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge terminal operations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Increment implements QuotaIncrementer outside a release transaction, for
// callers that charge quota independently of an operation.
func (s *PostgresStore) Increment(ctx context.Context, ownerID, day string) (int, error) {
	return incrementQuota(ctx, s.pool, ownerID, day)
}

// Used returns the owner's consumed quota for the given local day.
func (s *PostgresStore) Used(ctx context.Context, ownerID, day string) (int, error) {
	var used int
	err := s.pool.QueryRow(ctx,
		`SELECT used FROM owner_daily_quota WHERE owner_id = $1 AND day = $2`,
		ownerID, day,
	).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota for owner %q: %w", ownerID, err)
	}
	return used, nil
}

type execer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func incrementQuota(ctx context.Context, db execer, ownerID, day string) (int, error) {
	var used int
	err := db.QueryRow(ctx, `
		INSERT INTO owner_daily_quota (owner_id, day, used)
		VALUES ($1, $2, 1)
		ON CONFLICT (owner_id, day) DO UPDATE SET used = owner_daily_quota.used + 1
		RETURNING used`,
		ownerID, day,
	).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("failed to increment quota for owner %q: %w", ownerID, err)
	}
	return used, nil
}

func scanOperation(row pgx.Row) (*Operation, error) {
	var op Operation
	err := row.Scan(
		&op.ID,
		&op.OwnerID,
		&op.Kind,
		&op.Payload,
		&op.Status,
		&op.AttemptCount,
		&op.NextAttemptAt,
		&op.LastError,
		&op.LockedUntil,
		&op.CreatedAt,
		&op.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &op, nil
}
