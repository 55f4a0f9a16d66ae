package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/repository"
)

const createLocksTable = `
CREATE TABLE IF NOT EXISTS login_locks (
	username_lower TEXT PRIMARY KEY,
	failed_count INTEGER NOT NULL DEFAULT 0,
	locked_until DATETIME
);
`

type LockRepository struct {
	db *sql.DB
}

func NewLockRepository(db *sql.DB) repository.LockRepository {
	return &LockRepository{db: db}
}

func (r *LockRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLocksTable); err != nil {
		return fmt.Errorf("create login_locks table: %w", err)
	}
	return nil
}

func (r *LockRepository) Get(ctx context.Context, key string) (*domain.LockoutRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT failed_count, locked_until FROM login_locks WHERE username_lower = ?`,
		strings.ToLower(key),
	)

	var (
		rec   domain.LockoutRecord
		until sql.NullTime
	)
	if err := row.Scan(&rec.FailedCount, &until); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan lock record: %w", err)
	}
	if until.Valid {
		rec.LockedUntil = until.Time
	}
	return &rec, nil
}

func (r *LockRepository) Upsert(ctx context.Context, key string, rec domain.LockoutRecord) error {
	var until any
	if !rec.LockedUntil.IsZero() {
		until = rec.LockedUntil
	}
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO login_locks (username_lower, failed_count, locked_until)
VALUES (?, ?, ?)
ON CONFLICT(username_lower) DO UPDATE SET
	failed_count = excluded.failed_count,
	locked_until = excluded.locked_until`,
		strings.ToLower(key), rec.FailedCount, until,
	); err != nil {
		return fmt.Errorf("upsert lock record: %w", err)
	}
	return nil
}

func (r *LockRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `
DELETE FROM login_locks WHERE username_lower = ?`,
		strings.ToLower(key),
	); err != nil {
		return fmt.Errorf("delete lock record: %w", err)
	}
	return nil
}
