package repository

import (
	"context"

	"neon-arcade/internal/domain"
)

// LockRepository stores lockout records keyed by lowercased username.
// Get returns (nil, nil) when no record exists for the key.
type LockRepository interface {
	Init(ctx context.Context) error
	Get(ctx context.Context, key string) (*domain.LockoutRecord, error)
	Upsert(ctx context.Context, key string, rec domain.LockoutRecord) error
	Delete(ctx context.Context, key string) error
}
