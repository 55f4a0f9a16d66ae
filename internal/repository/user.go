package repository

import (
	"context"

	"neon-arcade/internal/domain"
)

// UserRepository defines persistence operations for User records.
// Stats writes are read-modify-write: callers re-read the record via
// GetByID immediately before UpdateStats. Lookups that match no record
// return ErrNotFound; Create returns ErrDuplicate on a username
// collision.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateStats(ctx context.Context, id string, stats domain.Stats) error
}
