package repository

import (
	"context"

	"neon-arcade/internal/domain"
)

// SessionRepository holds the single active session. Set replaces any
// previous session; Get returns (nil, nil) when none exists.
type SessionRepository interface {
	Init(ctx context.Context) error
	Get(ctx context.Context) (*domain.Session, error)
	Set(ctx context.Context, session domain.Session) error
	Clear(ctx context.Context) error
}
