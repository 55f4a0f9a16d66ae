// Package memory provides map-backed implementations of the repository
// interfaces, used by tests and as a throwaway dev store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/repository"
)

// Store implements every repository interface over in-process maps.
type Store struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	session *domain.Session
	locks   map[string]domain.LockoutRecord
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]domain.User),
		locks: make(map[string]domain.LockoutRecord),
	}
}

func (s *Store) Init(ctx context.Context) error { return nil }

func (s *Store) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return fmt.Errorf("%w: username %q", repository.ErrDuplicate, user.Username)
		}
	}
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	return users, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdateStats(ctx context.Context, id string, stats domain.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Stats = cloneStats(stats)
	s.users[id] = u
	return nil
}

func (s *Store) Get(ctx context.Context) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, nil
	}
	out := *s.session
	return &out, nil
}

func (s *Store) Set(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = &session
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return nil
}

func (s *Store) GetLock(ctx context.Context, key string) (*domain.LockoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.locks[strings.ToLower(key)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) UpsertLock(ctx context.Context, key string, rec domain.LockoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locks[strings.ToLower(key)] = rec
	return nil
}

func (s *Store) DeleteLock(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, strings.ToLower(key))
	return nil
}

// Users returns the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return s }

// Sessions returns the store as a SessionRepository.
func (s *Store) Sessions() repository.SessionRepository { return s }

// Locks returns a LockRepository view over the store.
func (s *Store) Locks() repository.LockRepository { return lockView{s} }

// lockView exists because LockRepository's Get signature differs from
// SessionRepository's on the shared Store.
type lockView struct {
	s *Store
}

func (v lockView) Init(ctx context.Context) error { return nil }

func (v lockView) Get(ctx context.Context, key string) (*domain.LockoutRecord, error) {
	return v.s.GetLock(ctx, key)
}

func (v lockView) Upsert(ctx context.Context, key string, rec domain.LockoutRecord) error {
	return v.s.UpsertLock(ctx, key, rec)
}

func (v lockView) Delete(ctx context.Context, key string) error {
	return v.s.DeleteLock(ctx, key)
}

func cloneUser(u domain.User) domain.User {
	u.Stats = cloneStats(u.Stats)
	return u
}

func cloneStats(st domain.Stats) domain.Stats {
	if st.LastPlayed != nil {
		t := *st.LastPlayed
		st.LastPlayed = &t
	}
	best := make(map[domain.Difficulty]int, len(st.Simon.BestByDiff))
	for k, v := range st.Simon.BestByDiff {
		best[k] = v
	}
	st.Simon.BestByDiff = best
	return st
}
