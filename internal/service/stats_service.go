package service

import (
	"context"
	"fmt"
	"time"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/repository"
)

// StatsService is the progression write path shared by the game
// engines. Every write re-reads the user record first: the store has no
// transactional guarantees, so read-modify-write is the contract.
type StatsService interface {
	SaveSimonProgress(ctx context.Context, userID string, progress domain.SimonStats) error
	AwardMemoryPoints(ctx context.Context, userID string, points int) (int, error)
	SetMemoryLevel(ctx context.Context, userID string, level domain.Difficulty) error
	// Players returns the dashboard view of every registered user.
	Players(ctx context.Context) ([]domain.User, error)
}

type statsService struct {
	users repository.UserRepository
	now   func() time.Time
}

func NewStatsService(users repository.UserRepository) StatsService {
	return &statsService{users: users, now: time.Now}
}

func (s *statsService) SaveSimonProgress(ctx context.Context, userID string, progress domain.SimonStats) error {
	return s.mutate(ctx, userID, func(st *domain.Stats) {
		// unlocks only ratchet forward
		if progress.UnlockedMax.Index() < st.Simon.UnlockedMax.Index() {
			progress.UnlockedMax = st.Simon.UnlockedMax
		}
		if progress.BestByDiff == nil {
			progress.BestByDiff = map[domain.Difficulty]int{}
		}
		// best rounds are high-water marks, never decreased
		for d, best := range st.Simon.BestByDiff {
			if best > progress.BestByDiff[d] {
				progress.BestByDiff[d] = best
			}
		}
		st.Simon = progress
	})
}

func (s *statsService) AwardMemoryPoints(ctx context.Context, userID string, points int) (int, error) {
	var total int
	err := s.mutate(ctx, userID, func(st *domain.Stats) {
		st.Points += points
		total = st.Points
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *statsService) SetMemoryLevel(ctx context.Context, userID string, level domain.Difficulty) error {
	return s.mutate(ctx, userID, func(st *domain.Stats) {
		st.MemoryLevel = level
	})
}

func (s *statsService) Players(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *statsService) mutate(ctx context.Context, userID string, fn func(*domain.Stats)) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("reload user: %w", err)
	}

	fn(&user.Stats)
	played := s.now().UTC()
	user.Stats.LastPlayed = &played

	if err := s.users.UpdateStats(ctx, userID, user.Stats); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}
