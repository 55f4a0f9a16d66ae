package memory

import (
	"time"

	"neon-arcade/internal/domain"
)

// Config tunes the matching game. Pair counts, the points each cleared
// level awards, and the level thresholds are all data.
type Config struct {
	Pairs   map[domain.Difficulty]int
	Columns int
	Symbols []string

	// Award is the points granted for clearing a board at a level.
	Award map[domain.Difficulty]int
	// MediumAt and HardAt are the accumulated-points thresholds the
	// level is derived from.
	MediumAt int
	HardAt   int

	// ResolveDelay holds two revealed tiles up before comparing them.
	ResolveDelay time.Duration
	// AdvanceDelay separates a completed board from the auto-started
	// next one.
	AdvanceDelay time.Duration
}

// DefaultConfig returns the shipped tuning: 4/6/8 pairs on a fixed
// 4-column grid, 10/15/20 points per clear, medium at 20, hard at 50.
func DefaultConfig() Config {
	return Config{
		Pairs: map[domain.Difficulty]int{
			domain.DifficultyEasy:   4,
			domain.DifficultyMedium: 6,
			domain.DifficultyHard:   8,
		},
		Columns: 4,
		Symbols: []string{
			"rocket", "ufo", "galaxy", "bolt", "gamepad",
			"invader", "brain", "gem", "orb", "flame",
		},
		Award: map[domain.Difficulty]int{
			domain.DifficultyEasy:   10,
			domain.DifficultyMedium: 15,
			domain.DifficultyHard:   20,
		},
		MediumAt:     20,
		HardAt:       50,
		ResolveDelay: 600 * time.Millisecond,
		AdvanceDelay: 800 * time.Millisecond,
	}
}

// LevelFor derives the playing level from an accumulated points total.
func (c Config) LevelFor(points int) domain.Difficulty {
	switch {
	case points >= c.HardAt:
		return domain.DifficultyHard
	case points >= c.MediumAt:
		return domain.DifficultyMedium
	default:
		return domain.DifficultyEasy
	}
}
