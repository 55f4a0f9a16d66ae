package domain

import "time"

// User represents a registered player of the portal.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	CreatedAt    time.Time
	Stats        Stats
}

// Stats holds the per-user progression state mutated by the game engines
// and the login counter mutated by the identity manager.
type Stats struct {
	TotalLogins int
	Points      int
	LastPlayed  *time.Time
	MemoryLevel Difficulty
	Simon       SimonStats
}

// SimonStats is the sequence game's persisted progression.
// UnlockedMax never moves backwards; CurrentDiff stays at or below
// UnlockedMax on the ladder.
type SimonStats struct {
	CurrentDiff Difficulty
	UnlockedMax Difficulty
	BestByDiff  map[Difficulty]int
}

// NewStats returns the zeroed stats assigned at registration.
func NewStats() Stats {
	return Stats{
		MemoryLevel: DifficultyEasy,
		Simon: SimonStats{
			CurrentDiff: DifficultyEasy,
			UnlockedMax: DifficultyEasy,
			BestByDiff:  map[Difficulty]int{},
		},
	}
}

// BestFor returns the best round reached for a difficulty, zero when unplayed.
func (s SimonStats) BestFor(d Difficulty) int {
	if s.BestByDiff == nil {
		return 0
	}
	return s.BestByDiff[d]
}
