package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty is one rung of the shared three-level ladder used by both games.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ErrUnknownDifficulty indicates a difficulty outside the ladder.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Ladder is the canonical unlock order, easiest first.
var Ladder = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty maps user input onto the ladder.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
}

// Index returns the ladder position of d, or -1 when d is not on the ladder.
func (d Difficulty) Index() int {
	for i, v := range Ladder {
		if v == d {
			return i
		}
	}
	return -1
}

// Next returns the next harder difficulty and false after the last rung.
func (d Difficulty) Next() (Difficulty, bool) {
	i := d.Index()
	if i < 0 || i >= len(Ladder)-1 {
		return "", false
	}
	return Ladder[i+1], true
}

// UnlockedWithin reports whether d is playable when the unlock high-water
// mark sits at max.
func (d Difficulty) UnlockedWithin(max Difficulty) bool {
	di, mi := d.Index(), max.Index()
	return di >= 0 && mi >= 0 && di <= mi
}

// Label is the display form of the difficulty.
func (d Difficulty) Label() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}
