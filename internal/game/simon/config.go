package simon

import (
	"math"
	"time"

	"neon-arcade/internal/domain"
)

// Level tunes one difficulty: board size, run length, and the
// presentation pacing it starts and bottoms out at.
type Level struct {
	Pads      int
	MaxRounds int
	BaseOn    time.Duration
	BaseOff   time.Duration
	MinOn     time.Duration
	MinOff    time.Duration
}

// Config is the engine tuning. Round counts differ across revisions of
// the game, so they are configuration with these canonical defaults.
type Config struct {
	Levels map[domain.Difficulty]Level

	// GetReady pauses between Start and the first round's replay.
	GetReady time.Duration
	// LeadIn pauses before each replay begins.
	LeadIn time.Duration
	// RoundDelay separates a completed round from the next replay.
	RoundDelay time.Duration
	// AdvanceDelay separates a win from the auto-started next run.
	AdvanceDelay time.Duration
}

// DefaultConfig returns the shipped tuning: 4 pads over 10 rounds on
// easy, 5 over 15 on medium, 6 over 20 on hard.
func DefaultConfig() Config {
	return Config{
		Levels: map[domain.Difficulty]Level{
			domain.DifficultyEasy: {
				Pads: 4, MaxRounds: 10,
				BaseOn: 520 * time.Millisecond, BaseOff: 170 * time.Millisecond,
				MinOn: 240 * time.Millisecond, MinOff: 90 * time.Millisecond,
			},
			domain.DifficultyMedium: {
				Pads: 5, MaxRounds: 15,
				BaseOn: 480 * time.Millisecond, BaseOff: 150 * time.Millisecond,
				MinOn: 230 * time.Millisecond, MinOff: 85 * time.Millisecond,
			},
			domain.DifficultyHard: {
				Pads: 6, MaxRounds: 20,
				BaseOn: 450 * time.Millisecond, BaseOff: 130 * time.Millisecond,
				MinOn: 220 * time.Millisecond, MinOff: 80 * time.Millisecond,
			},
		},
		GetReady:     420 * time.Millisecond,
		LeadIn:       260 * time.Millisecond,
		RoundDelay:   520 * time.Millisecond,
		AdvanceDelay: 780 * time.Millisecond,
	}
}

// Timing returns the on/off flash durations for a round, easing from the
// level's base pace to its floor with a smoothstep over round progress.
func (c Config) Timing(d domain.Difficulty, round int) (on, off time.Duration) {
	lvl := c.Levels[d]
	if lvl.MaxRounds <= 1 {
		return lvl.BaseOn, lvl.BaseOff
	}

	t := float64(round-1) / float64(lvl.MaxRounds-1)
	t = math.Max(0, math.Min(1, t))
	eased := t * t * (3 - 2*t)

	on = lerp(lvl.BaseOn, lvl.MinOn, eased)
	off = lerp(lvl.BaseOff, lvl.MinOff, eased)
	return on, off
}

func lerp(a, b time.Duration, t float64) time.Duration {
	return a + time.Duration(math.Round(float64(b-a)*t))
}
