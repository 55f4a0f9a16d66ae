package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDifficulty(t *testing.T) {
	for _, in := range []string{"easy", "Easy", " EASY "} {
		d, err := ParseDifficulty(in)
		require.NoError(t, err, in)
		assert.Equal(t, DifficultyEasy, d)
	}

	_, err := ParseDifficulty("nightmare")
	assert.ErrorIs(t, err, ErrUnknownDifficulty)
}

func TestDifficultyNext(t *testing.T) {
	next, ok := DifficultyEasy.Next()
	require.True(t, ok)
	assert.Equal(t, DifficultyMedium, next)

	next, ok = DifficultyMedium.Next()
	require.True(t, ok)
	assert.Equal(t, DifficultyHard, next)

	_, ok = DifficultyHard.Next()
	assert.False(t, ok)
}

func TestDifficultyUnlockedWithin(t *testing.T) {
	assert.True(t, DifficultyEasy.UnlockedWithin(DifficultyEasy))
	assert.True(t, DifficultyMedium.UnlockedWithin(DifficultyHard))
	assert.False(t, DifficultyHard.UnlockedWithin(DifficultyMedium))
	assert.False(t, Difficulty("nightmare").UnlockedWithin(DifficultyHard))
}

func TestDifficultyLabel(t *testing.T) {
	assert.Equal(t, "Easy", DifficultyEasy.Label())
	assert.Equal(t, "", Difficulty("").Label())
}
