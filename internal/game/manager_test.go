package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/game/clock"
	"neon-arcade/internal/game/memory"
	"neon-arcade/internal/game/simon"
)

type nopStore struct{}

func (nopStore) SaveSimonProgress(ctx context.Context, userID string, progress domain.SimonStats) error {
	return nil
}

func (nopStore) AwardMemoryPoints(ctx context.Context, userID string, points int) (int, error) {
	return points, nil
}

func (nopStore) SetMemoryLevel(ctx context.Context, userID string, level domain.Difficulty) error {
	return nil
}

func testUser(id string) *domain.User {
	return &domain.User{ID: id, Username: id, Stats: domain.NewStats()}
}

func newTestManager() *Manager {
	return NewManager(ManagerConfig{
		Clock: clock.NewManual(time.Unix(0, 0)),
		Seed:  1,
	}, nopStore{})
}

func TestEnginesAreReusedPerUser(t *testing.T) {
	m := newTestManager()
	user := testUser("u1")

	require.Same(t, m.SimonFor(user), m.SimonFor(user))
	require.Same(t, m.MemoryFor(user), m.MemoryFor(user))
}

func TestEnginesAreIsolatedBetweenUsers(t *testing.T) {
	m := newTestManager()

	assert.NotSame(t, m.SimonFor(testUser("u1")), m.SimonFor(testUser("u2")))
	assert.NotSame(t, m.MemoryFor(testUser("u1")), m.MemoryFor(testUser("u2")))
}

func TestDropDiscardsEngines(t *testing.T) {
	m := newTestManager()
	user := testUser("u1")

	first := m.SimonFor(user)
	m.Drop(user.ID)
	assert.NotSame(t, first, m.SimonFor(user))
}

func TestDropStopsPendingTimers(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	m := NewManager(ManagerConfig{Clock: mc, Seed: 1}, nopStore{})
	user := testUser("u1")

	e := m.SimonFor(user)
	e.Start(context.Background())
	m.Drop(user.ID)
	mc.Advance(time.Minute)

	if got := e.Snapshot().Phase; got != simon.PhaseIdle {
		t.Fatalf("orphaned engine kept running, phase = %v", got)
	}
}

func TestSimonEventsFlowThroughTheFeed(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	m := NewManager(ManagerConfig{Clock: mc, Seed: 1}, nopStore{})
	user := testUser("u1")

	m.SimonFor(user).Start(context.Background())
	mc.Advance(time.Minute)

	events := m.DrainSimonEvents(user.ID)
	require.NotEmpty(t, events)

	flashed := false
	for _, ev := range events {
		if ev.Phase == simon.PhasePresenting && ev.LitPad >= 0 {
			flashed = true
		}
	}
	assert.True(t, flashed, "presented sequence never surfaced a lit pad")

	// drain empties the feed
	assert.Empty(t, m.DrainSimonEvents(user.ID))
	assert.Nil(t, m.DrainSimonEvents("nobody"))
}

func TestMemoryEventsFlowThroughTheFeed(t *testing.T) {
	mc := clock.NewManual(time.Unix(0, 0))
	m := NewManager(ManagerConfig{Clock: mc, Seed: 1}, nopStore{})
	user := testUser("u1")

	m.MemoryFor(user).Start(context.Background())

	events := m.DrainMemoryEvents(user.ID)
	require.NotEmpty(t, events)
	assert.Equal(t, memory.PhaseAwaitingFirstPick, events[len(events)-1].Phase)
	assert.Empty(t, m.DrainMemoryEvents(user.ID))
}

func TestEngineSeededFromPersistedProgress(t *testing.T) {
	m := newTestManager()
	user := testUser("u1")
	user.Stats.Simon.CurrentDiff = domain.DifficultyMedium
	user.Stats.Simon.UnlockedMax = domain.DifficultyHard

	snap := m.SimonFor(user).Snapshot()
	assert.Equal(t, domain.DifficultyMedium, snap.Difficulty)
	assert.Equal(t, domain.DifficultyHard, snap.UnlockedMax)
}
