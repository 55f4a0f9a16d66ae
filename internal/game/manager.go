// Package game owns the per-user engine registry shared by the two
// game engines.
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/game/clock"
	"neon-arcade/internal/game/memory"
	"neon-arcade/internal/game/simon"
)

// ProgressStore is the union of what the two engines persist through.
type ProgressStore interface {
	simon.ProgressStore
	memory.ProgressStore
}

// ManagerConfig tunes the registry and the engines it creates.
type ManagerConfig struct {
	Simon  simon.Config
	Memory memory.Config
	Clock  clock.Clock
	Logger *logrus.Logger
	Seed   int64
}

// Manager hands out one engine per user per game, created on first use
// from the user's persisted stats and dropped on logout. It is the sole
// owner of engine lifetimes.
type Manager struct {
	cfg   ManagerConfig
	store ProgressStore

	mu          sync.Mutex
	simons      map[string]*simon.Engine
	boards      map[string]*memory.Engine
	simonFeeds  map[string]*SimonFeed
	memoryFeeds map[string]*MemoryFeed
}

func NewManager(cfg ManagerConfig, store ProgressStore) *Manager {
	if cfg.Simon.Levels == nil {
		cfg.Simon = simon.DefaultConfig()
	}
	if cfg.Memory.Pairs == nil {
		cfg.Memory = memory.DefaultConfig()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Manager{
		cfg:         cfg,
		store:       store,
		simons:      make(map[string]*simon.Engine),
		boards:      make(map[string]*memory.Engine),
		simonFeeds:  make(map[string]*SimonFeed),
		memoryFeeds: make(map[string]*MemoryFeed),
	}
}

// SimonFor returns the user's sequence-game engine, creating it from
// the user's persisted progression on first use.
func (m *Manager) SimonFor(user *domain.User) *simon.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.simons[user.ID]; ok {
		return e
	}
	feed := &SimonFeed{}
	e := simon.New(simon.Options{
		Config:   m.cfg.Simon,
		UserID:   user.ID,
		Progress: user.Stats.Simon,
		Store:    m.store,
		Sink:     feed,
		Clock:    m.cfg.Clock,
		Rand:     rand.New(rand.NewSource(m.cfg.Seed + int64(len(m.simons)))),
		Logger:   m.cfg.Logger,
	})
	m.simons[user.ID] = e
	m.simonFeeds[user.ID] = feed
	return e
}

// MemoryFor returns the user's matching-game engine, creating it from
// the user's points total on first use.
func (m *Manager) MemoryFor(user *domain.User) *memory.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.boards[user.ID]; ok {
		return e
	}
	feed := &MemoryFeed{}
	e := memory.New(memory.Options{
		Config: m.cfg.Memory,
		UserID: user.ID,
		Points: user.Stats.Points,
		Store:  m.store,
		Sink:   feed,
		Clock:  m.cfg.Clock,
		Rand:   rand.New(rand.NewSource(m.cfg.Seed + int64(len(m.boards)) + 1)),
		Logger: m.cfg.Logger,
	})
	m.boards[user.ID] = e
	m.memoryFeeds[user.ID] = feed
	return e
}

// DrainSimonEvents returns and clears the user's pending sequence-game
// events. Nil when the user has no engine.
func (m *Manager) DrainSimonEvents(userID string) []simon.Event {
	m.mu.Lock()
	feed, ok := m.simonFeeds[userID]
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return feed.Drain()
}

// DrainMemoryEvents returns and clears the user's pending
// matching-game events. Nil when the user has no engine.
func (m *Manager) DrainMemoryEvents(userID string) []memory.Event {
	m.mu.Lock()
	feed, ok := m.memoryFeeds[userID]
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return feed.Drain()
}

// Drop stops and discards a user's engines, typically on logout.
// Stopping bumps each engine's run generation, so timers still pending
// on the orphaned instances never fire.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.simons[userID]; ok {
		e.Stop()
	}
	if e, ok := m.boards[userID]; ok {
		e.Stop()
	}
	delete(m.simons, userID)
	delete(m.boards, userID)
	delete(m.simonFeeds, userID)
	delete(m.memoryFeeds, userID)
}
