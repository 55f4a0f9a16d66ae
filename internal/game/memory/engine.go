// Package memory implements the card-matching game engine. One Engine
// owns one player's board state machine; rendering happens elsewhere
// through the Sink contract.
package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/game/clock"
)

// Phase is the board state machine's position.
type Phase int

const (
	PhaseAwaitingFirstPick Phase = iota
	PhaseAwaitingSecondPick
	PhaseResolving
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingFirstPick:
		return "awaiting_first_pick"
	case PhaseAwaitingSecondPick:
		return "awaiting_second_pick"
	case PhaseResolving:
		return "resolving"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Tile is one board cell. A matched tile is logically out of play.
type Tile struct {
	Symbol   string
	Revealed bool
	Matched  bool
}

// HUD is the display state published alongside every event.
type HUD struct {
	Level   string
	Moves   int
	Matches int
	Pairs   int
	Points  int
}

// Event is one presentation-adapter notification. Tile is -1 when no
// tile is implicated.
type Event struct {
	Phase Phase
	Tile  int
	HUD   HUD
}

// Sink receives engine events. Implementations must not call back into
// the engine.
type Sink interface {
	Publish(Event)
}

// ProgressStore persists points and the derived level.
type ProgressStore interface {
	// AwardMemoryPoints adds points to the user's total and returns the
	// new total.
	AwardMemoryPoints(ctx context.Context, userID string, points int) (int, error)
	SetMemoryLevel(ctx context.Context, userID string, level domain.Difficulty) error
}

// Options configures a new Engine. Zero fields get defaults.
type Options struct {
	Config Config
	UserID string
	Points int
	Store  ProgressStore
	Sink   Sink
	Clock  clock.Clock
	Rand   *rand.Rand
	Logger *logrus.Logger
}

// Engine runs one player's matching game. Picks landing while two
// tiles resolve are dropped, not queued.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	clock  clock.Clock
	rng    *rand.Rand
	sink   Sink
	store  ProgressStore
	logger *logrus.Logger
	userID string

	level  domain.Difficulty
	points int

	phase   Phase
	tiles   []Tile
	first   int
	second  int
	moves   int
	matches int
	pairs   int

	// gen identifies the current board; resolve and advance timers from
	// a superseded board check it before mutating.
	gen uint64
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

func New(opts Options) *Engine {
	if opts.Config.Pairs == nil {
		opts.Config = DefaultConfig()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	e := &Engine{
		cfg:    opts.Config,
		clock:  opts.Clock,
		rng:    opts.Rand,
		sink:   opts.Sink,
		store:  opts.Store,
		logger: opts.Logger,
		userID: opts.UserID,
		points: opts.Points,
		level:  opts.Config.LevelFor(opts.Points),
		first:  -1,
		second: -1,
	}
	return e
}

// Start builds a fresh board at the level derived from the player's
// points and opens it for picks.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buildBoardLocked()
}

// Pick reveals a tile. Picks on revealed or matched tiles, and picks
// while two tiles are pending resolution, are no-ops.
func (e *Engine) Pick(ctx context.Context, idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseAwaitingFirstPick && e.phase != PhaseAwaitingSecondPick {
		return
	}
	if idx < 0 || idx >= len(e.tiles) {
		return
	}
	tile := &e.tiles[idx]
	if tile.Revealed || tile.Matched {
		return
	}

	tile.Revealed = true

	if e.first < 0 {
		e.first = idx
		e.phase = PhaseAwaitingSecondPick
		e.publishLocked(idx)
		return
	}

	e.second = idx
	e.moves++
	e.phase = PhaseResolving
	e.publishLocked(idx)

	gen := e.gen
	e.clock.AfterFunc(e.cfg.ResolveDelay, e.guarded(gen, func() {
		e.resolveLocked(ctx)
	}))
}

// Stop cancels any pending timers and re-hides unresolved picks. Used
// when the engine is being discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gen++
	if e.first >= 0 {
		e.tiles[e.first].Revealed = false
	}
	if e.second >= 0 {
		e.tiles[e.second].Revealed = false
	}
	e.first, e.second = -1, -1
	if e.phase != PhaseComplete {
		e.phase = PhaseAwaitingFirstPick
	}
}

// Snapshot returns the board state for a presentation adapter. Hidden
// tiles carry no symbol; the board stays server-side.
type Snapshot struct {
	Phase   Phase
	Level   domain.Difficulty
	Columns int
	Tiles   []Tile
	Moves   int
	Matches int
	Pairs   int
	Points  int
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	tiles := make([]Tile, len(e.tiles))
	for i, t := range e.tiles {
		out := Tile{Revealed: t.Revealed, Matched: t.Matched}
		if t.Revealed || t.Matched {
			out.Symbol = t.Symbol
		}
		tiles[i] = out
	}
	return Snapshot{
		Phase:   e.phase,
		Level:   e.level,
		Columns: e.cfg.Columns,
		Tiles:   tiles,
		Moves:   e.moves,
		Matches: e.matches,
		Pairs:   e.pairs,
		Points:  e.points,
	}
}

func (e *Engine) buildBoardLocked() {
	e.gen++
	e.level = e.cfg.LevelFor(e.points)
	e.pairs = e.cfg.Pairs[e.level]
	// a configured pair count never outruns the symbol set
	if e.pairs > len(e.cfg.Symbols) {
		e.pairs = len(e.cfg.Symbols)
	}
	if e.pairs < 1 {
		e.pairs = 1
	}
	e.first, e.second = -1, -1
	e.moves, e.matches = 0, 0

	symbols := make([]string, 0, e.pairs*2)
	for _, s := range e.cfg.Symbols[:e.pairs] {
		symbols = append(symbols, s, s)
	}
	e.rng.Shuffle(len(symbols), func(i, j int) {
		symbols[i], symbols[j] = symbols[j], symbols[i]
	})

	e.tiles = make([]Tile, len(symbols))
	for i, s := range symbols {
		e.tiles[i] = Tile{Symbol: s}
	}
	e.phase = PhaseAwaitingFirstPick
	e.publishLocked(-1)
}

func (e *Engine) resolveLocked(ctx context.Context) {
	first, second := e.first, e.second
	e.first, e.second = -1, -1

	if first < 0 || second < 0 {
		e.phase = PhaseAwaitingFirstPick
		return
	}

	a, b := &e.tiles[first], &e.tiles[second]
	if a.Symbol == b.Symbol {
		a.Matched, b.Matched = true, true
		a.Revealed, b.Revealed = false, false
		e.matches++

		if e.matches == e.pairs {
			e.completeLocked(ctx)
			return
		}
	} else {
		a.Revealed, b.Revealed = false, false
	}

	e.phase = PhaseAwaitingFirstPick
	e.publishLocked(-1)
}

// completeLocked awards points, recomputes the level from thresholds,
// persists, and auto-starts the next board.
func (e *Engine) completeLocked(ctx context.Context) {
	e.phase = PhaseComplete

	award := e.cfg.Award[e.level]
	if e.store != nil {
		total, err := e.store.AwardMemoryPoints(ctx, e.userID, award)
		if err != nil {
			e.logger.Warnf("award memory points: %v", err)
			e.points += award
		} else {
			e.points = total
		}
		newLevel := e.cfg.LevelFor(e.points)
		if err := e.store.SetMemoryLevel(ctx, e.userID, newLevel); err != nil {
			e.logger.Warnf("save memory level: %v", err)
		}
	} else {
		e.points += award
	}

	e.publishLocked(-1)

	gen := e.gen
	e.clock.AfterFunc(e.cfg.AdvanceDelay, e.guarded(gen, func() {
		e.buildBoardLocked()
	}))
}

// guarded wraps a timer callback so it only runs if the board that
// scheduled it is still current.
func (e *Engine) guarded(gen uint64, fn func()) func() {
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.gen != gen {
			return
		}
		fn()
	}
}

func (e *Engine) publishLocked(tile int) {
	e.sink.Publish(Event{
		Phase: e.phase,
		Tile:  tile,
		HUD: HUD{
			Level:   e.level.Label(),
			Moves:   e.moves,
			Matches: e.matches,
			Pairs:   e.pairs,
			Points:  e.points,
		},
	})
}
