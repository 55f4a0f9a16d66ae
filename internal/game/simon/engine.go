// Package simon implements the sequence-memory game engine. One Engine
// owns one player's run state machine; all rendering happens elsewhere
// through the Sink contract.
package simon

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/game/clock"
)

// Phase is the run state machine's position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePresenting
	PhaseAwaitingInput
	PhaseFailed
	PhaseWon
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePresenting:
		return "presenting"
	case PhaseAwaitingInput:
		return "awaiting_input"
	case PhaseFailed:
		return "failed"
	case PhaseWon:
		return "won"
	default:
		return "unknown"
	}
}

// ErrDifficultyLocked is returned when selecting a difficulty above the
// player's unlock high-water mark. No state changes.
var ErrDifficultyLocked = errors.New("difficulty is locked")

// HUD is the display state published alongside every event.
type HUD struct {
	Difficulty string
	Round      int
	Best       int
}

// Event is one presentation-adapter notification. LitPad is -1 when no
// pad lights up.
type Event struct {
	Phase  Phase
	LitPad int
	HUD    HUD
}

// Sink receives engine events. Implementations must not call back into
// the engine.
type Sink interface {
	Publish(Event)
}

// ProgressStore persists the player's simon progression.
type ProgressStore interface {
	SaveSimonProgress(ctx context.Context, userID string, progress domain.SimonStats) error
}

// Options configures a new Engine. Zero fields get defaults.
type Options struct {
	Config   Config
	UserID   string
	Progress domain.SimonStats
	Store    ProgressStore
	Sink     Sink
	Clock    clock.Clock
	Rand     *rand.Rand
	Logger   *logrus.Logger
}

// Engine runs one player's sequence game. A single mutex serializes
// user picks against timer-driven phase transitions; picks arriving
// while a sequence is presenting are dropped, not queued.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	clock  clock.Clock
	rng    *rand.Rand
	sink   Sink
	store  ProgressStore
	logger *logrus.Logger
	userID string

	diff        domain.Difficulty
	unlockedMax domain.Difficulty
	best        map[domain.Difficulty]int

	phase    Phase
	sequence []int
	cursor   int
	round    int

	// gen identifies the current run; timer callbacks from a superseded
	// run compare against it and bail out.
	gen uint64
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

func New(opts Options) *Engine {
	if opts.Config.Levels == nil {
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

	diff := opts.Progress.CurrentDiff
	if diff.Index() < 0 {
		diff = domain.DifficultyEasy
	}
	unlocked := opts.Progress.UnlockedMax
	if unlocked.Index() < diff.Index() {
		unlocked = diff
	}
	best := make(map[domain.Difficulty]int, len(opts.Progress.BestByDiff))
	for k, v := range opts.Progress.BestByDiff {
		best[k] = v
	}

	return &Engine{
		cfg:         opts.Config,
		clock:       opts.Clock,
		rng:         opts.Rand,
		sink:        opts.Sink,
		store:       opts.Store,
		logger:      opts.Logger,
		userID:      opts.UserID,
		diff:        diff,
		unlockedMax: unlocked,
		best:        best,
		phase:       PhaseIdle,
	}
}

// Start begins a fresh run at the current difficulty. It is a no-op
// while a sequence is presenting.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == PhasePresenting {
		return
	}
	e.startRunLocked()
}

// Stop cancels any pending timers and parks the engine at Idle. Used
// when the engine is being discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gen++
	e.sequence = nil
	e.cursor = 0
	e.round = 0
	e.phase = PhaseIdle
	e.publishLocked(-1)
}

// SelectDifficulty switches the active difficulty, resetting any run in
// progress. A difficulty above the unlock high-water mark is rejected
// with ErrDifficultyLocked and nothing changes.
func (e *Engine) SelectDifficulty(ctx context.Context, d domain.Difficulty) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if d.Index() < 0 {
		return domain.ErrUnknownDifficulty
	}
	if !d.UnlockedWithin(e.unlockedMax) {
		return ErrDifficultyLocked
	}

	e.gen++ // cancel any pending timers for the old run
	e.diff = d
	e.sequence = nil
	e.cursor = 0
	e.round = 0
	e.phase = PhaseIdle
	e.persistLocked(ctx)
	e.publishLocked(-1)
	return nil
}

// Pick handles one pad press. Out-of-phase or out-of-range picks are
// dropped.
func (e *Engine) Pick(ctx context.Context, pad int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseAwaitingInput {
		return
	}
	lvl := e.cfg.Levels[e.diff]
	if pad < 0 || pad >= lvl.Pads {
		return
	}

	if pad != e.sequence[e.cursor] {
		e.phase = PhaseFailed
		e.publishLocked(pad)
		return
	}

	e.cursor++
	e.publishLocked(pad)
	if e.cursor < len(e.sequence) {
		return
	}

	// round complete with no unattempted pick left
	if e.round > e.best[e.diff] {
		e.best[e.diff] = e.round
		e.persistLocked(ctx)
	}

	if e.round >= lvl.MaxRounds {
		e.winLocked(ctx)
		return
	}

	e.phase = PhasePresenting
	gen := e.gen
	e.clock.AfterFunc(e.cfg.RoundDelay, e.guarded(gen, func() {
		e.beginRoundLocked()
	}))
}

// Snapshot returns the engine state for a presentation adapter.
type Snapshot struct {
	Phase       Phase
	Difficulty  domain.Difficulty
	UnlockedMax domain.Difficulty
	Pads        int
	Round       int
	MaxRounds   int
	Best        int
	Sequence    int // length only; the sequence itself stays server-side
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	lvl := e.cfg.Levels[e.diff]
	return Snapshot{
		Phase:       e.phase,
		Difficulty:  e.diff,
		UnlockedMax: e.unlockedMax,
		Pads:        lvl.Pads,
		Round:       e.round,
		MaxRounds:   lvl.MaxRounds,
		Best:        e.best[e.diff],
		Sequence:    len(e.sequence),
	}
}

// Progress returns the persisted-shape progression for this engine.
func (e *Engine) Progress() domain.SimonStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked()
}

func (e *Engine) startRunLocked() {
	e.gen++
	e.sequence = nil
	e.cursor = 0
	e.round = 0
	e.phase = PhasePresenting
	e.publishLocked(-1)

	gen := e.gen
	e.clock.AfterFunc(e.cfg.GetReady, e.guarded(gen, func() {
		e.beginRoundLocked()
	}))
}

// beginRoundLocked appends one step and replays the whole sequence.
// Sequence length stays equal to the round number.
func (e *Engine) beginRoundLocked() {
	lvl := e.cfg.Levels[e.diff]

	e.round++
	e.cursor = 0
	e.sequence = append(e.sequence, e.rng.Intn(lvl.Pads))
	e.phase = PhasePresenting
	e.publishLocked(-1)

	gen := e.gen
	on, off := e.cfg.Timing(e.diff, e.round)
	offset := e.cfg.LeadIn
	for _, pad := range e.sequence {
		pad := pad
		e.clock.AfterFunc(offset, e.guarded(gen, func() {
			e.publishLocked(pad)
		}))
		offset += on + off
	}
	e.clock.AfterFunc(offset, e.guarded(gen, func() {
		e.phase = PhaseAwaitingInput
		e.publishLocked(-1)
	}))
}

func (e *Engine) winLocked(ctx context.Context) {
	next, ok := e.diff.Next()
	if !ok {
		// hard cleared: stay Won, replay on demand
		e.phase = PhaseWon
		e.persistLocked(ctx)
		e.publishLocked(-1)
		return
	}

	if next.Index() > e.unlockedMax.Index() {
		e.unlockedMax = next
	}
	e.diff = next
	e.phase = PhaseWon
	e.persistLocked(ctx)
	e.publishLocked(-1)

	gen := e.gen
	e.clock.AfterFunc(e.cfg.AdvanceDelay, e.guarded(gen, func() {
		e.startRunLocked()
	}))
}

// guarded wraps a timer callback so it only runs if the run that
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

func (e *Engine) progressLocked() domain.SimonStats {
	best := make(map[domain.Difficulty]int, len(e.best))
	for k, v := range e.best {
		best[k] = v
	}
	return domain.SimonStats{
		CurrentDiff: e.diff,
		UnlockedMax: e.unlockedMax,
		BestByDiff:  best,
	}
}

// persistLocked writes progression through the store; a failing store
// never fails the run.
func (e *Engine) persistLocked(ctx context.Context) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveSimonProgress(ctx, e.userID, e.progressLocked()); err != nil {
		e.logger.Warnf("save simon progress: %v", err)
	}
}

func (e *Engine) publishLocked(litPad int) {
	e.sink.Publish(Event{
		Phase:  e.phase,
		LitPad: litPad,
		HUD: HUD{
			Difficulty: e.diff.Label(),
			Round:      e.round,
			Best:       e.best[e.diff],
		},
	})
}
