package simon

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"neon-arcade/internal/domain"
	"neon-arcade/internal/game/clock"
)

type fakeStore struct {
	mu    sync.Mutex
	saved []domain.SimonStats
	err   error
}

func (f *fakeStore) SaveSimonProgress(ctx context.Context, userID string, p domain.SimonStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, p)
	return nil
}

func (f *fakeStore) last() (domain.SimonStats, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return domain.SimonStats{}, false
	}
	return f.saved[len(f.saved)-1], true
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Publish(e Event) { r.events = append(r.events, e) }

func testConfig() Config {
	cfg := DefaultConfig()
	easy := cfg.Levels[domain.DifficultyEasy]
	easy.MaxRounds = 2
	cfg.Levels[domain.DifficultyEasy] = easy
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *clock.Manual, *fakeStore) {
	t.Helper()

	mc := clock.NewManual(time.Unix(1700000000, 0))
	store := &fakeStore{}
	e := New(Options{
		Config: cfg,
		UserID: "u1",
		Progress: domain.SimonStats{
			CurrentDiff: domain.DifficultyEasy,
			UnlockedMax: domain.DifficultyEasy,
			BestByDiff:  map[domain.Difficulty]int{},
		},
		Store: store,
		Clock: mc,
		Rand:  rand.New(rand.NewSource(42)),
	})
	return e, mc, store
}

// settle advances far enough to drain any presentation in progress.
func settle(mc *clock.Manual) { mc.Advance(time.Minute) }

func TestStartPresentsOneStep(t *testing.T) {
	e, mc, _ := newTestEngine(t, testConfig())

	e.Start(context.Background())
	if e.Snapshot().Phase != PhasePresenting {
		t.Fatalf("phase after start = %v, want presenting", e.Snapshot().Phase)
	}

	settle(mc)

	snap := e.Snapshot()
	if snap.Phase != PhaseAwaitingInput {
		t.Fatalf("phase after presentation = %v, want awaiting_input", snap.Phase)
	}
	if snap.Round != 1 || snap.Sequence != 1 {
		t.Fatalf("round=%d sequence=%d, want 1/1", snap.Round, snap.Sequence)
	}
}

func TestSequenceAppendOnly(t *testing.T) {
	e, mc, _ := newTestEngine(t, DefaultConfig())

	e.Start(context.Background())
	settle(mc)

	first := e.sequence[0]
	for round := 1; round <= 3; round++ {
		if len(e.sequence) != round {
			t.Fatalf("round %d: sequence length %d", round, len(e.sequence))
		}
		for _, pad := range append([]int(nil), e.sequence...) {
			e.Pick(context.Background(), pad)
		}
		settle(mc)
	}

	if e.sequence[0] != first {
		t.Fatalf("sequence head changed from %d to %d", first, e.sequence[0])
	}
}

func TestMismatchFailsRun(t *testing.T) {
	e, mc, _ := newTestEngine(t, testConfig())

	e.Start(context.Background())
	settle(mc)

	wrong := (e.sequence[0] + 1) % 4
	e.Pick(context.Background(), wrong)

	if got := e.Snapshot().Phase; got != PhaseFailed {
		t.Fatalf("phase after wrong pick = %v, want failed", got)
	}

	// terminal until Start is pressed again
	e.Pick(context.Background(), e.sequence[0])
	if got := e.Snapshot().Phase; got != PhaseFailed {
		t.Fatalf("picks after failure must be dropped, phase = %v", got)
	}
}

func TestPickDuringPresentationDropped(t *testing.T) {
	e, _, _ := newTestEngine(t, testConfig())

	e.Start(context.Background())
	e.Pick(context.Background(), 0)

	if got := e.Snapshot().Phase; got != PhasePresenting {
		t.Fatalf("pick during presentation mutated state, phase = %v", got)
	}
}

func TestWinAdvancesDifficulty(t *testing.T) {
	e, mc, store := newTestEngine(t, testConfig())

	e.Start(context.Background())
	settle(mc)

	// clear round 1 and round 2 of a two-round easy level
	for round := 1; round <= 2; round++ {
		for _, pad := range append([]int(nil), e.sequence...) {
			e.Pick(context.Background(), pad)
		}
		if round == 1 {
			settle(mc)
		}
	}

	progress, ok := store.last()
	if !ok {
		t.Fatal("win did not persist progression")
	}
	if progress.CurrentDiff != domain.DifficultyMedium {
		t.Fatalf("current difficulty = %s, want medium", progress.CurrentDiff)
	}
	if progress.UnlockedMax.Index() < domain.DifficultyMedium.Index() {
		t.Fatalf("unlockedMax = %s, want at least medium", progress.UnlockedMax)
	}
	if progress.BestByDiff[domain.DifficultyEasy] != 2 {
		t.Fatalf("best for easy = %d, want 2", progress.BestByDiff[domain.DifficultyEasy])
	}

	// auto-start at the new difficulty
	settle(mc)
	snap := e.Snapshot()
	if snap.Difficulty != domain.DifficultyMedium {
		t.Fatalf("difficulty after advance = %s, want medium", snap.Difficulty)
	}
	if snap.Phase != PhaseAwaitingInput || snap.Round != 1 {
		t.Fatalf("auto-start state = %v round %d, want awaiting_input round 1", snap.Phase, snap.Round)
	}
}

func TestUnlockedMaxMonotonic(t *testing.T) {
	e, mc, store := newTestEngine(t, testConfig())

	e.Start(context.Background())
	settle(mc)
	for round := 1; round <= 2; round++ {
		for _, pad := range append([]int(nil), e.sequence...) {
			e.Pick(context.Background(), pad)
		}
		if round == 1 {
			settle(mc)
		}
	}
	settle(mc)

	// dropping back to easy must not lower the high-water mark
	if err := e.SelectDifficulty(context.Background(), domain.DifficultyEasy); err != nil {
		t.Fatalf("select easy: %v", err)
	}

	progress, _ := store.last()
	if progress.UnlockedMax != domain.DifficultyMedium {
		t.Fatalf("unlockedMax = %s, want medium", progress.UnlockedMax)
	}
	if progress.CurrentDiff != domain.DifficultyEasy {
		t.Fatalf("currentDiff = %s, want easy", progress.CurrentDiff)
	}
}

func TestSelectLockedDifficultyRejected(t *testing.T) {
	e, _, store := newTestEngine(t, testConfig())

	err := e.SelectDifficulty(context.Background(), domain.DifficultyHard)
	if err != ErrDifficultyLocked {
		t.Fatalf("err = %v, want ErrDifficultyLocked", err)
	}
	if _, ok := store.last(); ok {
		t.Fatal("rejected selection must not persist")
	}
	if got := e.Snapshot().Difficulty; got != domain.DifficultyEasy {
		t.Fatalf("difficulty changed to %s on rejected selection", got)
	}
}

func TestStaleTimerIgnoredAfterReset(t *testing.T) {
	e, mc, _ := newTestEngine(t, testConfig())

	e.Start(context.Background())
	// reset the run before the presentation timers fire
	if err := e.SelectDifficulty(context.Background(), domain.DifficultyEasy); err != nil {
		t.Fatalf("select difficulty: %v", err)
	}

	settle(mc)

	snap := e.Snapshot()
	if snap.Phase != PhaseIdle || snap.Round != 0 {
		t.Fatalf("stale timers mutated reset run: phase=%v round=%d", snap.Phase, snap.Round)
	}
}

func TestBestNeverDecreases(t *testing.T) {
	e, mc, _ := newTestEngine(t, DefaultConfig())

	e.Start(context.Background())
	settle(mc)

	// clear two rounds, then fail a fresh run on round one
	for round := 1; round <= 2; round++ {
		for _, pad := range append([]int(nil), e.sequence...) {
			e.Pick(context.Background(), pad)
		}
		settle(mc)
	}
	if e.Snapshot().Best != 2 {
		t.Fatalf("best = %d, want 2", e.Snapshot().Best)
	}

	e.Start(context.Background())
	settle(mc)
	e.Pick(context.Background(), (e.sequence[0]+1)%4)

	if e.Snapshot().Best != 2 {
		t.Fatalf("best dropped to %d after failed run", e.Snapshot().Best)
	}
}

func TestStopCancelsRun(t *testing.T) {
	e, mc, _ := newTestEngine(t, testConfig())

	e.Start(context.Background())
	e.Stop()
	settle(mc)

	snap := e.Snapshot()
	if snap.Phase != PhaseIdle || snap.Round != 0 || snap.Sequence != 0 {
		t.Fatalf("timers fired after stop: phase=%v round=%d sequence=%d", snap.Phase, snap.Round, snap.Sequence)
	}
}

func TestSinkSeesEachFlashInOrder(t *testing.T) {
	mc := clock.NewManual(time.Unix(1700000000, 0))
	sink := &recordingSink{}
	e := New(Options{
		Config: testConfig(),
		UserID: "u1",
		Store:  &fakeStore{},
		Sink:   sink,
		Clock:  mc,
		Rand:   rand.New(rand.NewSource(42)),
	})

	e.Start(context.Background())
	settle(mc)
	for _, pad := range append([]int(nil), e.sequence...) {
		e.Pick(context.Background(), pad)
	}
	settle(mc)

	var flashes []int
	for _, ev := range sink.events {
		if ev.Phase == PhasePresenting && ev.LitPad >= 0 {
			flashes = append(flashes, ev.LitPad)
		}
	}

	// round 1 flashes one pad, round 2 replays it plus the new step
	want := []int{e.sequence[0], e.sequence[0], e.sequence[1]}
	if len(flashes) != len(want) {
		t.Fatalf("flash count = %d, want %d", len(flashes), len(want))
	}
	for i := range want {
		if flashes[i] != want[i] {
			t.Fatalf("flash %d = pad %d, want pad %d", i, flashes[i], want[i])
		}
	}
}

func TestTimingCurveEasesTowardFloor(t *testing.T) {
	cfg := DefaultConfig()

	onFirst, offFirst := cfg.Timing(domain.DifficultyEasy, 1)
	onLast, offLast := cfg.Timing(domain.DifficultyEasy, cfg.Levels[domain.DifficultyEasy].MaxRounds)

	if onFirst != 520*time.Millisecond || offFirst != 170*time.Millisecond {
		t.Fatalf("round 1 timing = %v/%v, want base", onFirst, offFirst)
	}
	if onLast != 240*time.Millisecond || offLast != 90*time.Millisecond {
		t.Fatalf("final round timing = %v/%v, want floor", onLast, offLast)
	}

	prev := onFirst
	for r := 2; r <= cfg.Levels[domain.DifficultyEasy].MaxRounds; r++ {
		on, _ := cfg.Timing(domain.DifficultyEasy, r)
		if on > prev {
			t.Fatalf("on duration rose from %v to %v at round %d", prev, on, r)
		}
		prev = on
	}
}
