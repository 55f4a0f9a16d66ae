package game

import (
	"sync"

	"neon-arcade/internal/game/memory"
	"neon-arcade/internal/game/simon"
)

// feedCap bounds each user's pending event buffer. A stalled poller
// loses the oldest events first.
const feedCap = 256

// SimonFeed buffers sequence-game events until a polling adapter
// drains them. It is the Sink the manager installs on every engine.
type SimonFeed struct {
	mu     sync.Mutex
	events []simon.Event
}

func (f *SimonFeed) Publish(e simon.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, e)
	if len(f.events) > feedCap {
		f.events = f.events[len(f.events)-feedCap:]
	}
}

// Drain returns the buffered events in publish order and empties the feed.
func (f *SimonFeed) Drain() []simon.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.events
	f.events = nil
	return out
}

// MemoryFeed buffers matching-game events until drained.
type MemoryFeed struct {
	mu     sync.Mutex
	events []memory.Event
}

func (f *MemoryFeed) Publish(e memory.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, e)
	if len(f.events) > feedCap {
		f.events = f.events[len(f.events)-feedCap:]
	}
}

// Drain returns the buffered events in publish order and empties the feed.
func (f *MemoryFeed) Drain() []memory.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.events
	f.events = nil
	return out
}
