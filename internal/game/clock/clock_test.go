package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualAdvanceFiresInDeadlineOrder(t *testing.T) {
	mc := NewManual(time.Unix(0, 0))

	var fired []string
	mc.AfterFunc(200*time.Millisecond, func() { fired = append(fired, "b") })
	mc.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "a") })
	mc.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "c") })

	mc.Advance(250 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, fired)

	mc.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
}

func TestManualChainedTimersFireWithinOneAdvance(t *testing.T) {
	mc := NewManual(time.Unix(0, 0))

	var fired []string
	mc.AfterFunc(100*time.Millisecond, func() {
		fired = append(fired, "first")
		mc.AfterFunc(100*time.Millisecond, func() {
			fired = append(fired, "second")
		})
	})

	mc.Advance(time.Second)
	assert.Equal(t, []string{"first", "second"}, fired)
}

func TestManualCallbackSeesDeadlineTime(t *testing.T) {
	start := time.Unix(0, 0)
	mc := NewManual(start)

	var seen time.Time
	mc.AfterFunc(100*time.Millisecond, func() { seen = mc.Now() })

	mc.Advance(time.Second)
	assert.Equal(t, start.Add(100*time.Millisecond), seen)
	assert.Equal(t, start.Add(time.Second), mc.Now())
}

func TestManualStop(t *testing.T) {
	mc := NewManual(time.Unix(0, 0))

	fired := false
	timer := mc.AfterFunc(100*time.Millisecond, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports already stopped")

	mc.Advance(time.Second)
	assert.False(t, fired)
}

func TestManualStopAfterFire(t *testing.T) {
	mc := NewManual(time.Unix(0, 0))

	timer := mc.AfterFunc(100*time.Millisecond, func() {})
	mc.Advance(time.Second)

	assert.False(t, timer.Stop())
}
