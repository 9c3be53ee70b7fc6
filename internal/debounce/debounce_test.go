package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowFirstTriggerAlwaysFires(t *testing.T) {
	t.Parallel()

	w := New(8 * time.Second)
	assert.True(t, w.ShouldTrigger(time.Now()), "first trigger must fire")
}

func TestWindowSuppressesWithinCooldown(t *testing.T) {
	t.Parallel()

	w := New(8 * time.Second)
	base := time.Now()

	// N вызовов внутри окна: ровно один true
	fired := 0
	for i := 0; i < 20; i++ {
		if w.ShouldTrigger(base.Add(time.Duration(i) * 100 * time.Millisecond)) {
			fired++
		}
	}
	assert.Equal(t, 1, fired, "exactly one trigger per cooldown window")
}

func TestWindowFiresAfterCooldown(t *testing.T) {
	t.Parallel()

	w := New(8 * time.Second)
	base := time.Now()

	assert.True(t, w.ShouldTrigger(base))
	assert.False(t, w.ShouldTrigger(base.Add(500*time.Millisecond)))
	assert.True(t, w.ShouldTrigger(base.Add(8*time.Second)))
	assert.False(t, w.ShouldTrigger(base.Add(8*time.Second+time.Millisecond)))
}

func TestWindowSuppressedCallDoesNotExtendWindow(t *testing.T) {
	t.Parallel()

	w := New(time.Second)
	base := time.Now()

	assert.True(t, w.ShouldTrigger(base))
	// подавленный вызов не сдвигает last_trigger_timestamp
	assert.False(t, w.ShouldTrigger(base.Add(900*time.Millisecond)))
	assert.True(t, w.ShouldTrigger(base.Add(time.Second)))
}

func TestWindowReset(t *testing.T) {
	t.Parallel()

	w := New(time.Hour)
	base := time.Now()

	assert.True(t, w.ShouldTrigger(base))
	assert.False(t, w.ShouldTrigger(base.Add(time.Minute)))
	w.Reset()
	assert.True(t, w.ShouldTrigger(base.Add(2*time.Minute)), "reset clears the window")
}
