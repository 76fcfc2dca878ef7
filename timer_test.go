package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFiresOnceAfterDelay(t *testing.T) {
	fired := 0
	timer := NewTimer(1.0, func() { fired++ })

	timer.Tick(0.4)
	assert.Equal(t, 0, fired)
	assert.True(t, timer.Active())

	timer.Tick(0.4)
	assert.Equal(t, 0, fired)

	timer.Tick(0.4)
	assert.Equal(t, 1, fired)
	assert.False(t, timer.Active())

	// a finished one-shot never fires again
	timer.Tick(5)
	assert.Equal(t, 1, fired)
}

func TestRepeatingTimerReArms(t *testing.T) {
	fired := 0
	timer := NewRepeatingTimer(0.5, func() { fired++ })

	for i := 0; i < 10; i++ {
		timer.Tick(0.25)
	}
	assert.Equal(t, 5, fired)
	assert.True(t, timer.Active())
}

func TestRepeatingTimerFiresOncePerStall(t *testing.T) {
	fired := 0
	timer := NewRepeatingTimer(0.1, func() { fired++ })

	// a three second hitch does not produce thirty callbacks
	timer.Tick(3.0)
	assert.Equal(t, 1, fired)
}

func TestStoppedTimerNeverFires(t *testing.T) {
	timer := NewTimer(0.1, func() { t.Fatal("stopped timer fired") })
	timer.Stop()
	timer.Tick(1.0)
	assert.False(t, timer.Active())
}

func TestEngineTicksAndPrunesTimers(t *testing.T) {
	e := &Engine{}

	oneShot := 0
	repeating := 0
	e.AddTimer(NewTimer(0.5, func() { oneShot++ }))
	e.AddTimer(NewRepeatingTimer(0.5, func() { repeating++ }))

	e.tickTimers(0.6)
	e.tickTimers(0.6)

	assert.Equal(t, 1, oneShot)
	assert.Equal(t, 2, repeating)

	// the expired one-shot was pruned, the repeating timer survives
	require.Len(t, e.timers, 1)
	assert.True(t, e.timers[0].Active())
}

func TestTimerCallbackMayStopSibling(t *testing.T) {
	e := &Engine{}

	victim := NewRepeatingTimer(0.15, func() { t.Fatal("victim fired") })

	e.AddTimer(NewTimer(0.1, func() { victim.Stop() }))
	e.AddTimer(victim)

	e.tickTimers(0.2)
	require.Empty(t, e.timers)
}
