package engine

// Timer fires a callback after a delay, driven cooperatively from the
// update step. No goroutine is involved: the callback runs on the
// update thread during Tick, so it may touch the scene freely.
type Timer struct {
	remaining float32
	interval  float32
	repeat    bool
	active    bool
	fn        func()
}

// NewTimer fires fn once, delay seconds from now.
func NewTimer(delay float32, fn func()) *Timer {
	return &Timer{remaining: delay, interval: delay, active: true, fn: fn}
}

// NewRepeatingTimer fires fn every interval seconds until stopped.
func NewRepeatingTimer(interval float32, fn func()) *Timer {
	return &Timer{remaining: interval, interval: interval, repeat: true, active: true, fn: fn}
}

// Active reports whether the timer can still fire.
func (t *Timer) Active() bool {
	return t.active
}

// Stop deactivates the timer. A stopped timer never fires again.
func (t *Timer) Stop() {
	t.active = false
}

// Tick advances the timer by dt seconds, firing the callback if the
// delay elapsed. A repeating timer re-arms; after a long stall it fires
// once, not once per missed interval.
func (t *Timer) Tick(dt float32) {
	if !t.active {
		return
	}

	t.remaining -= dt
	if t.remaining > 0 {
		return
	}

	if t.repeat {
		t.remaining = t.interval
	} else {
		t.active = false
	}
	t.fn()
}
