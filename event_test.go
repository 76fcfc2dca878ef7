package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventKindStrings(t *testing.T) {
	kinds := []EventKind{
		EventWindowResize, EventWindowClose, EventKey,
		EventMouseButton, EventMouseMove, EventMouseScroll,
	}
	seen := make(map[string]bool)
	for _, k := range kinds {
		s := k.String()
		assert.NotContains(t, s, "EventKind(", "kind %d has no name", int(k))
		assert.False(t, seen[s], "duplicate name %q", s)
		seen[s] = true
	}
}

func TestEventStringCarriesPayload(t *testing.T) {
	ev := Event{Kind: EventWindowResize, Width: 800, Height: 600}
	assert.Contains(t, ev.String(), "800x600")

	ev = Event{Kind: EventMouseMove, X: 10.5, Y: 20.25}
	assert.Contains(t, ev.String(), "10.5")
}
