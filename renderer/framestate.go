package renderer

import (
	"errors"
	"fmt"
)

// ErrFrameState is returned when a frame operation is invoked out of
// order, for example beginning a render pass before beginning the
// frame. These are programming errors in the caller, surfaced as errors
// so the violation names the phase it happened in.
var ErrFrameState = errors.New("frame state violation")

type framePhase int

const (
	phaseIdle framePhase = iota
	phaseFrameStarted
	phaseShadowPass
	phaseGeometrySubpass
	phaseLightingSubpass
	phaseTransparencySubpass
	phaseOverlayPass
)

func (p framePhase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseFrameStarted:
		return "frame started"
	case phaseShadowPass:
		return "shadow pass"
	case phaseGeometrySubpass:
		return "geometry subpass"
	case phaseLightingSubpass:
		return "lighting subpass"
	case phaseTransparencySubpass:
		return "transparency subpass"
	case phaseOverlayPass:
		return "overlay pass"
	}
	return fmt.Sprintf("framePhase(%d)", int(p))
}

// frameStateMachine tracks where in the frame the renderer is. Every
// public frame operation advances it first; recording only happens on a
// legal transition.
type frameStateMachine struct {
	phase framePhase
}

func (m *frameStateMachine) violation(op string) error {
	return fmt.Errorf("%w: %s during %s", ErrFrameState, op, m.phase)
}

func (m *frameStateMachine) BeginFrame() error {
	if m.phase != phaseIdle {
		return m.violation("BeginFrame")
	}
	m.phase = phaseFrameStarted
	return nil
}

func (m *frameStateMachine) BeginShadowPass() error {
	if m.phase != phaseFrameStarted {
		return m.violation("BeginShadowPass")
	}
	m.phase = phaseShadowPass
	return nil
}

func (m *frameStateMachine) EndShadowPass() error {
	if m.phase != phaseShadowPass {
		return m.violation("EndShadowPass")
	}
	m.phase = phaseFrameStarted
	return nil
}

func (m *frameStateMachine) BeginDeferredPass() error {
	if m.phase != phaseFrameStarted {
		return m.violation("BeginDeferredPass")
	}
	m.phase = phaseGeometrySubpass
	return nil
}

func (m *frameStateMachine) NextSubpass() error {
	switch m.phase {
	case phaseGeometrySubpass:
		m.phase = phaseLightingSubpass
	case phaseLightingSubpass:
		m.phase = phaseTransparencySubpass
	default:
		return m.violation("NextSubpass")
	}
	return nil
}

func (m *frameStateMachine) EndDeferredPass() error {
	if m.phase != phaseTransparencySubpass {
		return m.violation("EndDeferredPass")
	}
	m.phase = phaseFrameStarted
	return nil
}

func (m *frameStateMachine) BeginOverlayPass() error {
	if m.phase != phaseFrameStarted {
		return m.violation("BeginOverlayPass")
	}
	m.phase = phaseOverlayPass
	return nil
}

func (m *frameStateMachine) EndOverlayPass() error {
	if m.phase != phaseOverlayPass {
		return m.violation("EndOverlayPass")
	}
	m.phase = phaseFrameStarted
	return nil
}

func (m *frameStateMachine) EndFrame() error {
	if m.phase != phaseFrameStarted {
		return m.violation("EndFrame")
	}
	m.phase = phaseIdle
	return nil
}

// Abort resets to idle after a failed frame so the next frame can
// start cleanly.
func (m *frameStateMachine) Abort() {
	m.phase = phaseIdle
}

// InFrame reports whether a frame is currently being recorded.
func (m *frameStateMachine) InFrame() bool {
	return m.phase != phaseIdle
}
