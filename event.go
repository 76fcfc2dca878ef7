package engine

import (
	"fmt"

	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// EventKind discriminates the Event payload. Handlers switch on it and
// read only the fields the kind documents.
type EventKind int

const (
	EventWindowResize EventKind = iota
	EventWindowClose
	EventKey
	EventMouseButton
	EventMouseMove
	EventMouseScroll
)

func (k EventKind) String() string {
	switch k {
	case EventWindowResize:
		return "WindowResize"
	case EventWindowClose:
		return "WindowClose"
	case EventKey:
		return "Key"
	case EventMouseButton:
		return "MouseButton"
	case EventMouseMove:
		return "MouseMove"
	case EventMouseScroll:
		return "MouseScroll"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is the window event sum type delivered to OnEvent.
//
//	WindowResize: Width, Height (framebuffer pixels)
//	Key:          Key, Scancode, Action, Mods
//	MouseButton:  Button, Action, Mods
//	MouseMove:    X, Y (cursor position)
//	MouseScroll:  X, Y (scroll offsets)
type Event struct {
	Kind EventKind

	Width  int
	Height int

	Key      glfw.Key
	Scancode int
	Action   glfw.Action
	Mods     glfw.ModifierKey

	Button glfw.MouseButton

	X float64
	Y float64
}

func (e Event) String() string {
	switch e.Kind {
	case EventWindowResize:
		return fmt.Sprintf("WindowResize(%dx%d)", e.Width, e.Height)
	case EventKey:
		return fmt.Sprintf("Key(key=%d action=%d mods=%d)", e.Key, e.Action, e.Mods)
	case EventMouseButton:
		return fmt.Sprintf("MouseButton(button=%d action=%d)", e.Button, e.Action)
	case EventMouseMove:
		return fmt.Sprintf("MouseMove(%.1f, %.1f)", e.X, e.Y)
	case EventMouseScroll:
		return fmt.Sprintf("MouseScroll(%.1f, %.1f)", e.X, e.Y)
	}
	return e.Kind.String()
}
