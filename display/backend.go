// Package display defines the capability set the engine needs from a
// display server (C3): geometry, pointer query/set, pointer/keyboard
// grab, cursor visibility, and a native-session hint. Concrete
// backends live in display/x11 and display/wayland.
package display

import "github.com/tx2tx/tx2tx/types"

// Backend is implemented once per display server technology. All
// methods are synchronous; the engine calls them from its single tick
// goroutine, so implementations need no internal locking of their own
// state (a Wayland helper's internal queue is its own concern).
type Backend interface {
	// Connect establishes the connection to the display server.
	Connect() error
	// Close tears the connection down. Safe to call after a failed Connect.
	Close() error
	// Sync flushes any buffered requests and waits for the server to
	// process them, used after grab/warp calls where ordering matters.
	Sync() error

	// ScreenGeometry returns the primary screen's pixel dimensions.
	ScreenGeometry() (types.Screen, error)

	// PointerPosition returns the current pointer position in screen space.
	PointerPosition() (types.Position, error)
	// SetCursorPosition warps the pointer to pos.
	SetCursorPosition(pos types.Position) error

	// GrabPointer exclusively routes pointer input to this process.
	GrabPointer() error
	UngrabPointer() error
	// GrabKeyboard exclusively routes key input to this process.
	GrabKeyboard() error
	UngrabKeyboard() error

	HideCursor() error
	ShowCursor() error

	// IsNativeSession reports whether this backend has true exclusive
	// input grab semantics (X11) as opposed to a compositor-mediated
	// approximation (most Wayland compositors). The engine's remote-
	// context warp-enforcement step is skipped on native sessions since
	// grab alone is sufficient there.
	IsNativeSession() bool
}

// NoopBackend is a display.Backend that does nothing, used by tests
// that exercise the client loop without a real display connection.
type NoopBackend struct {
	Screen types.Screen
	Native bool
}

func (n *NoopBackend) Connect() error { return nil }
func (n *NoopBackend) Close() error   { return nil }
func (n *NoopBackend) Sync() error    { return nil }

func (n *NoopBackend) ScreenGeometry() (types.Screen, error) { return n.Screen, nil }

func (n *NoopBackend) PointerPosition() (types.Position, error) { return types.Position{}, nil }
func (n *NoopBackend) SetCursorPosition(types.Position) error   { return nil }

func (n *NoopBackend) GrabPointer() error    { return nil }
func (n *NoopBackend) UngrabPointer() error  { return nil }
func (n *NoopBackend) GrabKeyboard() error   { return nil }
func (n *NoopBackend) UngrabKeyboard() error { return nil }

func (n *NoopBackend) HideCursor() error { return nil }
func (n *NoopBackend) ShowCursor() error { return nil }

func (n *NoopBackend) IsNativeSession() bool { return n.Native }
