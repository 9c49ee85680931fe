// Package capture defines the non-blocking input-drain contract (C4)
// the server's REMOTE-context tick uses to read local button/key
// events while the pointer is grabbed.
package capture

import "github.com/tx2tx/tx2tx/types"

// Capturer drains pending input since the last call.
type Capturer interface {
	// ReadEvents returns every button/key event queued since the last
	// call, plus the current modifier mask, without blocking.
	ReadEvents() (events []Event, modifierState int, err error)
}

// Event is a capture-side input event: exactly one of Mouse or Key is set.
type Event struct {
	Mouse *types.MouseEvent
	Key   *types.KeyEvent
}
