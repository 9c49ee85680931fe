// Package inject defines the input-injection contract (C5) the
// client's receive loop uses to replay server-forwarded events
// locally.
package inject

import "github.com/tx2tx/tx2tx/types"

// Injector synthesizes mouse and key events on the local display.
type Injector interface {
	// Ready reports whether the injector's underlying device/connection
	// is usable. The client receive loop does not consult it; it calls
	// the Inject methods regardless.
	Ready() bool

	InjectMouseEvent(ev types.MouseEvent) error
	InjectKeyEvent(ev types.KeyEvent) error
}
