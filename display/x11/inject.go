package x11

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"

	"github.com/tx2tx/tx2tx/types"
)

// The event* constants mirror the core X11 event type codes xtest.FakeInput
// expects: ButtonPress=4, ButtonRelease=5, MotionNotify=6, KeyPress=2,
// KeyRelease=3.
const (
	eventKeyPress      = 2
	eventKeyRelease    = 3
	eventButtonPress   = 4
	eventButtonRelease = 5
	eventMotionNotify  = 6
)

// Injector replays mouse/key events on an X11 connection via the
// XTEST extension, the standard way to synthesize input without a
// uinput device on X.
type Injector struct {
	conn *xgb.Conn
	root xproto.Window
}

// NewInjector builds an Injector sharing conn with a Backend (call
// after Backend.Connect).
func NewInjector(conn *xgb.Conn, root xproto.Window) *Injector {
	return &Injector{conn: conn, root: root}
}

func (i *Injector) Ready() bool { return i.conn != nil }

func (i *Injector) InjectMouseEvent(ev types.MouseEvent) error {
	if ev.Position != nil {
		if err := xtest.FakeInputChecked(i.conn, eventMotionNotify, 0, xproto.TimeCurrentTime,
			i.root, int16(ev.Position.X), int16(ev.Position.Y), 0).Check(); err != nil {
			return &InjectError{Op: "move", Err: err}
		}
	}
	if ev.IsButtonEvent() && ev.Button != nil {
		detail := byte(*ev.Button)
		eventType := byte(eventButtonPress)
		if ev.Type == types.MouseButtonRelease {
			eventType = eventButtonRelease
		}
		if err := xtest.FakeInputChecked(i.conn, eventType, detail, xproto.TimeCurrentTime,
			i.root, 0, 0, 0).Check(); err != nil {
			return &InjectError{Op: "button", Err: err}
		}
	}
	return nil
}

func (i *Injector) InjectKeyEvent(ev types.KeyEvent) error {
	eventType := byte(eventKeyPress)
	if ev.Type == types.KeyRelease {
		eventType = eventKeyRelease
	}
	detail := byte(ev.Keycode)
	if err := xtest.FakeInputChecked(i.conn, eventType, detail, xproto.TimeCurrentTime,
		i.root, 0, 0, 0).Check(); err != nil {
		return &InjectError{Op: "key", Err: err}
	}
	return nil
}

// InjectError wraps an XTEST FakeInput failure.
type InjectError struct {
	Op  string
	Err error
}

func (e *InjectError) Error() string { return "x11: inject " + e.Op + ": " + e.Err.Error() }
func (e *InjectError) Unwrap() error { return e.Err }
