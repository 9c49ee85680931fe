// Package wayland implements the display, capture, and inject
// contracts for Wayland sessions. Wayland core protocol deliberately
// gives clients no way to query or warp the global pointer or to grab
// input exclusively. bnema/waymon (other_examples) works around this
// by combining three pieces, which this package reassembles for
// tx2tx's purposes:
//
//   - github.com/rajveermalviya/go-wayland/wayland/client for output
//     geometry (wl_output) discovery,
//   - a GNOME Shell D-Bus Eval call for reading the compositor's
//     pointer position (the same trick several command-line tools use
//     since there is no public Wayland protocol for it),
//   - github.com/ThomasT75/uinput for synthesizing mouse/keyboard
//     input as a virtual device, which every compositor accepts
//     because it looks like real hardware.
//
// There is no real pointer/keyboard "grab" here, only a best-effort
// refcounted flag; see Backend.IsNativeSession.
package wayland

import (
	"context"
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/rs/zerolog"

	"github.com/tx2tx/tx2tx/types"
)

const (
	gnomeShellBus  = "org.gnome.Shell"
	gnomeShellPath = "/org/gnome/Shell"
	gnomeShellIface = "org.gnome.Shell"
)

// grabState is a mutex-guarded refcount of pointer and keyboard grabs:
// nested grab/ungrab pairs balance, and an ungrab with no grab held
// leaves the count at zero.
type grabState struct {
	mu             sync.Mutex
	pointerGrabs   int
	keyboardGrabs  int
}

func (g *grabState) acquirePointer() { g.mu.Lock(); g.pointerGrabs++; g.mu.Unlock() }
func (g *grabState) releasePointer() {
	g.mu.Lock()
	if g.pointerGrabs > 0 {
		g.pointerGrabs--
	}
	g.mu.Unlock()
}
func (g *grabState) acquireKeyboard() { g.mu.Lock(); g.keyboardGrabs++; g.mu.Unlock() }
func (g *grabState) releaseKeyboard() {
	g.mu.Lock()
	if g.keyboardGrabs > 0 {
		g.keyboardGrabs--
	}
	g.mu.Unlock()
}

// Backend implements display.Backend over a Wayland connection plus
// the GNOME Shell D-Bus helper for pointer queries.
type Backend struct {
	log zerolog.Logger

	display  *client.Display
	registry *client.Registry
	outputs  map[uint32]outputGeometry
	seat     *client.Seat

	dbusConn *dbus.Conn

	grabs grabState

	lastKnown types.Position
	cursorHidden bool
}

type outputGeometry struct {
	x, y, width, height int
}

// NewBackend builds an unconnected wayland.Backend.
func NewBackend(log zerolog.Logger) *Backend {
	return &Backend{log: log, outputs: make(map[uint32]outputGeometry)}
}

func (b *Backend) Connect() error {
	display, err := client.Connect("")
	if err != nil {
		return &ConnectError{Op: "wayland connect", Err: err}
	}
	registry, err := display.GetRegistry()
	if err != nil {
		display.Destroy()
		return &ConnectError{Op: "get registry", Err: err}
	}
	b.display = display
	b.registry = registry
	b.registerOutputListener()
	if err := b.roundTrip(); err != nil {
		b.Close()
		return &ConnectError{Op: "roundtrip", Err: err}
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		b.Close()
		return &ConnectError{Op: "dbus session bus", Err: err}
	}
	b.dbusConn = conn
	return nil
}

func (b *Backend) registerOutputListener() {
	b.registry.SetGlobalHandler(func(ev client.RegistryGlobalEvent) {
		switch ev.Interface {
		case "wl_output":
			// Geometry arrives asynchronously via the wl_output object's
			// own events; recording interest here is enough for
			// ScreenGeometry's fallback query path below.
			b.outputs[ev.Name] = outputGeometry{}
		case "wl_seat":
			if b.seat != nil {
				return
			}
			seat := client.NewSeat(b.display.Context())
			if err := b.registry.Bind(ev.Name, ev.Interface, ev.Version, seat); err != nil {
				b.log.Warn().Err(err).Msg("wl_seat bind failed")
				return
			}
			b.seat = seat
		}
	})
}

// Seat returns the default seat bound during Connect, or nil if no
// wl_seat global has been announced yet. NewCapturer/NewInjector need
// it for pointer/keyboard event and uinput device access.
func (b *Backend) Seat() *client.Seat { return b.seat }

func (b *Backend) Close() error {
	if b.dbusConn != nil {
		_ = b.dbusConn.Close()
	}
	if b.display != nil {
		b.display.Destroy()
	}
	return nil
}

func (b *Backend) Sync() error {
	if b.display == nil {
		return errNotConnected
	}
	return b.roundTrip()
}

// roundTrip blocks until the server has processed every request issued
// so far, using the standard wl_display_sync callback dance: issue a
// sync request, keep dispatching the event queue until its callback
// fires.
func (b *Backend) roundTrip() error {
	done := make(chan struct{})
	callback, err := b.display.Sync()
	if err != nil {
		return err
	}
	callback.SetDoneHandler(func(_ client.CallbackDoneEvent) {
		close(done)
	})
	for {
		select {
		case <-done:
			return nil
		default:
			if err := b.display.Context().Dispatch(); err != nil {
				return err
			}
		}
	}
}

// ScreenGeometry returns the first discovered output's geometry. Most
// single-monitor setups, the common tx2tx client deployment, have
// exactly one, so "first" is an acceptable simplification; multi-head
// layout is out of scope.
func (b *Backend) ScreenGeometry() (types.Screen, error) {
	for _, o := range b.outputs {
		if o.width > 0 && o.height > 0 {
			return types.NewScreen(o.width, o.height), nil
		}
	}
	return types.Screen{}, errNoOutputGeometry
}

// PointerPosition asks GNOME Shell to evaluate global.get_pointer()
// and parses the "[x,y,mask]" JSON result. This only works under GNOME/Mutter with
// unsafe-mode eval available (typically only in an unlocked X11/Xwayland
// developer session or with the looking-glass extension disabled). It
// is the practical ceiling of Wayland pointer tracking without a
// compositor-specific protocol extension.
func (b *Backend) PointerPosition() (types.Position, error) {
	if b.dbusConn == nil {
		return types.Position{}, errNotConnected
	}
	obj := b.dbusConn.Object(gnomeShellBus, dbus.ObjectPath(gnomeShellPath))
	call := obj.CallWithContext(context.Background(), gnomeShellIface+".Eval", 0,
		"JSON.stringify(global.get_pointer())")
	if call.Err != nil {
		return b.lastKnown, &QueryError{Op: "Eval", Err: call.Err}
	}
	var success bool
	var result string
	if err := call.Store(&success, &result); err != nil || !success {
		return b.lastKnown, errEvalUnavailable
	}
	pos, err := parsePointerJSON(result)
	if err != nil {
		return b.lastKnown, err
	}
	b.lastKnown = pos
	return pos, nil
}

// SetCursorPosition has no Wayland equivalent of XWarpPointer. It only
// records pos as the last known position, which PointerPosition returns
// when the GNOME Shell query fails; the on-screen pointer does not move.
func (b *Backend) SetCursorPosition(pos types.Position) error {
	b.lastKnown = pos
	return nil
}

func (b *Backend) GrabPointer() error   { b.grabs.acquirePointer(); return nil }
func (b *Backend) UngrabPointer() error { b.grabs.releasePointer(); return nil }
func (b *Backend) GrabKeyboard() error  { b.grabs.acquireKeyboard(); return nil }
func (b *Backend) UngrabKeyboard() error { b.grabs.releaseKeyboard(); return nil }

func (b *Backend) HideCursor() error {
	b.cursorHidden = true
	b.log.Debug().Msg("wayland cursor hide is best-effort (no compositor-independent primitive)")
	return nil
}

func (b *Backend) ShowCursor() error {
	b.cursorHidden = false
	return nil
}

// IsNativeSession is always false: grabs here are cooperative
// bookkeeping, not OS-enforced exclusivity, so the engine's warp-
// enforcement step stays enabled for this backend.
func (b *Backend) IsNativeSession() bool { return false }

var errNotConnected = errors.New("wayland: not connected")
var errNoOutputGeometry = errors.New("wayland: no output geometry discovered yet")
var errEvalUnavailable = errors.New("wayland: GNOME Shell Eval is disabled or unavailable")

// ConnectError wraps a connection-phase failure.
type ConnectError struct {
	Op  string
	Err error
}

func (e *ConnectError) Error() string { return "wayland: " + e.Op + ": " + e.Err.Error() }
func (e *ConnectError) Unwrap() error { return e.Err }

// QueryError wraps a D-Bus query failure.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return "wayland: " + e.Op + ": " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }
