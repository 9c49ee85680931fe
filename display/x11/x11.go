// Package x11 implements the display, capture, and inject contracts
// over a real X11 connection via jezek/xgb and its xtest extension,
// the same split tesselslate-resetti and noisetorch-NoiseTorch use for
// talking to X11 without cgo: a raw xgb.Conn plus the extensions they
// need (xtest for synthetic input; xfixes is initialised and
// version-checked, while cursor hiding uses a blank cursor).
//
// One Backend owns the xgb.Conn; Capturer and Injector wrap the same
// Backend so query/grab/warp and xtest fake-input share a connection,
// matching how a real X client talks to the server.
package x11

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"

	"github.com/tx2tx/tx2tx/types"
)

// Backend is the X11 display.Backend implementation.
type Backend struct {
	conn *xgb.Conn
	root xproto.Window

	pointerGrabbed  bool
	keyboardGrabbed bool
	cursorHidden    bool
	blankCursor     xproto.Cursor
}

// NewBackend builds an unconnected Backend; call Connect before use.
func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) Connect() error {
	conn, err := xgb.NewConn()
	if err != nil {
		return &ConnectError{Err: err}
	}
	if err := xtest.Init(conn); err != nil {
		_ = conn.Close()
		return &ConnectError{Err: err}
	}
	if err := xfixes.Init(conn); err != nil {
		_ = conn.Close()
		return &ConnectError{Err: err}
	}
	if _, err := xfixes.QueryVersion(conn, xfixes.MajorVersion, xfixes.MinorVersion).Reply(); err != nil {
		_ = conn.Close()
		return &ConnectError{Err: err}
	}
	setup := xproto.Setup(conn)
	if setup == nil || len(setup.Roots) == 0 {
		_ = conn.Close()
		return &ConnectError{Err: errNoScreens}
	}
	b.conn = conn
	b.root = setup.Roots[0].Root
	cursor, err := makeBlankCursor(conn, b.root)
	if err != nil {
		_ = conn.Close()
		return &ConnectError{Err: err}
	}
	b.blankCursor = cursor
	return nil
}

func (b *Backend) Close() error {
	if b.conn != nil {
		b.conn.Close()
	}
	return nil
}

func (b *Backend) Sync() error {
	_, err := xproto.GetInputFocus(b.conn).Reply()
	return err
}

func (b *Backend) ScreenGeometry() (types.Screen, error) {
	setup := xproto.Setup(b.conn)
	root := setup.Roots[0]
	return types.NewScreen(int(root.WidthInPixels), int(root.HeightInPixels)), nil
}

func (b *Backend) PointerPosition() (types.Position, error) {
	reply, err := xproto.QueryPointer(b.conn, b.root).Reply()
	if err != nil {
		return types.Position{}, &QueryError{Op: "QueryPointer", Err: err}
	}
	return types.NewPosition(int(reply.RootX), int(reply.RootY)), nil
}

func (b *Backend) SetCursorPosition(pos types.Position) error {
	cookie := xproto.WarpPointerChecked(b.conn, 0, b.root, 0, 0, 0, 0, int16(pos.X), int16(pos.Y))
	if err := cookie.Check(); err != nil {
		return &QueryError{Op: "WarpPointer", Err: err}
	}
	return nil
}

func (b *Backend) GrabPointer() error {
	eventMask := uint16(xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease | xproto.EventMaskPointerMotion)
	reply, err := xproto.GrabPointer(b.conn, true, b.root, eventMask,
		xproto.GrabModeAsync, xproto.GrabModeAsync, b.root, xproto.CursorNone, xproto.TimeCurrentTime).Reply()
	if err != nil {
		return &GrabError{Op: "GrabPointer", Err: err}
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return &GrabError{Op: "GrabPointer", Err: grabStatusError(reply.Status)}
	}
	b.pointerGrabbed = true
	return nil
}

func (b *Backend) UngrabPointer() error {
	if !b.pointerGrabbed {
		return nil
	}
	cookie := xproto.UngrabPointerChecked(b.conn, xproto.TimeCurrentTime)
	b.pointerGrabbed = false
	if err := cookie.Check(); err != nil {
		return &GrabError{Op: "UngrabPointer", Err: err}
	}
	return nil
}

func (b *Backend) GrabKeyboard() error {
	reply, err := xproto.GrabKeyboard(b.conn, true, b.root, xproto.TimeCurrentTime,
		xproto.GrabModeAsync, xproto.GrabModeAsync).Reply()
	if err != nil {
		return &GrabError{Op: "GrabKeyboard", Err: err}
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return &GrabError{Op: "GrabKeyboard", Err: grabStatusError(reply.Status)}
	}
	b.keyboardGrabbed = true
	return nil
}

func (b *Backend) UngrabKeyboard() error {
	if !b.keyboardGrabbed {
		return nil
	}
	cookie := xproto.UngrabKeyboardChecked(b.conn, xproto.TimeCurrentTime)
	b.keyboardGrabbed = false
	if err := cookie.Check(); err != nil {
		return &GrabError{Op: "UngrabKeyboard", Err: err}
	}
	return nil
}

// HideCursor installs a transparent cursor on the root window. This is
// the classic blank-pixmap technique: XFixes has a HideCursor call on
// newer servers, but setting a 1x1 transparent cursor on root works
// everywhere and is the only technique used here.
func (b *Backend) HideCursor() error {
	cookie := xproto.ChangeWindowAttributesChecked(b.conn, b.root, xproto.CwCursor, []uint32{uint32(b.blankCursor)})
	if err := cookie.Check(); err != nil {
		return &QueryError{Op: "HideCursor", Err: err}
	}
	b.cursorHidden = true
	return nil
}

func (b *Backend) ShowCursor() error {
	cookie := xproto.ChangeWindowAttributesChecked(b.conn, b.root, xproto.CwCursor, []uint32{uint32(xproto.CursorNone)})
	if err := cookie.Check(); err != nil {
		return &QueryError{Op: "ShowCursor", Err: err}
	}
	b.cursorHidden = false
	return nil
}

// IsNativeSession is always true for X11: pointer/keyboard grabs are
// kernel/server-enforced exclusivity, not a compositor approximation.
func (b *Backend) IsNativeSession() bool { return true }

// Conn exposes the underlying xgb connection so an Injector/Capturer
// can be built against the same connection as the Backend.
func (b *Backend) Conn() *xgb.Conn { return b.conn }

// Root exposes the root window id used for grabs and queries.
func (b *Backend) Root() xproto.Window { return b.root }
