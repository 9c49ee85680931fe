package engine_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tx2tx/tx2tx/capture"
	"github.com/tx2tx/tx2tx/display"
	"github.com/tx2tx/tx2tx/netserver"
	"github.com/tx2tx/tx2tx/protocol"
	"github.com/tx2tx/tx2tx/types"
)

func zerologDiscard() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// fakeBackend is a display.Backend whose pointer position and
// geometry tests drive directly, unlike display.NoopBackend which is
// fixed at (0,0).
type fakeBackend struct {
	screen types.Screen
	pos    types.Position
	native bool

	pointerGrabbed  bool
	keyboardGrabbed bool
	cursorHidden    bool
	warps           []types.Position
}

func (b *fakeBackend) Connect() error { return nil }
func (b *fakeBackend) Close() error   { return nil }
func (b *fakeBackend) Sync() error    { return nil }

func (b *fakeBackend) ScreenGeometry() (types.Screen, error)    { return b.screen, nil }
func (b *fakeBackend) PointerPosition() (types.Position, error) { return b.pos, nil }
func (b *fakeBackend) SetCursorPosition(pos types.Position) error {
	b.pos = pos
	b.warps = append(b.warps, pos)
	return nil
}

func (b *fakeBackend) GrabPointer() error    { b.pointerGrabbed = true; return nil }
func (b *fakeBackend) UngrabPointer() error  { b.pointerGrabbed = false; return nil }
func (b *fakeBackend) GrabKeyboard() error   { b.keyboardGrabbed = true; return nil }
func (b *fakeBackend) UngrabKeyboard() error { b.keyboardGrabbed = false; return nil }

func (b *fakeBackend) HideCursor() error { b.cursorHidden = true; return nil }
func (b *fakeBackend) ShowCursor() error { b.cursorHidden = false; return nil }

func (b *fakeBackend) IsNativeSession() bool { return b.native }

func (b *fakeBackend) lastWarp() types.Position {
	if len(b.warps) == 0 {
		return types.Position{}
	}
	return b.warps[len(b.warps)-1]
}

var _ display.Backend = (*fakeBackend)(nil)

// fakeCapturer returns one queued batch of events per ReadEvents call,
// then empties, so a test arranges exactly what a given tick sees.
type fakeCapturer struct {
	batches [][]capture.Event
}

func (c *fakeCapturer) push(events ...capture.Event) {
	c.batches = append(c.batches, events)
}

func (c *fakeCapturer) ReadEvents() ([]capture.Event, int, error) {
	if len(c.batches) == 0 {
		return nil, 0, nil
	}
	next := c.batches[0]
	c.batches = c.batches[1:]
	return next, 0, nil
}

var _ capture.Capturer = (*fakeCapturer)(nil)

func intp(v int) *int { return &v }

func dialAddr(t *testing.T, s *netserver.Server) string {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if addr := s.Addr(); addr != "" {
			return addr
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("server never bound a listener")
	return ""
}

// connectNamedClient dials s, completes the hello handshake under the
// given name, and drains server.Tick() until the hello is registered.
// The returned reader stays open for the caller to read further
// messages the engine sends this connection.
func connectNamedClient(t *testing.T, s *netserver.Server, name string) (net.Conn, *protocol.LineReader) {
	t.Helper()
	addr := dialAddr(t, s)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	r := protocol.NewLineReader(conn)
	if _, err := r.ReadMessage(); err != nil {
		t.Fatalf("reading server hello: %v", err)
	}
	if err := protocol.WriteMessage(conn, protocol.HelloMessage("0.1.0", nil, nil, &name)); err != nil {
		t.Fatalf("writing hello: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.Tick()
		if s.IsConnected(name) {
			return conn, r
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("client %q never registered", name)
	return nil, nil
}

func readMouseEvent(t *testing.T, conn net.Conn, r *protocol.LineReader) types.MouseEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	msg, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("reading mouse event: %v", err)
	}
	ev, err := protocol.ParseMouseEvent(msg)
	if err != nil {
		t.Fatalf("parsing mouse event: %v", err)
	}
	return ev
}
