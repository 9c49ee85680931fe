package clientloop_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tx2tx/tx2tx/clientloop"
	"github.com/tx2tx/tx2tx/display"
	"github.com/tx2tx/tx2tx/netclient"
	"github.com/tx2tx/tx2tx/protocol"
	"github.com/tx2tx/tx2tx/types"
)

type fakeInjector struct {
	mouseEvents []types.MouseEvent
	keyEvents   []types.KeyEvent
	focusCalls  int
	failFocus   bool
}

func (f *fakeInjector) Ready() bool { return true }
func (f *fakeInjector) InjectMouseEvent(ev types.MouseEvent) error {
	f.mouseEvents = append(f.mouseEvents, ev)
	return nil
}
func (f *fakeInjector) InjectKeyEvent(ev types.KeyEvent) error {
	f.keyEvents = append(f.keyEvents, ev)
	return nil
}
func (f *fakeInjector) FocusWindowUnderPointer() error {
	f.focusCalls++
	return nil
}

type fakeOverlay struct {
	shown  []string
	hidden int
}

func (o *fakeOverlay) Show(label string, timeoutMs int) { o.shown = append(o.shown, label) }
func (o *fakeOverlay) Hide()                             { o.hidden++ }

// serveMessages accepts one connection, completes the server side of
// the hello handshake, then writes msgs in order.
func serveMessages(t *testing.T, msgs []protocol.Message) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = protocol.WriteMessage(conn, protocol.HelloMessage("9.9.9", nil, nil, nil))
		r := protocol.NewLineReader(conn)
		if _, err := r.ReadMessage(); err != nil {
			return
		}
		for _, m := range msgs {
			_ = protocol.WriteMessage(conn, m)
		}
		time.Sleep(200 * time.Millisecond)
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

func TestLoopInjectsMotionAndHidesOnSignal(t *testing.T) {
	move := types.NewNormalizedMotion(types.MouseMove, types.NormalizedPoint{X: 0.5, Y: 0.25}, nil)
	moveMsg, err := protocol.MouseEventMessage(move)
	if err != nil {
		t.Fatalf("build move message: %v", err)
	}
	hide := types.NewNormalizedMotion(types.MouseMove, types.HideSignal, nil)
	hideMsg, err := protocol.MouseEventMessage(hide)
	if err != nil {
		t.Fatalf("build hide message: %v", err)
	}

	addr := serveMessages(t, []protocol.Message{moveMsg, hideMsg})
	client := netclient.NewClient(addr, "laptop", zerolog.New(io.Discard))
	if err := client.Connect(2560, 1440); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	backend := &display.NoopBackend{Screen: types.NewScreen(2560, 1440)}
	injector := &fakeInjector{}
	overlay := &fakeOverlay{}
	loop := clientloop.New(client, backend, injector, overlay, zerolog.New(io.Discard), types.NewScreen(2560, 1440), false)

	deadline := time.Now().Add(time.Second)
	for len(injector.mouseEvents) < 1 && time.Now().Before(deadline) {
		loop.Tick(time.Now())
		time.Sleep(5 * time.Millisecond)
	}
	if len(injector.mouseEvents) != 1 {
		t.Fatalf("expected 1 injected motion before the hide signal, got %d", len(injector.mouseEvents))
	}
	got := injector.mouseEvents[0].Position
	if got == nil || got.X != 1280 || got.Y != 360 {
		t.Fatalf("expected denormalized (1280,360), got %+v", got)
	}

	// The hide signal must not be injected, only hidden.
	deadline = time.Now().Add(time.Second)
	for len(injector.mouseEvents) < 2 && time.Now().Before(deadline) {
		loop.Tick(time.Now())
		time.Sleep(5 * time.Millisecond)
	}
	if len(injector.mouseEvents) != 1 {
		t.Fatalf("expected the hide signal to not be injected as motion, got %d events", len(injector.mouseEvents))
	}
}

func TestLoopDelegatesHintsToOverlay(t *testing.T) {
	showMsg := protocol.HintShowMessage("W", 800)
	hideMsg := protocol.HintHideMessage()
	addr := serveMessages(t, []protocol.Message{showMsg, hideMsg})
	client := netclient.NewClient(addr, "laptop", zerolog.New(io.Discard))
	if err := client.Connect(1920, 1080); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	backend := &display.NoopBackend{Screen: types.NewScreen(1920, 1080)}
	injector := &fakeInjector{}
	overlay := &fakeOverlay{}
	loop := clientloop.New(client, backend, injector, overlay, zerolog.New(io.Discard), types.NewScreen(1920, 1080), false)

	deadline := time.Now().Add(time.Second)
	for (len(overlay.shown) < 1 || overlay.hidden < 1) && time.Now().Before(deadline) {
		loop.Tick(time.Now())
		time.Sleep(5 * time.Millisecond)
	}
	if len(overlay.shown) != 1 || overlay.shown[0] != "W" {
		t.Fatalf("expected hint_show(W) delegated to overlay, got %+v", overlay.shown)
	}
	if overlay.hidden != 1 {
		t.Fatalf("expected hint_hide delegated to overlay, got %d", overlay.hidden)
	}
}

func TestLoopInjectsKeyAndFocusesUnderPointer(t *testing.T) {
	keyMsg := protocol.KeyEventMessage(types.NewKeyEvent(types.KeyPress, 38, nil, nil))
	addr := serveMessages(t, []protocol.Message{keyMsg})
	client := netclient.NewClient(addr, "laptop", zerolog.New(io.Discard))
	if err := client.Connect(1920, 1080); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	backend := &display.NoopBackend{Screen: types.NewScreen(1920, 1080)}
	injector := &fakeInjector{}
	overlay := &fakeOverlay{}
	loop := clientloop.New(client, backend, injector, overlay, zerolog.New(io.Discard), types.NewScreen(1920, 1080), false)

	deadline := time.Now().Add(time.Second)
	for len(injector.keyEvents) < 1 && time.Now().Before(deadline) {
		loop.Tick(time.Now())
		time.Sleep(5 * time.Millisecond)
	}
	if len(injector.keyEvents) != 1 {
		t.Fatalf("expected 1 injected key event, got %d", len(injector.keyEvents))
	}
	if injector.focusCalls < 1 {
		t.Fatal("expected the injector's focus-under-pointer hook to be called before injecting the key")
	}
}

func TestLoopExitsWhenDisconnectedAndReconnectDisabled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_ = protocol.WriteMessage(conn, protocol.HelloMessage("9.9.9", nil, nil, nil))
		conn.Close()
	}()

	client := netclient.NewClient(ln.Addr().String(), "laptop", zerolog.New(io.Discard))
	if err := client.Connect(1920, 1080); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	backend := &display.NoopBackend{Screen: types.NewScreen(1920, 1080)}
	loop := clientloop.New(client, backend, &fakeInjector{}, &fakeOverlay{}, zerolog.New(io.Discard), types.NewScreen(1920, 1080), false)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !loop.Tick(time.Now()) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the loop to report exit once the connection dropped with reconnect disabled")
}
