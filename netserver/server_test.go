package netserver_test

import (
	"testing"
	"time"

	"github.com/tx2tx/tx2tx/netserver"
	"github.com/tx2tx/tx2tx/protocol"
)

func waitForEvents(t *testing.T, s *netserver.Server, want int, timeout time.Duration) []netserver.Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var got []netserver.Event
	for time.Now().Before(deadline) {
		got = append(got, s.Tick()...)
		if len(got) >= want {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, got %d", want, len(got))
	return nil
}

func TestAcceptAndHelloRegistersName(t *testing.T) {
	s := netserver.NewServer(4, zerologDiscard())
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	addr := dialAddr(t, s)
	conn := dial(t, addr)
	defer conn.Close()

	// Drain the server's own hello first.
	r := protocol.NewLineReader(conn)
	if _, err := r.ReadMessage(); err != nil {
		t.Fatalf("reading server hello: %v", err)
	}

	name := "laptop"
	if err := protocol.WriteMessage(conn, protocol.HelloMessage("0.1.0", nil, nil, &name)); err != nil {
		t.Fatalf("writing hello: %v", err)
	}

	events := waitForEvents(t, s, 2, time.Second)
	var sawConnect, sawHello bool
	for _, e := range events {
		switch e.Kind {
		case netserver.EventConnected:
			sawConnect = true
		case netserver.EventMessage:
			if e.Msg.Type == protocol.MsgHello {
				sawHello = true
			}
		}
	}
	if !sawConnect || !sawHello {
		t.Fatalf("expected a connect and a hello event, got %+v", events)
	}
	if !s.IsConnected(name) {
		t.Fatal("expected client to be registered under its lower-cased name")
	}
}

func TestDuplicateNameEvictsOlderConnection(t *testing.T) {
	s := netserver.NewServer(4, zerologDiscard())
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	addr := dialAddr(t, s)

	first := dial(t, addr)
	defer first.Close()
	drainHello(t, first)
	name := "Laptop"
	_ = protocol.WriteMessage(first, protocol.HelloMessage("0.1.0", nil, nil, &name))
	waitForEvents(t, s, 2, time.Second)

	second := dial(t, addr)
	defer second.Close()
	drainHello(t, second)
	_ = protocol.WriteMessage(second, protocol.HelloMessage("0.1.0", nil, nil, &name))
	events := waitForEvents(t, s, 2, time.Second)

	var sawEvict bool
	for _, e := range events {
		if e.Kind == netserver.EventEvicted {
			sawEvict = true
		}
	}
	if !sawEvict {
		t.Fatalf("expected eviction of the first connection, got %+v", events)
	}
	if !s.IsConnected("laptop") {
		t.Fatal("expected the newer connection to hold the name")
	}
}

func TestSendToUnknownClientIsError(t *testing.T) {
	s := netserver.NewServer(4, zerologDiscard())
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if err := s.SendTo("nobody", protocol.KeepaliveMessage()); err != netserver.ErrUnknownClient {
		t.Fatalf("got %v, want ErrUnknownClient", err)
	}
}
