package netclient_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tx2tx/tx2tx/netclient"
	"github.com/tx2tx/tx2tx/protocol"
)

// fakeServer accepts exactly one connection, sends a hello, and
// echoes a keepalive back after it reads the client's hello.
func fakeServer(t *testing.T) string {
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
		_ = protocol.WriteMessage(conn, protocol.KeepaliveMessage())
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

func TestConnectPerformsHelloHandshake(t *testing.T) {
	addr := fakeServer(t)
	c := netclient.NewClient(addr, "laptop", zerolog.New(io.Discard))
	if err := c.Connect(1920, 1080); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.ServerVersion != "9.9.9" {
		t.Fatalf("ServerVersion = %q, want 9.9.9", c.ServerVersion)
	}
	if c.State() != netclient.StateConnected {
		t.Fatalf("State = %v, want StateConnected", c.State())
	}
}

func TestDrainReturnsServerMessages(t *testing.T) {
	addr := fakeServer(t)
	c := netclient.NewClient(addr, "laptop", zerolog.New(io.Discard))
	if err := c.Connect(1920, 1080); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		msgs, _ := c.Drain(1920, 1080, time.Now(), nil)
		for _, m := range msgs {
			if m.Type == protocol.MsgKeepalive {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("never received the expected keepalive")
}

func TestDrainReconnectsAfterBackoffWindow(t *testing.T) {
	c := netclient.NewClient("127.0.0.1:1", "laptop", zerolog.New(io.Discard))
	now := time.Now()
	next := now
	_, attempted := c.Drain(1920, 1080, now, &next)
	if !attempted {
		t.Fatal("expected an immediate reconnect attempt with no prior deadline")
	}
	if !next.After(now) {
		t.Fatal("expected backoff to push the next attempt into the future")
	}
	_, attempted = c.Drain(1920, 1080, now, &next)
	if attempted {
		t.Fatal("expected no reconnect attempt before the backoff window elapses")
	}
}

func TestWithMaxReconnectAttemptsGivesUpAfterLimit(t *testing.T) {
	c := netclient.NewClient("127.0.0.1:1", "laptop", zerolog.New(io.Discard),
		netclient.WithReconnectDelay(time.Millisecond), netclient.WithMaxReconnectAttempts(2))

	now := time.Now()
	next := now
	for i := 0; i < 2; i++ {
		_, attempted := c.Drain(1920, 1080, now, &next)
		if !attempted {
			t.Fatalf("attempt %d: expected a reconnect attempt", i)
		}
		now = next
	}
	if c.State() != netclient.StateGivenUp {
		t.Fatalf("State = %v, want StateGivenUp after %d failed attempts", c.State(), 2)
	}

	msgs, attempted := c.Drain(1920, 1080, now, &next)
	if attempted || msgs != nil {
		t.Fatal("expected Drain to stop attempting reconnects once given up")
	}
}
