package netserver_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tx2tx/tx2tx/netserver"
	"github.com/tx2tx/tx2tx/protocol"
)

func zerologDiscard() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// dialAddr polls until the server's listener is actually bound, since
// Start's accept loop spins up asynchronously.
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

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func drainHello(t *testing.T, conn net.Conn) {
	t.Helper()
	r := protocol.NewLineReader(conn)
	if _, err := r.ReadMessage(); err != nil {
		t.Fatalf("reading server hello: %v", err)
	}
}
