// Package netserver implements the server side of the wire protocol:
// a TCP listener, a roster of named clients, and broadcast / directed
// send with duplicate-name eviction.
//
// The engine is a single-threaded cooperative poller: exactly one
// goroutine ever mutates the roster. Accept and per-connection reads
// run in their own goroutines, the same split badu-term's mouse and
// key dispatchers use (a reader goroutine feeding a channel, consumed
// without blocking by the owning loop), so Tick can drain everything
// that arrived since the last tick without ever blocking or locking.
package netserver

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/tx2tx/tx2tx/protocol"
)

// ServerVersion is sent in the server's handshake hello.
const ServerVersion = "1.0.0"

// connBacklog bounds how many decoded messages a single peer may have
// queued between ticks before the reader goroutine blocks sending,
// applying natural backpressure without requiring a lock.
const connBacklog = 256

// ClientConnection is one accepted peer. Name is lower-cased once set
// by HELLO; it is nil until then.
type ClientConnection struct {
	conn         net.Conn
	addr         string
	Name         *string
	ScreenWidth  *int
	ScreenHeight *int

	msgCh  chan protocol.Message
	errCh  chan error
	closed atomic.Bool
}

// Addr returns the peer's remote address, for logging.
func (c *ClientConnection) Addr() string { return c.addr }

// Addr returns the bound listen address, or "" before Start succeeds.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (c *ClientConnection) readLoop() {
	r := protocol.NewLineReader(c.conn)
	for {
		msg, err := r.ReadMessage()
		if err != nil {
			if protocol.IsEmptyLine(err) {
				continue
			}
			if _, ok := err.(*protocol.ParseError); ok {
				continue
			}
			c.errCh <- err
			return
		}
		c.msgCh <- msg
	}
}

func (c *ClientConnection) send(msg protocol.Message) error {
	return protocol.WriteMessage(c.conn, msg)
}

// Server accepts connections and routes messages by registered name.
type Server struct {
	ln         net.Listener
	maxClients int
	log        zerolog.Logger

	newConnCh chan *ClientConnection

	// connCount tracks the roster size across the accept goroutine and
	// the engine's Tick goroutine, so acceptLoop can enforce maxClients
	// without touching s.all.
	connCount atomic.Int32

	// Only Tick (the engine's single goroutine) touches these.
	all    []*ClientConnection
	byName map[string]*ClientConnection
}

// NewServer builds a Server. log may be the zero value (a no-op logger).
func NewServer(maxClients int, log zerolog.Logger) *Server {
	return &Server{
		maxClients: maxClients,
		log:        log,
		newConnCh:  make(chan *ClientConnection, maxClients),
		byName:     make(map[string]*ClientConnection),
	}
}

// Start binds and begins accepting. SO_REUSEADDR is set explicitly so a
// restarted server can rebind immediately.
func (s *Server) Start(addr string) error {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
		},
	}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return &BindError{Addr: addr, Err: err}
	}
	s.ln = ln
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		if s.atCapacity() {
			_ = conn.Close()
			continue
		}
		cc := &ClientConnection{
			conn:  conn,
			addr:  conn.RemoteAddr().String(),
			msgCh: make(chan protocol.Message, connBacklog),
			errCh: make(chan error, 1),
		}
		if err := cc.send(protocol.HelloMessage(ServerVersion, nil, nil, nil)); err != nil {
			_ = conn.Close()
			continue
		}
		s.connCount.Add(1)
		go cc.readLoop()
		s.newConnCh <- cc
	}
}

func (s *Server) atCapacity() bool {
	return s.maxClients > 0 && int(s.connCount.Load()) >= s.maxClients
}

// ConnectedCount returns the number of peers currently on the roster.
func (s *Server) ConnectedCount() int {
	return int(s.connCount.Load())
}

// Event is one thing that happened to the roster since the last Tick.
type Event struct {
	Kind EventKind
	Conn *ClientConnection
	Msg  protocol.Message
	Err  error
}

// EventKind discriminates Event.
type EventKind int

const (
	EventConnected EventKind = iota
	EventMessage
	EventDisconnected
	EventEvicted
)

// Tick drains everything that has arrived since the last call:
// newly-accepted connections, decoded messages per peer, and
// disconnects. HELLO messages are intercepted here to register the
// peer's name/geometry and apply duplicate-name eviction; they are
// also surfaced as EventMessage so callers can log/act on them.
func (s *Server) Tick() []Event {
	var events []Event

	for {
		select {
		case cc := <-s.newConnCh:
			s.all = append(s.all, cc)
			events = append(events, Event{Kind: EventConnected, Conn: cc})
		default:
			goto drained
		}
	}
drained:

	for _, cc := range s.all {
		if cc.closed.Load() {
			continue
		}
	drainConn:
		for {
			select {
			case msg := <-cc.msgCh:
				if msg.Type == protocol.MsgHello {
					if hello, err := protocol.ParseHello(msg); err == nil {
						s.registerHello(cc, hello, &events)
					}
				}
				events = append(events, Event{Kind: EventMessage, Conn: cc, Msg: msg})
			case err := <-cc.errCh:
				s.disconnect(cc)
				events = append(events, Event{Kind: EventDisconnected, Conn: cc, Err: err})
				break drainConn
			default:
				break drainConn
			}
		}
	}

	if len(s.all) > 0 {
		live := s.all[:0]
		for _, cc := range s.all {
			if !cc.closed.Load() {
				live = append(live, cc)
			}
		}
		s.all = live
	}

	return events
}

func (s *Server) registerHello(cc *ClientConnection, hello protocol.HelloPayload, events *[]Event) {
	if hello.ClientName == nil {
		return
	}
	name := strings.ToLower(*hello.ClientName)
	if older, exists := s.byName[name]; exists && older != cc {
		s.log.Warn().Str("name", name).Str("addr", older.Addr()).Msg("evicting stale connection on duplicate HELLO")
		s.disconnect(older)
		*events = append(*events, Event{Kind: EventEvicted, Conn: older})
	}
	cc.Name = &name
	cc.ScreenWidth = hello.ScreenWidth
	cc.ScreenHeight = hello.ScreenHeight
	s.byName[name] = cc
}

// SendTo looks up name (case-insensitively) and writes one framed line.
// A write failure marks the connection for close and returns an error;
// the caller (the engine) is responsible for reacting, e.g. reverting
// to CENTER if this was the active remote client.
func (s *Server) SendTo(name string, msg protocol.Message) error {
	cc, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return ErrUnknownClient
	}
	if err := cc.send(msg); err != nil {
		s.disconnect(cc)
		return &PeerTransportError{Addr: cc.Addr(), Err: err}
	}
	return nil
}

// Broadcast fans out msg to every connected peer; a failure on one peer
// closes only that peer.
func (s *Server) Broadcast(msg protocol.Message) {
	for _, cc := range s.all {
		if cc.closed.Load() {
			continue
		}
		if err := cc.send(msg); err != nil {
			s.disconnect(cc)
		}
	}
}

// IsConnected reports whether name currently resolves to a live peer.
func (s *Server) IsConnected(name string) bool {
	cc, ok := s.byName[strings.ToLower(name)]
	return ok && !cc.closed.Load()
}

// Disconnect closes conn and removes it from the roster.
func (s *Server) Disconnect(cc *ClientConnection) {
	s.disconnect(cc)
}

func (s *Server) disconnect(cc *ClientConnection) {
	if cc.closed.Swap(true) {
		return
	}
	_ = cc.conn.Close()
	s.connCount.Add(-1)
	if cc.Name != nil && s.byName[*cc.Name] == cc {
		delete(s.byName, *cc.Name)
	}
}

// Stop closes the listener and every connection, used on clean shutdown.
func (s *Server) Stop() {
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for _, cc := range s.all {
		s.disconnect(cc)
	}
}

var ErrUnknownClient = errors.New("netserver: unknown client name")

// BindError wraps a listen failure.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string { return "netserver: bind " + e.Addr + ": " + e.Err.Error() }
func (e *BindError) Unwrap() error { return e.Err }

// PeerTransportError wraps a mid-stream socket failure.
type PeerTransportError struct {
	Addr string
	Err  error
}

func (e *PeerTransportError) Error() string {
	return "netserver: peer " + e.Addr + ": " + e.Err.Error()
}
func (e *PeerTransportError) Unwrap() error { return e.Err }
