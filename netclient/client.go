// Package netclient implements the client side of the wire protocol:
// dial the server, exchange hello, and reconnect on loss with capped
// exponential backoff. Like netserver, the connection is
// read by a dedicated goroutine into a channel; the owning clientloop
// drains it non-blockingly each tick.
package netclient

import (
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/tx2tx/tx2tx/protocol"
)

const (
	recvBacklog          = 256
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 10 * time.Second
	backoffMultiplier     = 2
	dialTimeout           = 5 * time.Second
)

// State is the client connection's lifecycle state, surfaced so the
// receive/inject loop can decide whether to keep polling or to idle.
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateReconnecting
	// StateGivenUp is reached once maxAttempts consecutive reconnect
	// attempts have failed. Drain stops trying once here.
	StateGivenUp
)

// Client manages one outbound connection to a tx2tx server, handling
// the hello handshake and reconnecting transparently on transport
// failure.
type Client struct {
	addr       string
	clientName string
	log        zerolog.Logger

	conn  net.Conn
	state State

	msgCh chan protocol.Message
	errCh chan error

	initialBackoff time.Duration
	maxBackoff     time.Duration
	backoff        time.Duration

	// maxAttempts caps the number of consecutive failed reconnect
	// attempts before Drain stops trying; 0 means unlimited.
	maxAttempts  int
	attemptCount int

	// ServerVersion is filled in once the server's own hello arrives.
	ServerVersion string
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithReconnectDelay overrides the initial backoff delay used between
// reconnect attempts. d <= 0 leaves the default in place.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialBackoff = d
			c.backoff = d
		}
	}
}

// WithMaxReconnectAttempts caps consecutive failed reconnect attempts
// before Drain gives up. n <= 0 means unlimited, the default.
func WithMaxReconnectAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// NewClient builds a Client that will dial addr and present
// clientName during the hello handshake.
func NewClient(addr, clientName string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		addr:           addr,
		clientName:     clientName,
		log:            log,
		state:          StateConnecting,
		msgCh:          make(chan protocol.Message, recvBacklog),
		errCh:          make(chan error, 1),
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		backoff:        defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the current connection lifecycle state.
func (c *Client) State() State { return c.state }

// Connect dials the server once, synchronously, and performs the hello
// exchange. Callers needing non-blocking reconnect should use
// Drain instead, which drives this internally with backoff.
func (c *Client) Connect(screenWidth, screenHeight int) error {
	conn, err := net.DialTimeout("tcp", c.addr, dialTimeout)
	if err != nil {
		return &DialError{Addr: c.addr, Err: err}
	}
	r := protocol.NewLineReader(conn)
	hello, err := r.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return &DialError{Addr: c.addr, Err: err}
	}
	if hp, perr := protocol.ParseHello(hello); perr == nil {
		c.ServerVersion = hp.Version
	}
	w, h, name := screenWidth, screenHeight, c.clientName
	if err := protocol.WriteMessage(conn, protocol.HelloMessage("1.0.0", &w, &h, &name)); err != nil {
		_ = conn.Close()
		return &DialError{Addr: c.addr, Err: err}
	}

	c.conn = conn
	c.state = StateConnected
	c.backoff = c.initialBackoff
	c.attemptCount = 0
	go c.readLoop(r)
	return nil
}

func (c *Client) readLoop(r *protocol.LineReader) {
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

// Send writes one message to the server. It returns a *PeerTransportError
// on failure; the caller should then rely on Drain's reconnect path.
func (c *Client) Send(msg protocol.Message) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := protocol.WriteMessage(c.conn, msg); err != nil {
		c.teardown()
		return &PeerTransportError{Addr: c.addr, Err: err}
	}
	return nil
}

// Drain returns every message received since the last call, without
// blocking. If the connection has dropped it also drives a
// backoff-gated reconnect attempt; a nil nextAttempt disables
// reconnecting. The second return value reports whether a reconnect
// attempt was made this call.
func (c *Client) Drain(screenWidth, screenHeight int, now time.Time, nextAttempt *time.Time) ([]protocol.Message, bool) {
	var out []protocol.Message
	if c.state == StateConnected {
		for {
			select {
			case msg := <-c.msgCh:
				out = append(out, msg)
			case err := <-c.errCh:
				c.log.Warn().Err(err).Str("addr", c.addr).Msg("server connection lost, will reconnect")
				c.teardown()
				goto drained
			default:
				goto drained
			}
		}
	}
drained:

	if c.state == StateGivenUp {
		return out, false
	}

	if c.state != StateConnected {
		if nextAttempt == nil || now.Before(*nextAttempt) {
			return out, false
		}
		if err := c.Connect(screenWidth, screenHeight); err != nil {
			c.attemptCount++
			if c.maxAttempts > 0 && c.attemptCount >= c.maxAttempts {
				c.state = StateGivenUp
				c.log.Warn().Int("attempts", c.attemptCount).Msg("giving up on reconnecting")
				return out, true
			}
			c.state = StateReconnecting
			c.backoff = minDuration(c.backoff*backoffMultiplier, c.maxBackoff)
			if nextAttempt != nil {
				*nextAttempt = now.Add(c.backoff)
			}
			return out, true
		}
		return out, true
	}
	return out, false
}

func (c *Client) teardown() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.state = StateReconnecting
}

// Close closes the underlying connection, if any.
func (c *Client) Close() {
	c.teardown()
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// DialError wraps a failed dial or handshake, the client-side
// counterpart of netserver's BindError.
type DialError struct {
	Addr string
	Err  error
}

func (e *DialError) Error() string { return "netclient: dial " + e.Addr + ": " + e.Err.Error() }
func (e *DialError) Unwrap() error { return e.Err }

// PeerTransportError wraps a mid-stream send failure.
type PeerTransportError struct {
	Addr string
	Err  error
}

func (e *PeerTransportError) Error() string {
	return "netclient: send to " + e.Addr + ": " + e.Err.Error()
}
func (e *PeerTransportError) Unwrap() error { return e.Err }

// ErrNotConnected is returned by Send when no connection is established.
var ErrNotConnected = notConnectedError{}

type notConnectedError struct{}

func (notConnectedError) Error() string { return "netclient: not connected" }
