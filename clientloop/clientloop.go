// Package clientloop implements the client receive/inject loop (C10):
// drain server messages, denormalize and inject mouse motion, inject
// key events, and delegate hint overlay messages to an external
// collaborator.
package clientloop

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tx2tx/tx2tx/display"
	"github.com/tx2tx/tx2tx/inject"
	"github.com/tx2tx/tx2tx/netclient"
	"github.com/tx2tx/tx2tx/protocol"
	"github.com/tx2tx/tx2tx/types"
)

// Overlay is the hint-overlay external collaborator: it renders the
// single-character directional label hint_show/hint_hide carry. Its
// actual rendering is out of scope for this package beyond the
// interface.
type Overlay interface {
	Show(label string, timeoutMs int)
	Hide()
}

// NoopOverlay discards hint messages, for headless clients and tests.
type NoopOverlay struct{}

func (NoopOverlay) Show(string, int) {}
func (NoopOverlay) Hide()            {}

// FocusUnderPointer is implemented by injectors that can focus the
// window under the pointer before a key injection, so keystrokes land
// on the user's current window rather than the launching terminal.
// Injectors that can't do this simply don't implement the interface.
type FocusUnderPointer interface {
	FocusWindowUnderPointer() error
}

const drainBatchLimit = 256

// Loop owns one client connection and drives the receive/inject cycle.
type Loop struct {
	client   *netclient.Client
	display  display.Backend
	injector inject.Injector
	overlay  Overlay
	log      zerolog.Logger

	screen            types.Screen
	reconnectEnabled  bool
	nextReconnectTime time.Time

	cursorHidden bool
}

// New builds a Loop. screen is the local screen geometry used to
// denormalize incoming wire positions.
func New(client *netclient.Client, backend display.Backend, injector inject.Injector, overlay Overlay, log zerolog.Logger, screen types.Screen, reconnectEnabled bool) *Loop {
	if overlay == nil {
		overlay = NoopOverlay{}
	}
	return &Loop{
		client:           client,
		display:          backend,
		injector:         injector,
		overlay:          overlay,
		log:              log,
		screen:           screen,
		reconnectEnabled: reconnectEnabled,
	}
}

// Tick drains pending messages, dispatches each, and reports whether
// the loop should keep running.
func (l *Loop) Tick(now time.Time) bool {
	var nextAttempt *time.Time
	if l.reconnectEnabled {
		nextAttempt = &l.nextReconnectTime
	}
	msgs, _ := l.client.Drain(l.screen.Width, l.screen.Height, now, nextAttempt)

	if len(msgs) > drainBatchLimit {
		l.log.Warn().Int("count", len(msgs)).Msg("dropping excess backlog, server is outpacing injection")
		msgs = msgs[len(msgs)-drainBatchLimit:]
	}

	for _, msg := range msgs {
		l.dispatch(msg)
	}

	if l.client.State() == netclient.StateGivenUp {
		return false
	}
	if l.client.State() != netclient.StateConnected && !l.reconnectEnabled {
		return false
	}
	return true
}

func (l *Loop) dispatch(msg protocol.Message) {
	switch msg.Type {
	case protocol.MsgMouseEvent:
		l.handleMouseEvent(msg)
	case protocol.MsgKeyEvent:
		l.handleKeyEvent(msg)
	case protocol.MsgHintShow:
		l.handleHintShow(msg)
	case protocol.MsgHintHide:
		l.overlay.Hide()
	case protocol.MsgKeepalive:
		// no-op, just keeps the connection observably alive.
	case protocol.MsgError:
		if reason, err := protocol.ParseErrorPayload(msg); err == nil {
			l.log.Warn().Str("reason", reason).Msg("server reported an error")
		}
	default:
		l.log.Debug().Str("type", string(msg.Type)).Msg("ignoring unhandled message type")
	}
}

func (l *Loop) handleMouseEvent(msg protocol.Message) {
	ev, err := protocol.ParseMouseEvent(msg)
	if err != nil {
		l.log.Warn().Err(err).Msg("malformed mouse_event")
		return
	}
	if ev.NormalizedPoint == nil {
		l.log.Warn().Msg("mouse_event missing normalized point on the wire side")
		return
	}
	if ev.NormalizedPoint.IsHideSignal() {
		if !l.cursorHidden {
			if err := l.display.HideCursor(); err != nil {
				l.log.Warn().Err(err).Msg("cursor hide failed")
			}
			l.cursorHidden = true
		}
		return
	}

	pos := l.screen.Denormalize(*ev.NormalizedPoint)
	if l.cursorHidden {
		if err := l.display.ShowCursor(); err != nil {
			l.log.Warn().Err(err).Msg("cursor show failed")
		}
		l.cursorHidden = false
	}
	pixelEvent := types.NewMotion(ev.Type, pos, ev.Button)
	if err := l.injector.InjectMouseEvent(pixelEvent); err != nil {
		l.log.Warn().Err(err).Msg("mouse injection failed")
	}
}

func (l *Loop) handleKeyEvent(msg protocol.Message) {
	ev, err := protocol.ParseKeyEvent(msg)
	if err != nil {
		l.log.Warn().Err(err).Msg("malformed key_event")
		return
	}
	if focuser, ok := l.injector.(FocusUnderPointer); ok {
		if err := focuser.FocusWindowUnderPointer(); err != nil {
			l.log.Debug().Err(err).Msg("focus-under-pointer failed, injecting anyway")
		}
	}
	if err := l.injector.InjectKeyEvent(ev); err != nil {
		l.log.Warn().Err(err).Msg("key injection failed")
	}
}

func (l *Loop) handleHintShow(msg protocol.Message) {
	payload, err := protocol.ParseHintShow(msg)
	if err != nil {
		l.log.Warn().Err(err).Msg("malformed hint_show")
		return
	}
	l.overlay.Show(payload.Label, payload.TimeoutMs)
}
