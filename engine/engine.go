// Package engine implements the server context engine (C9): the
// single-threaded state machine that owns RuntimeState and drives
// edge-triggered and jump-triggered context switches, motion/event
// forwarding, and the revert-to-CENTER safety sequence.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tx2tx/tx2tx/capture"
	"github.com/tx2tx/tx2tx/display"
	"github.com/tx2tx/tx2tx/netserver"
	"github.com/tx2tx/tx2tx/pointer"
	"github.com/tx2tx/tx2tx/protocol"
	"github.com/tx2tx/tx2tx/types"
)

// Outcome reports what a Tick did, for logging and for the run loop's
// shutdown policy: a typed result with error kinds instead of
// exceptions for control flow.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Err    error
}

type OutcomeKind int

const (
	OutcomeContinue OutcomeKind = iota
	OutcomeReverted
	OutcomeFatal
	OutcomeStopped
)

// Engine owns RuntimeState and every tick's dependencies. Exactly one
// goroutine calls Tick; no field here needs its own lock.
type Engine struct {
	cfg     Config
	log     zerolog.Logger
	display display.Backend
	capture capture.Capturer
	server  *netserver.Server
	tracker *pointer.Tracker
	state   *RuntimeState

	localScreen types.Screen

	// sleep is injectable so tests can run the revert safety sequence
	// without actually waiting on wall-clock time.
	sleep func(time.Duration)
}

// New builds an Engine. localScreen is queried once at startup via
// backend.ScreenGeometry and cached, since it does not change during
// a run.
func New(cfg Config, log zerolog.Logger, backend display.Backend, cap capture.Capturer, server *netserver.Server, localScreen types.Screen) *Engine {
	return &Engine{
		cfg:         cfg,
		log:         log,
		display:     backend,
		capture:     cap,
		server:      server,
		tracker:     pointer.NewTracker(cfg.VelocityThreshold),
		state:       NewRuntimeState(),
		localScreen: localScreen,
		sleep:       time.Sleep,
	}
}

// PollInterval returns the configured poll delay, clamped to a 5 ms
// floor so a misconfigured value can't spin the tick loop.
func (e *Engine) PollInterval() time.Duration {
	ms := e.cfg.PollInterval
	if ms < 5 {
		ms = 5
	}
	return time.Duration(ms) * time.Millisecond
}

// State exposes the runtime state for tests and diagnostics.
func (e *Engine) State() *RuntimeState { return e.state }

// Tick performs one iteration of the cooperative poll loop: drain
// peer network events, sample the pointer, and dispatch to the
// per-context subroutine.
func (e *Engine) Tick(now time.Time) Outcome {
	netEvents := e.server.Tick()
	if outcome, handled := e.handleNetworkEvents(netEvents, now); handled {
		return outcome
	}
	if e.cfg.StopOnLastClientDisconnect && rosterJustEmptied(netEvents) && e.server.ConnectedCount() == 0 {
		return Outcome{Kind: OutcomeStopped, Reason: "last client disconnected"}
	}

	pos, err := e.display.PointerPosition()
	if err != nil {
		e.log.Warn().Err(err).Msg("pointer position query failed, skipping this tick")
		return Outcome{Kind: OutcomeContinue}
	}
	e.tracker.Sample(pos, now)

	if e.state.Context == types.Center {
		return e.centerTick(now, pos)
	}
	return e.remoteTick(now, pos)
}

// rosterJustEmptied reports whether this batch of events contained a
// disconnect or eviction, the trigger StopOnLastClientDisconnect
// watches for before checking whether anyone is still connected.
func rosterJustEmptied(events []netserver.Event) bool {
	for _, ev := range events {
		if ev.Kind == netserver.EventDisconnected || ev.Kind == netserver.EventEvicted {
			return true
		}
	}
	return false
}

// handleNetworkEvents reacts to disconnects/evictions that affect the
// currently active remote client: if the peer was the active remote
// target, revert to center.
func (e *Engine) handleNetworkEvents(events []netserver.Event, now time.Time) (Outcome, bool) {
	for _, ev := range events {
		switch ev.Kind {
		case netserver.EventDisconnected, netserver.EventEvicted:
			if ev.Conn.Name == nil || e.state.ActiveRemoteClientName == nil {
				continue
			}
			if *ev.Conn.Name == *e.state.ActiveRemoteClientName {
				if err := e.revertToCenter(now, "active remote client disconnected"); err != nil {
					return Outcome{Kind: OutcomeFatal, Err: err}, true
				}
				return Outcome{Kind: OutcomeReverted, Reason: "active remote client disconnected"}, true
			}
		}
	}
	return Outcome{}, false
}

// centerTick samples input while the local screen has focus: it checks
// the jump hotkey state machine first, then falls back to edge-crossing
// detection.
func (e *Engine) centerTick(now time.Time, pos types.Position) Outcome {
	if now.Sub(e.state.LastCenterSwitchTime) < HysteresisDelay {
		return Outcome{Kind: OutcomeContinue}
	}

	events, modifiers, err := e.capture.ReadEvents()
	if err != nil {
		e.log.Warn().Err(err).Msg("input read failed")
	}
	_ = modifiers

	if e.cfg.JumpHotkey.Enabled {
		_, target := e.processJumpHotkey(events, now)
		if target != nil {
			if err := e.applyJump(*target, now); err != nil {
				e.log.Warn().Err(err).Msg("jump hotkey apply failed")
			}
			return Outcome{Kind: OutcomeContinue}
		}
	}

	transition, ok := e.tracker.Detect(e.localScreen, now)
	if !ok {
		return Outcome{Kind: OutcomeContinue}
	}

	target := types.ContextFor(transition.Direction)
	name, ok := e.cfg.ContextMap[target]
	if !ok || !e.server.IsConnected(name) {
		e.log.Info().Str("target", target.String()).Msg("edge crossed but target client is not connected")
		return Outcome{Kind: OutcomeContinue}
	}

	parking := parkingPosition(transition.Direction, e.localScreen)
	if err := e.enterRemote(target, parking, now); err != nil {
		e.log.Warn().Err(err).Msg("enter remote failed, rolling back")
		_ = e.display.UngrabPointer()
		_ = e.display.UngrabKeyboard()
		_ = e.display.ShowCursor()
		e.state.Context = types.Center
		e.state.LastCenterSwitchTime = now
		return Outcome{Kind: OutcomeContinue}
	}
	return Outcome{Kind: OutcomeContinue}
}

// parkingPosition computes the CENTER-to-REMOTE parking point: 30px
// from the opposite edge in the crossing axis.
func parkingPosition(d types.Direction, screen types.Screen) types.Position {
	switch d {
	case types.Left:
		return types.NewPosition(screen.Width-ParkingOffsetPixels, screen.Height/2)
	case types.Right:
		return types.NewPosition(ParkingOffsetPixels, screen.Height/2)
	case types.Top:
		return types.NewPosition(screen.Width/2, screen.Height-ParkingOffsetPixels)
	default: // Bottom
		return types.NewPosition(screen.Width/2, ParkingOffsetPixels)
	}
}

// enterRemote commits the CENTER-to-REMOTE transition: state mutation
// happens first, then the warp to the parking spot, then the grabs and
// the cursor hide.
func (e *Engine) enterRemote(target types.ScreenContext, parking types.Position, now time.Time) error {
	name, ok := e.cfg.ContextMap[target]
	if !ok {
		return &ConfigError{Reason: "no client mapped to context " + target.String()}
	}

	e.state.Context = target
	e.state.ActiveRemoteClientName = &name
	e.state.LastSentPosition = nil
	e.state.LastRemoteSwitchTime = now
	e.tracker.Reset()

	if err := e.display.SetCursorPosition(parking); err != nil {
		return &BackendError{Op: "SetCursorPosition", Err: err}
	}
	if err := e.display.GrabPointer(); err != nil {
		e.log.Warn().Err(err).Msg("pointer grab failed, continuing")
	} else {
		e.state.PointerGrabbed = true
	}
	if err := e.display.GrabKeyboard(); err != nil {
		e.log.Warn().Err(err).Msg("keyboard grab failed, continuing")
	} else {
		e.state.KeyboardGrabbed = true
	}
	if err := e.display.HideCursor(); err != nil {
		return &BackendError{Op: "HideCursor", Err: err}
	}

	if e.cfg.OverlayEnabled {
		hint := protocol.HintShowMessage(hintLabel(target), e.hintTimeoutMs())
		if err := e.server.SendTo(name, hint); err != nil {
			e.log.Warn().Err(err).Msg("hint_show send failed")
		}
	}
	return nil
}

// revertToCenter runs the fixed six-step safety sequence: clear state,
// hide the overlay hint, ungrab, settle, show the cursor, settle, warp
// back onto the local screen, settle.
func (e *Engine) revertToCenter(now time.Time, reason string) error {
	prevContext := e.state.Context
	prevClient := e.state.ActiveRemoteClientName

	e.state.Context = types.Center
	e.state.LastSentPosition = nil
	e.state.ActiveRemoteClientName = nil
	e.state.LastCenterSwitchTime = now

	entryPos := entryPosition(prevContext, e.localScreen)

	if e.cfg.OverlayEnabled && prevContext != types.Center && prevClient != nil {
		if err := e.server.SendTo(*prevClient, protocol.HintHideMessage()); err != nil {
			e.log.Warn().Err(err).Msg("hint_hide send failed")
		}
	}

	var firstErr error
	noteErr := func(op string, err error) {
		if err != nil && firstErr == nil {
			firstErr = &BackendError{Op: op, Err: err}
		}
	}

	noteErr("UngrabKeyboard", e.display.UngrabKeyboard())
	noteErr("UngrabPointer", e.display.UngrabPointer())
	e.state.PointerGrabbed = false
	e.state.KeyboardGrabbed = false
	_ = e.display.Sync()
	e.sleep(PostUngrabSettle)

	noteErr("ShowCursor", e.display.ShowCursor())
	_ = e.display.Sync()
	e.sleep(PostCursorShowSettle)

	if prevContext != types.Center {
		noteErr("SetCursorPosition", e.display.SetCursorPosition(entryPos))
		_ = e.display.Sync()
		e.sleep(WarpSettle)
	}

	e.tracker.Reset()

	if firstErr != nil {
		e.log.Warn().Err(firstErr).Str("reason", reason).Msg("revert to center hit a backend error; best-effort cleanup already attempted")
		_ = e.display.ShowCursor()
		_ = e.display.UngrabKeyboard()
		_ = e.display.UngrabPointer()
	}
	return nil
}

// entryPosition computes the REMOTE-to-CENTER landing point: 30px
// inside the local screen on the edge corresponding to prevContext.
func entryPosition(prevContext types.ScreenContext, screen types.Screen) types.Position {
	if prevContext == types.Center {
		return types.NewPosition(screen.Width/2, screen.Height/2)
	}
	switch types.DirectionFor(prevContext) {
	case types.Left:
		return types.NewPosition(ParkingOffsetPixels, screen.Height/2)
	case types.Right:
		return types.NewPosition(screen.Width-ParkingOffsetPixels, screen.Height/2)
	case types.Top:
		return types.NewPosition(screen.Width/2, ParkingOffsetPixels)
	default: // Bottom
		return types.NewPosition(screen.Width/2, screen.Height-ParkingOffsetPixels)
	}
}
