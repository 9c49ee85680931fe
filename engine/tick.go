package engine

import (
	"math"
	"time"

	"github.com/tx2tx/tx2tx/protocol"
	"github.com/tx2tx/tx2tx/types"
)

// remoteTick runs the eight ordered steps executed every tick while
// context is non-center: target resolution, warp enforcement, return-
// boundary check, motion forwarding, input draining, jump hotkey,
// panic key, and event forwarding.
func (e *Engine) remoteTick(now time.Time, pos types.Position) Outcome {
	st := e.state

	// Step 1: target resolution.
	target, ok := e.cfg.ContextMap[st.Context]
	if !ok {
		_, _, _ = e.capture.ReadEvents()
		if err := e.revertToCenter(now, "no client mapped to current context"); err != nil {
			return Outcome{Kind: OutcomeFatal, Err: err}
		}
		return Outcome{Kind: OutcomeReverted, Reason: "no client mapped to current context"}
	}
	if st.ActiveRemoteClientName == nil || *st.ActiveRemoteClientName != target {
		st.ActiveRemoteClientName = &target
	}

	// Step 2: warp enforcement (non-native sessions only).
	if !e.display.IsNativeSession() && now.Sub(st.LastRemoteSwitchTime) < WarpEnforcementWindow {
		parking := parkingPosition(types.DirectionFor(st.Context), e.localScreen)
		if driftPixels(pos, parking) > WarpDriftThresholdPixels {
			if err := e.display.SetCursorPosition(parking); err != nil {
				e.log.Warn().Err(err).Msg("warp enforcement failed")
			}
			_ = e.display.Sync()
			e.sleep(WarpSettle)
			return Outcome{Kind: OutcomeContinue}
		}
	}

	// Step 3: return-boundary check.
	if now.Sub(st.LastRemoteSwitchTime) >= ReturnGuard {
		if e.onReturnEdge(pos, st.Context) && e.tracker.Velocity() >= ReturnVelocityFactor*e.cfg.VelocityThreshold {
			hide := types.NewNormalizedMotion(types.MouseMove, types.HideSignal, nil)
			if msg, err := protocol.MouseEventMessage(hide); err == nil {
				if err := e.server.SendTo(target, msg); err != nil {
					e.log.Warn().Err(err).Msg("hide signal send failed")
				}
			}
			if err := e.revertToCenter(now, "return boundary crossed"); err != nil {
				return Outcome{Kind: OutcomeFatal, Err: err}
			}
			return Outcome{Kind: OutcomeReverted, Reason: "return boundary crossed"}
		}
	}

	// Step 4: motion forwarding.
	if st.LastSentPosition == nil || *st.LastSentPosition != pos {
		norm := e.localScreen.Normalize(pos)
		motion := types.NewNormalizedMotion(types.MouseMove, norm, nil)
		msg, err := protocol.MouseEventMessage(motion)
		if err != nil {
			e.log.Warn().Err(err).Msg("failed to build motion message")
		} else if err := e.server.SendTo(target, msg); err != nil {
			e.log.Warn().Err(err).Msg("motion send failed")
			if rerr := e.revertToCenter(now, "motion send failed"); rerr != nil {
				return Outcome{Kind: OutcomeFatal, Err: rerr}
			}
			return Outcome{Kind: OutcomeReverted, Reason: "motion send failed"}
		} else {
			st.LastSentPosition = &pos
		}
	}

	// Step 5: input draining.
	events, modifierState, err := e.capture.ReadEvents()
	if err != nil {
		e.log.Warn().Err(err).Msg("input read failed")
	}

	// Step 6: jump hotkey.
	if e.cfg.JumpHotkey.Enabled {
		remaining, jumpTarget := e.processJumpHotkey(events, now)
		events = remaining
		if jumpTarget != nil {
			if err := e.applyJump(*jumpTarget, now); err != nil {
				e.log.Warn().Err(err).Msg("jump hotkey apply failed")
			}
			return Outcome{Kind: OutcomeContinue}
		}
	}

	// Step 7: panic key.
	for _, ev := range events {
		if ev.Key == nil || !ev.Key.IsPress() {
			continue
		}
		if e.matchesPanicKey(*ev.Key) {
			if err := e.revertToCenter(now, "panic key"); err != nil {
				return Outcome{Kind: OutcomeFatal, Err: err}
			}
			return Outcome{Kind: OutcomeReverted, Reason: "panic key"}
		}
	}

	// Step 8: event forwarding.
	for _, ev := range events {
		var msg protocol.Message
		switch {
		case ev.Mouse != nil:
			m := *ev.Mouse
			if m.Position != nil {
				norm := e.localScreen.Normalize(*m.Position)
				m = types.NewNormalizedMotion(m.Type, norm, m.Button)
			}
			built, err := protocol.MouseEventMessage(m)
			if err != nil {
				continue
			}
			msg = built
		case ev.Key != nil:
			msg = protocol.KeyEventMessage(*ev.Key)
		default:
			continue
		}
		if err := e.server.SendTo(target, msg); err != nil {
			e.log.Warn().Err(err).Msg("event forwarding failed")
			if rerr := e.revertToCenter(now, "event forwarding failed"); rerr != nil {
				return Outcome{Kind: OutcomeFatal, Err: rerr}
			}
			return Outcome{Kind: OutcomeReverted, Reason: "event forwarding failed"}
		}
	}

	_ = modifierState
	return Outcome{Kind: OutcomeContinue}
}

// onReturnEdge reports whether pos sits on the edge opposite the entry
// direction for ctx.
func (e *Engine) onReturnEdge(pos types.Position, ctx types.ScreenContext) bool {
	switch types.DirectionFor(ctx) {
	case types.Left:
		return pos.X >= e.localScreen.Width-1
	case types.Right:
		return pos.X <= 0
	case types.Top:
		return pos.Y >= e.localScreen.Height-1
	default: // Bottom
		return pos.Y <= 0
	}
}

func (e *Engine) matchesPanicKey(k types.KeyEvent) bool {
	cfg := e.cfg.PanicKey
	if cfg.Keysym == 0 || k.Keysym == nil || *k.Keysym != cfg.Keysym {
		return false
	}
	if k.State == nil {
		return cfg.Modifiers == 0
	}
	return *k.State&cfg.Modifiers == cfg.Modifiers
}

func driftPixels(a, b types.Position) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return int(math.Sqrt(float64(dx*dx + dy*dy)))
}
