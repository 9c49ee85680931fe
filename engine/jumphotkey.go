package engine

import (
	"time"

	"github.com/tx2tx/tx2tx/capture"
	"github.com/tx2tx/tx2tx/types"
)

// processJumpHotkey runs events through the prefix+action state
// machine and returns the events that were not consumed by it, plus a
// resolved target context if the sequence just completed.
func (e *Engine) processJumpHotkey(events []capture.Event, now time.Time) ([]capture.Event, *types.ScreenContext) {
	cfg := e.cfg.JumpHotkey
	if !cfg.Enabled {
		return events, nil
	}
	st := e.state

	var remaining []capture.Event
	var resolved *types.ScreenContext

	for _, ev := range events {
		if ev.Key == nil {
			remaining = append(remaining, ev)
			continue
		}
		key := *ev.Key

		if key.Type == types.KeyRelease {
			// Release while armed, resolving the pending action: this
			// takes priority over the generic swallow-consume rule
			// below since it is itself a swallow-keysym release.
			if target, ok := resolveAction(key, cfg); ok && st.JumpHotkeyPendingTarget != nil && *st.JumpHotkeyPendingTarget == target {
				resolved = &target
				st.JumpHotkeyArmedUntil = time.Time{}
				st.JumpHotkeyPendingTarget = nil
				delete(st.JumpHotkeySwallowKeysyms, keyToken(key))
				continue
			}
			if _, swallow := st.JumpHotkeySwallowKeysyms[keyToken(key)]; swallow {
				delete(st.JumpHotkeySwallowKeysyms, keyToken(key))
				continue
			}
		}

		if !st.jumpArmed(now) {
			if key.IsPress() && matchesPrefix(key, cfg) {
				st.JumpHotkeyArmedUntil = now.Add(time.Duration(cfg.Timeout) * time.Millisecond)
				st.JumpHotkeySwallowKeysyms[keyToken(key)] = struct{}{}
				continue
			}
			remaining = append(remaining, ev)
			continue
		}

		// Armed.
		if key.IsPress() {
			if target, ok := resolveAction(key, cfg); ok {
				st.JumpHotkeyPendingTarget = &target
				st.JumpHotkeySwallowKeysyms[keyToken(key)] = struct{}{}
				continue
			}
			remaining = append(remaining, ev)
			continue
		}

		remaining = append(remaining, ev)
	}

	if !st.jumpArmed(now) {
		st.JumpHotkeyPendingTarget = nil
	}

	return remaining, resolved
}

func keyToken(k types.KeyEvent) int {
	if k.Keysym != nil {
		return *k.Keysym
	}
	return k.Keycode + 1<<30 // disjoint namespace from keysyms
}

func matchesPrefix(k types.KeyEvent, cfg JumpHotkeyConfig) bool {
	if k.Keysym == nil || *k.Keysym != cfg.PrefixKeysym {
		return false
	}
	if k.State == nil {
		return cfg.PrefixModifiers == 0
	}
	return *k.State&cfg.PrefixModifiers == cfg.PrefixModifiers
}

func resolveAction(k types.KeyEvent, cfg JumpHotkeyConfig) (types.ScreenContext, bool) {
	if k.Keysym != nil {
		if ctx, ok := cfg.ActionsByKeysym[*k.Keysym]; ok {
			return ctx, true
		}
	}
	if ctx, ok := cfg.ActionsByKeycode[k.Keycode]; ok {
		return ctx, true
	}
	return 0, false
}

// applyJump executes a resolved jump target. A CENTER target reverts.
// A different non-center target reverts first for a clean slate, then
// enters with center parking, not the opposite-edge parking edge
// detection uses.
func (e *Engine) applyJump(target types.ScreenContext, now time.Time) error {
	current := e.state.Context
	if target == types.Center {
		if current != types.Center {
			return e.revertToCenter(now, "jump hotkey to center")
		}
		return nil
	}
	if current != types.Center && target != current {
		if err := e.revertToCenter(now, "jump hotkey clean slate"); err != nil {
			return err
		}
	}
	if e.state.Context == target {
		return nil
	}
	screen, err := e.display.ScreenGeometry()
	if err != nil {
		return &BackendError{Op: "ScreenGeometry", Err: err}
	}
	center := types.NewPosition(screen.Width/2, screen.Height/2)
	return e.enterRemote(target, center, now)
}
