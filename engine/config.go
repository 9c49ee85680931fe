package engine

import "github.com/tx2tx/tx2tx/types"

// ContextMap is the {context -> client_name} routing table consulted
// at the start of every remote tick. Only the four non-center contexts
// are meaningful keys.
type ContextMap map[types.ScreenContext]string

// PanicKeyConfig names the key combination that forces an immediate
// revert regardless of context.
type PanicKeyConfig struct {
	Keysym    int
	Modifiers int // required bits; State&Modifiers==Modifiers to match
}

// JumpHotkeyConfig configures the prefix+action teleport sequence.
// ActionsByKeysym and ActionsByKeycode are both consulted, keysym
// first, keycode as the fallback when the capture side couldn't
// resolve one.
type JumpHotkeyConfig struct {
	Enabled bool

	PrefixKeysym    int
	PrefixModifiers int
	Timeout         int // milliseconds

	ActionsByKeysym  map[int]types.ScreenContext
	ActionsByKeycode map[int]types.ScreenContext
}

// Config holds the engine's deployment-tunable parameters. EdgeThreshold
// is accepted for config-file compatibility but intentionally unused:
// edge crossing detection requires the strict edge pixel, never
// "within N px".
type Config struct {
	VelocityThreshold float64
	EdgeThreshold     int
	PollInterval      int // milliseconds, clamped >= 5 by Engine.PollInterval

	ContextMap ContextMap
	PanicKey   PanicKeyConfig
	JumpHotkey JumpHotkeyConfig

	// StopOnLastClientDisconnect ends the run loop when a disconnect or
	// eviction leaves no clients connected, instead of idling in CENTER
	// forever with nothing to switch to.
	StopOnLastClientDisconnect bool

	// HintTimeoutMs is the auto-hide delay the hint_show message tells
	// the client overlay to honor. 0 falls back to DefaultHintTimeoutMs.
	HintTimeoutMs int

	// OverlayEnabled gates hint_show/hint_hide sends. Defaults to false
	// (zero value); server.overlay_enabled in config turns it on.
	OverlayEnabled bool
}

// DefaultHintTimeoutMs is used when Config.HintTimeoutMs is unset.
const DefaultHintTimeoutMs = 800
