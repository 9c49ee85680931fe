package engine

import (
	"time"

	"github.com/tx2tx/tx2tx/types"
)

// Tuning constants for the context engine's state machine. These are
// not configurable, they're properties of the state machine itself,
// not deployment knobs like VelocityThreshold/PollInterval in Config.
const (
	HysteresisDelay          = 200 * time.Millisecond
	ReturnGuard              = 600 * time.Millisecond
	WarpEnforcementWindow    = 500 * time.Millisecond
	WarpDriftThresholdPixels = 100
	ParkingOffsetPixels      = 30
	ReturnVelocityFactor     = 0.5

	PostUngrabSettle     = 50 * time.Millisecond
	PostCursorShowSettle = 50 * time.Millisecond
	WarpSettle           = 10 * time.Millisecond
)

// RuntimeState is the single mutable value the engine owns. There is
// exactly one instance, mutated only from the tick goroutine.
type RuntimeState struct {
	Context types.ScreenContext

	LastCenterSwitchTime time.Time
	LastRemoteSwitchTime time.Time

	LastSentPosition       *types.Position
	ActiveRemoteClientName *string

	JumpHotkeyArmedUntil      time.Time
	JumpHotkeyPendingTarget   *types.ScreenContext
	JumpHotkeySwallowKeysyms  map[int]struct{}

	PointerGrabbed  bool
	KeyboardGrabbed bool
}

// NewRuntimeState builds the initial state: CENTER, no grabs, no
// pending jump.
func NewRuntimeState() *RuntimeState {
	return &RuntimeState{
		Context:                  types.Center,
		JumpHotkeySwallowKeysyms: make(map[int]struct{}),
	}
}

// jumpArmed reports whether the jump hotkey prefix is currently armed.
func (s *RuntimeState) jumpArmed(now time.Time) bool {
	return now.Before(s.JumpHotkeyArmedUntil)
}
