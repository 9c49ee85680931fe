package config

import (
	"github.com/tx2tx/tx2tx/engine"
	"github.com/tx2tx/tx2tx/types"
)

func orMask(bits []int) int {
	m := 0
	for _, b := range bits {
		m |= b
	}
	return m
}

// ToEngineConfig builds the engine.Config a server run needs from the
// parsed file, applying the CLI override values (edgeThreshold and
// velocityThreshold are 0 when not supplied and fall back to the config
// file's own values).
func (f *File) ToEngineConfig(edgeThresholdOverride int, velocityThresholdOverride float64) (engine.Config, error) {
	contextMap, err := f.ContextMap()
	if err != nil {
		return engine.Config{}, err
	}

	actionsByKeysym := map[int]types.ScreenContext{}
	jh := f.Server.JumpHotkey
	if jh.WestKey != 0 {
		actionsByKeysym[jh.WestKey] = types.West
	}
	if jh.EastKey != 0 {
		actionsByKeysym[jh.EastKey] = types.East
	}
	if jh.NorthKey != 0 {
		actionsByKeysym[jh.NorthKey] = types.North
	}
	if jh.SouthKey != 0 {
		actionsByKeysym[jh.SouthKey] = types.South
	}
	if jh.CenterKey != 0 {
		actionsByKeysym[jh.CenterKey] = types.Center
	}

	velocity := f.Server.VelocityThreshold
	if velocityThresholdOverride > 0 {
		velocity = velocityThresholdOverride
	}
	edge := f.Server.EdgeThreshold
	if edgeThresholdOverride > 0 {
		edge = edgeThresholdOverride
	}

	return engine.Config{
		VelocityThreshold: velocity,
		EdgeThreshold:     edge,
		PollInterval:      f.Server.PollIntervalMs,
		ContextMap:        contextMap,
		PanicKey: engine.PanicKeyConfig{
			Keysym:    f.Server.PanicKey.Key,
			Modifiers: orMask(f.Server.PanicKey.Modifiers),
		},
		JumpHotkey: engine.JumpHotkeyConfig{
			Enabled:          jh.Enabled,
			PrefixKeysym:     jh.PrefixKey,
			PrefixModifiers:  orMask(jh.PrefixModifiers),
			Timeout:          jh.TimeoutMs,
			ActionsByKeysym:  actionsByKeysym,
			ActionsByKeycode: map[int]types.ScreenContext{},
		},
		StopOnLastClientDisconnect: f.Server.StopOnDisconnect,
		HintTimeoutMs:              0,
		OverlayEnabled:             f.Server.OverlayEnabled,
	}, nil
}
