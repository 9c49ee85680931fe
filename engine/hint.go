package engine

import "github.com/tx2tx/tx2tx/types"

// hintLabel returns the single-character directional label the hint
// overlay, an external collaborator, shows near the edge the pointer
// is about to cross. One letter per cardinal context.
func hintLabel(ctx types.ScreenContext) string {
	switch ctx {
	case types.West:
		return "W"
	case types.East:
		return "E"
	case types.North:
		return "N"
	case types.South:
		return "S"
	default:
		return "?"
	}
}

func (e *Engine) hintTimeoutMs() int {
	if e.cfg.HintTimeoutMs > 0 {
		return e.cfg.HintTimeoutMs
	}
	return DefaultHintTimeoutMs
}
