package protocol

import (
	"encoding/json"
	"errors"

	"github.com/tx2tx/tx2tx/types"
)

var errNoCoordinates = errors.New("protocol: mouse event must carry either (norm_x, norm_y) or (x, y)")

// ParseHello decodes a hello payload.
func ParseHello(m Message) (HelloPayload, error) {
	var p HelloPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return p, &ParseError{Err: err}
	}
	return p, nil
}

// ParseScreenInfo decodes a screen_info payload.
func ParseScreenInfo(m Message) (types.Screen, error) {
	var p ScreenInfoPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return types.Screen{}, &ParseError{Err: err}
	}
	return types.NewScreen(p.Width, p.Height), nil
}

// ParseScreenTransition decodes a screen_enter/screen_leave payload.
func ParseScreenTransition(m Message) (types.ScreenTransition, error) {
	var p ScreenTransitionPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return types.ScreenTransition{}, &ParseError{Err: err}
	}
	dir, ok := parseDirection(p.Direction)
	if !ok {
		return types.ScreenTransition{}, &ParseError{Err: errors.New("unknown direction " + p.Direction)}
	}
	return types.ScreenTransition{Direction: dir, Position: types.NewPosition(p.X, p.Y)}, nil
}

// ParseMouseEvent decodes a mouse_event payload into a types.MouseEvent.
// Exactly one coordinate form must be present; if neither is, this
// raises a *ParseError rather than guessing.
func ParseMouseEvent(m Message) (types.MouseEvent, error) {
	var p MouseEventPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return types.MouseEvent{}, &ParseError{Err: err}
	}
	typ, ok := types.ParseEventType(p.EventType)
	if !ok {
		return types.MouseEvent{}, &ParseError{Err: errors.New("unknown event_type " + p.EventType)}
	}
	switch {
	case p.NormX != nil && p.NormY != nil:
		return types.MouseEvent{
			Type:            typ,
			NormalizedPoint: &types.NormalizedPoint{X: *p.NormX, Y: *p.NormY},
			Button:          p.Button,
		}, nil
	case p.X != nil && p.Y != nil:
		pos := types.NewPosition(*p.X, *p.Y)
		return types.MouseEvent{Type: typ, Position: &pos, Button: p.Button}, nil
	default:
		return types.MouseEvent{}, &ParseError{Err: errNoCoordinates}
	}
}

// ParseKeyEvent decodes a key_event payload.
func ParseKeyEvent(m Message) (types.KeyEvent, error) {
	var p KeyEventPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return types.KeyEvent{}, &ParseError{Err: err}
	}
	typ, ok := types.ParseEventType(p.EventType)
	if !ok {
		return types.KeyEvent{}, &ParseError{Err: errors.New("unknown event_type " + p.EventType)}
	}
	return types.KeyEvent{Type: typ, Keycode: p.Keycode, Keysym: p.Keysym, State: p.State}, nil
}

// ParseHintShow decodes a hint_show payload.
func ParseHintShow(m Message) (HintShowPayload, error) {
	var p HintShowPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return p, &ParseError{Err: err}
	}
	return p, nil
}

// ParseErrorPayload decodes an error payload.
func ParseErrorPayload(m Message) (string, error) {
	var p ErrorPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return "", &ParseError{Err: err}
	}
	return p.Error, nil
}

func parseDirection(s string) (types.Direction, bool) {
	switch s {
	case "left":
		return types.Left, true
	case "right":
		return types.Right, true
	case "top":
		return types.Top, true
	case "bottom":
		return types.Bottom, true
	default:
		return 0, false
	}
}
