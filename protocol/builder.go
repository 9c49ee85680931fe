package protocol

import "github.com/tx2tx/tx2tx/types"

// HelloPayload is the hello/handshake payload.
type HelloPayload struct {
	Version      string `json:"version"`
	ScreenWidth  *int   `json:"screen_width,omitempty"`
	ScreenHeight *int   `json:"screen_height,omitempty"`
	ClientName   *string `json:"client_name,omitempty"`
}

// ScreenInfoPayload carries a screen's dimensions.
type ScreenInfoPayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ScreenTransitionPayload carries a screen_enter/screen_leave event.
type ScreenTransitionPayload struct {
	Direction string `json:"direction"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

// MouseEventPayload is exactly one of (NormX,NormY) or (X,Y).
type MouseEventPayload struct {
	EventType string   `json:"event_type"`
	NormX     *float64 `json:"norm_x,omitempty"`
	NormY     *float64 `json:"norm_y,omitempty"`
	X         *int     `json:"x,omitempty"`
	Y         *int     `json:"y,omitempty"`
	Button    *int     `json:"button,omitempty"`
}

// KeyEventPayload carries a key_event.
type KeyEventPayload struct {
	EventType string `json:"event_type"`
	Keycode   int    `json:"keycode"`
	Keysym    *int   `json:"keysym,omitempty"`
	State     *int   `json:"state,omitempty"`
}

// HintShowPayload carries an overlay label and auto-hide timeout.
type HintShowPayload struct {
	Label     string `json:"label"`
	TimeoutMs int    `json:"timeout_ms"`
}

// ErrorPayload carries a human-readable error string.
type ErrorPayload struct {
	Error string `json:"error"`
}

// HelloMessage builds a hello message. screenWidth/Height and
// clientName are optional, pass nil to omit.
func HelloMessage(version string, screenWidth, screenHeight *int, clientName *string) Message {
	return Message{Type: MsgHello, Payload: marshalPayload(HelloPayload{
		Version:      version,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		ClientName:   clientName,
	})}
}

// ScreenInfoMessage builds a screen_info message.
func ScreenInfoMessage(width, height int) Message {
	return Message{Type: MsgScreenInfo, Payload: marshalPayload(ScreenInfoPayload{Width: width, Height: height})}
}

// ScreenEnterMessage builds a (legacy) screen_enter message.
func ScreenEnterMessage(t types.ScreenTransition) Message {
	return Message{Type: MsgScreenEnter, Payload: marshalPayload(ScreenTransitionPayload{
		Direction: t.Direction.String(),
		X:         t.Position.X,
		Y:         t.Position.Y,
	})}
}

// ScreenLeaveMessage builds a (legacy) screen_leave message.
func ScreenLeaveMessage(t types.ScreenTransition) Message {
	return Message{Type: MsgScreenLeave, Payload: marshalPayload(ScreenTransitionPayload{
		Direction: t.Direction.String(),
		X:         t.Position.X,
		Y:         t.Position.Y,
	})}
}

// MouseEventMessage builds a mouse_event message. It prefers the
// normalized point when present (wire-side events), falling back to
// pixel coordinates otherwise, never both.
func MouseEventMessage(ev types.MouseEvent) (Message, error) {
	payload := MouseEventPayload{EventType: ev.Type.String(), Button: ev.Button}
	switch {
	case ev.NormalizedPoint != nil:
		x, y := ev.NormalizedPoint.X, ev.NormalizedPoint.Y
		payload.NormX, payload.NormY = &x, &y
	case ev.Position != nil:
		x, y := ev.Position.X, ev.Position.Y
		payload.X, payload.Y = &x, &y
	default:
		return Message{}, errNoCoordinates
	}
	return Message{Type: MsgMouseEvent, Payload: marshalPayload(payload)}, nil
}

// KeyEventMessage builds a key_event message.
func KeyEventMessage(ev types.KeyEvent) Message {
	return Message{Type: MsgKeyEvent, Payload: marshalPayload(KeyEventPayload{
		EventType: ev.Type.String(),
		Keycode:   ev.Keycode,
		Keysym:    ev.Keysym,
		State:     ev.State,
	})}
}

// KeepaliveMessage builds a keepalive message.
func KeepaliveMessage() Message {
	return Message{Type: MsgKeepalive, Payload: marshalPayload(struct{}{})}
}

// ErrorMessage builds an error message.
func ErrorMessage(reason string) Message {
	return Message{Type: MsgError, Payload: marshalPayload(ErrorPayload{Error: reason})}
}

// HintShowMessage builds a hint_show message.
func HintShowMessage(label string, timeoutMs int) Message {
	return Message{Type: MsgHintShow, Payload: marshalPayload(HintShowPayload{Label: label, TimeoutMs: timeoutMs})}
}

// HintHideMessage builds a hint_hide message.
func HintHideMessage() Message {
	return Message{Type: MsgHintHide, Payload: marshalPayload(struct{}{})}
}
