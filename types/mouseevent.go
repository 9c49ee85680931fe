package types

// Mouse button numbering used on the wire. Wheel events have no
// associated release.
const (
	ButtonLeft         = 1
	ButtonMiddle       = 2
	ButtonRight        = 3
	ButtonWheelUp      = 4
	ButtonWheelDown    = 5
	ButtonWheelLeft    = 6
	ButtonWheelRight   = 7
	ButtonSideBack     = 8
	ButtonSideForward  = 9
)

// MouseEvent carries either a pixel Position (server-capture side) or a
// NormalizedPoint (wire side), never both. Button is set for press,
// release, and wheel events; it is absent for plain motion.
type MouseEvent struct {
	Type            EventType
	Position        *Position
	NormalizedPoint *NormalizedPoint
	Button          *int
}

// IsButtonEvent reports whether this is a press or release (not motion).
func (m MouseEvent) IsButtonEvent() bool {
	return m.Type == MouseButtonPress || m.Type == MouseButtonRelease
}

// NewMotion builds a pixel-space motion/button event for the server
// capture side. button is nil for plain motion.
func NewMotion(typ EventType, pos Position, button *int) MouseEvent {
	return MouseEvent{Type: typ, Position: &pos, Button: button}
}

// NewNormalizedMotion builds a wire-space event carrying a normalized
// point instead of a pixel position.
func NewNormalizedMotion(typ EventType, n NormalizedPoint, button *int) MouseEvent {
	return MouseEvent{Type: typ, NormalizedPoint: &n, Button: button}
}
