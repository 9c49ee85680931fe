package types

// KeyEvent carries a raw platform keycode plus optional advisory
// keysym and modifier state. Keycode crosses the wire in the capturing
// side's native space (X11 keycode or evdev+8); the client injector
// adapts it.
type KeyEvent struct {
	Type    EventType
	Keycode int
	Keysym  *int
	State   *int
}

// IsPress reports whether this is a key-press (vs. release).
func (k KeyEvent) IsPress() bool {
	return k.Type == KeyPress
}

// NewKeyEvent builds a KeyEvent.
func NewKeyEvent(typ EventType, keycode int, keysym, state *int) KeyEvent {
	return KeyEvent{Type: typ, Keycode: keycode, Keysym: keysym, State: state}
}
