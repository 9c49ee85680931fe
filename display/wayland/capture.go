package wayland

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"github.com/tx2tx/tx2tx/capture"
	"github.com/tx2tx/tx2tx/types"
)

const eventBacklog = 256

// Capturer listens on the default wl_seat's pointer and keyboard
// objects. This only observes events while tx2tx's own (invisible,
// input-only) surface has focus, which is the best a core-protocol
// Wayland client can do without a compositor-specific input-capture
// extension, a real limitation, not a shortcut.
type Capturer struct {
	seat     *client.Seat
	pointer  *client.Pointer
	keyboard *client.Keyboard

	eventCh       chan capture.Event
	modifierState int
	lastPointer   types.Position
}

// NewCapturer binds a seat's pointer/keyboard objects and wires their
// listeners to feed a non-blocking drain queue.
func NewCapturer(seat *client.Seat) (*Capturer, error) {
	c := &Capturer{seat: seat, eventCh: make(chan capture.Event, eventBacklog)}

	pointer, err := seat.GetPointer()
	if err != nil {
		return nil, &ConnectError{Op: "get pointer", Err: err}
	}
	c.pointer = pointer
	pointer.SetMotionHandler(c.onPointerMotion)
	pointer.SetButtonHandler(c.onPointerButton)

	keyboard, err := seat.GetKeyboard()
	if err != nil {
		return nil, &ConnectError{Op: "get keyboard", Err: err}
	}
	c.keyboard = keyboard
	keyboard.SetKeyHandler(c.onKey)
	keyboard.SetModifiersHandler(c.onModifiers)

	return c, nil
}

func (c *Capturer) onPointerMotion(ev client.PointerMotionEvent) {
	c.lastPointer = types.NewPosition(int(ev.SurfaceX), int(ev.SurfaceY))
	mev := types.NewMotion(types.MouseMove, c.lastPointer, nil)
	c.eventCh <- capture.Event{Mouse: &mev}
}

func (c *Capturer) onPointerButton(ev client.PointerButtonEvent) {
	button := evdevButtonToWire(int(ev.Button))
	typ := types.MouseButtonRelease
	if ev.State == uint32(client.PointerButtonStatePressed) {
		typ = types.MouseButtonPress
	}
	mev := types.NewMotion(typ, c.lastPointer, &button)
	c.eventCh <- capture.Event{Mouse: &mev}
}

func (c *Capturer) onKey(ev client.KeyboardKeyEvent) {
	typ := types.KeyRelease
	if ev.State == uint32(client.KeyboardKeyStatePressed) {
		typ = types.KeyPress
	}
	state := c.modifierState
	kev := types.NewKeyEvent(typ, int(ev.Key)+8, nil, &state)
	c.eventCh <- capture.Event{Key: &kev}
}

func (c *Capturer) onModifiers(ev client.KeyboardModifiersEvent) {
	c.modifierState = int(ev.ModsDepressed)
}

// ReadEvents implements capture.Capturer.
func (c *Capturer) ReadEvents() ([]capture.Event, int, error) {
	var out []capture.Event
	for {
		select {
		case ev := <-c.eventCh:
			out = append(out, ev)
		default:
			return out, c.modifierState, nil
		}
	}
}

// evdevButtonToWire maps Linux evdev button codes (BTN_LEFT=0x110 etc.)
// to tx2tx's wire button numbering.
func evdevButtonToWire(evdevCode int) int {
	switch evdevCode {
	case 0x110:
		return types.ButtonLeft
	case 0x111:
		return types.ButtonRight
	case 0x112:
		return types.ButtonMiddle
	default:
		return evdevCode
	}
}
