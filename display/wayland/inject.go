package wayland

import (
	"github.com/ThomasT75/uinput"

	"github.com/tx2tx/tx2tx/types"
)

// Wire button numbers for left/middle/right, mapped to uinput button
// presses; wheel buttons 4-7 go to uinput's wheel call, and the side
// buttons 8/9 match no case and inject nothing.
const (
	btnLeft   = 1
	btnMiddle = 2
	btnRight  = 3
)

// Injector synthesizes input via uinput virtual devices, grounded on
// bnema/waymon's WaylandInputInjector: absolute positions are
// approximated as a delta from the last position the Backend observed,
// since uinput mice are relative-only.
type Injector struct {
	backend  *Backend
	mouse    uinput.Mouse
	keyboard uinput.Keyboard
}

// NewInjector creates the virtual mouse/keyboard devices backing i.
// backend supplies the last-known absolute position used to compute
// relative deltas for mouse moves.
func NewInjector(backend *Backend) (*Injector, error) {
	mouse, err := uinput.CreateMouse("/dev/uinput", []byte("tx2tx virtual mouse"))
	if err != nil {
		return nil, &InjectError{Op: "create mouse", Err: err}
	}
	keyboard, err := uinput.CreateKeyboard("/dev/uinput", []byte("tx2tx virtual keyboard"))
	if err != nil {
		_ = mouse.Close()
		return nil, &InjectError{Op: "create keyboard", Err: err}
	}
	return &Injector{backend: backend, mouse: mouse, keyboard: keyboard}, nil
}

func (i *Injector) Ready() bool { return i.mouse != nil && i.keyboard != nil }

func (i *Injector) InjectMouseEvent(ev types.MouseEvent) error {
	if ev.Position != nil {
		dx := int32(ev.Position.X - i.backend.lastKnown.X)
		dy := int32(ev.Position.Y - i.backend.lastKnown.Y)
		if dx != 0 || dy != 0 {
			if err := i.mouse.Move(dx, dy); err != nil {
				return &InjectError{Op: "move", Err: err}
			}
		}
		i.backend.lastKnown = *ev.Position
	}
	if ev.IsButtonEvent() && ev.Button != nil {
		if err := i.injectButton(*ev.Button, ev.Type == types.MouseButtonPress); err != nil {
			return err
		}
	}
	return nil
}

func (i *Injector) injectButton(button int, pressed bool) error {
	var err error
	switch button {
	case btnLeft:
		if pressed {
			err = i.mouse.LeftPress()
		} else {
			err = i.mouse.LeftRelease()
		}
	case btnMiddle:
		if pressed {
			err = i.mouse.MiddlePress()
		} else {
			err = i.mouse.MiddleRelease()
		}
	case btnRight:
		if pressed {
			err = i.mouse.RightPress()
		} else {
			err = i.mouse.RightRelease()
		}
	case types.ButtonWheelUp:
		err = i.mouse.Wheel(false, 1)
	case types.ButtonWheelDown:
		err = i.mouse.Wheel(false, -1)
	case types.ButtonWheelLeft:
		err = i.mouse.Wheel(true, -1)
	case types.ButtonWheelRight:
		err = i.mouse.Wheel(true, 1)
	}
	if err != nil {
		return &InjectError{Op: "button", Err: err}
	}
	return nil
}

func (i *Injector) InjectKeyEvent(ev types.KeyEvent) error {
	var err error
	if ev.IsPress() {
		err = i.keyboard.KeyDown(ev.Keycode)
	} else {
		err = i.keyboard.KeyUp(ev.Keycode)
	}
	if err != nil {
		return &InjectError{Op: "key", Err: err}
	}
	return nil
}

// Close releases the virtual devices.
func (i *Injector) Close() {
	if i.mouse != nil {
		_ = i.mouse.Close()
	}
	if i.keyboard != nil {
		_ = i.keyboard.Close()
	}
}

// InjectError wraps a uinput device failure.
type InjectError struct {
	Op  string
	Err error
}

func (e *InjectError) Error() string { return "wayland: inject " + e.Op + ": " + e.Err.Error() }
func (e *InjectError) Unwrap() error { return e.Err }
