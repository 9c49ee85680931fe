package x11

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/tx2tx/tx2tx/capture"
	"github.com/tx2tx/tx2tx/types"
)

const eventBacklog = 256

// Capturer drains XTEST-visible button/key events off a grabbed X11
// connection. xgb.Conn.WaitForEvent blocks, so a dedicated goroutine
// feeds a channel, the same reader-goroutine/non-blocking-drain split
// netserver and netclient use for sockets.
type Capturer struct {
	conn          *xgb.Conn
	eventCh       chan capture.Event
	modifierState int
}

// NewCapturer starts draining conn's event stream. Pointer and key
// events only arrive on conn while the Backend holds its pointer and
// keyboard grabs (Backend.GrabPointer / GrabKeyboard).
func NewCapturer(conn *xgb.Conn) *Capturer {
	c := &Capturer{conn: conn, eventCh: make(chan capture.Event, eventBacklog)}
	go c.readLoop()
	return c
}

func (c *Capturer) readLoop() {
	for {
		ev, err := c.conn.WaitForEvent()
		if err != nil || ev == nil {
			return
		}
		switch e := ev.(type) {
		case xproto.ButtonPressEvent:
			c.modifierState = int(e.State)
			button := int(e.Detail)
			pos := types.NewPosition(int(e.RootX), int(e.RootY))
			mev := types.NewMotion(types.MouseButtonPress, pos, &button)
			c.eventCh <- capture.Event{Mouse: &mev}
		case xproto.ButtonReleaseEvent:
			c.modifierState = int(e.State)
			button := int(e.Detail)
			pos := types.NewPosition(int(e.RootX), int(e.RootY))
			mev := types.NewMotion(types.MouseButtonRelease, pos, &button)
			c.eventCh <- capture.Event{Mouse: &mev}
		case xproto.KeyPressEvent:
			c.modifierState = int(e.State)
			keysym := int(e.Detail)
			state := int(e.State)
			kev := types.NewKeyEvent(types.KeyPress, int(e.Detail), &keysym, &state)
			c.eventCh <- capture.Event{Key: &kev}
		case xproto.KeyReleaseEvent:
			c.modifierState = int(e.State)
			keysym := int(e.Detail)
			state := int(e.State)
			kev := types.NewKeyEvent(types.KeyRelease, int(e.Detail), &keysym, &state)
			c.eventCh <- capture.Event{Key: &kev}
		}
	}
}

// ReadEvents implements capture.Capturer: a non-blocking drain of
// whatever the reader goroutine has queued since the last call.
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
