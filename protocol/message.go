// Package protocol implements the tx2tx wire format: one JSON object per
// \n-terminated line, envelope { msg_type, payload }. Encoders and
// decoders live here; nothing here decides what to do with a message,
// that's the engine's and client loop's job.
package protocol

import "encoding/json"

// MsgType tags the envelope payload.
type MsgType string

const (
	MsgHello       MsgType = "hello"
	MsgScreenInfo  MsgType = "screen_info"
	MsgScreenEnter MsgType = "screen_enter"
	MsgScreenLeave MsgType = "screen_leave"
	MsgMouseEvent  MsgType = "mouse_event"
	MsgKeyEvent    MsgType = "key_event"
	MsgKeepalive   MsgType = "keepalive"
	MsgHintShow    MsgType = "hint_show"
	MsgHintHide    MsgType = "hint_hide"
	MsgError       MsgType = "error"
)

// Message is the self-delimited envelope: one of these, JSON-encoded,
// per line.
type Message struct {
	Type    MsgType         `json:"msg_type"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal serializes m to a single JSON line (without the trailing \n;
// the codec owns framing).
func (m Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal parses one line into a Message. It does not interpret the
// payload, that's the job of the Parse* functions in parser.go.
func Unmarshal(line []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return Message{}, &ParseError{Line: string(line), Err: err}
	}
	return m, nil
}

// ParseError wraps a malformed line. Decoders that see neither
// coordinate form, or invalid JSON, raise this.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return "protocol: parse error: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func marshalPayload(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Every payload type here is a plain struct of primitives;
		// Marshal can only fail on unsupported types, which is a
		// programmer error, not a runtime condition to recover from.
		panic("protocol: payload marshal: " + err.Error())
	}
	return b
}
