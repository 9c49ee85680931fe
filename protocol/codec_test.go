package protocol_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/tx2tx/tx2tx/protocol"
)

func TestLineReaderReadsMultipleLines(t *testing.T) {
	var buf bytes.Buffer
	_ = protocol.WriteMessage(&buf, protocol.KeepaliveMessage())
	_ = protocol.WriteMessage(&buf, protocol.HintHideMessage())

	r := protocol.NewLineReader(&buf)
	first, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Type != protocol.MsgKeepalive {
		t.Fatalf("got %v, want keepalive", first.Type)
	}
	second, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Type != protocol.MsgHintHide {
		t.Fatalf("got %v, want hint_hide", second.Type)
	}
	if _, err := r.ReadMessage(); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestLineReaderOverflow(t *testing.T) {
	huge := strings.Repeat("a", protocol.MaxLineSize+10)
	r := protocol.NewLineReader(strings.NewReader(huge + "\n"))
	_, err := r.ReadMessage()
	if err != protocol.ErrBufferOverflow {
		t.Fatalf("got %v, want ErrBufferOverflow", err)
	}
}

func TestLineReaderMalformedLineIsParseError(t *testing.T) {
	r := protocol.NewLineReader(strings.NewReader("not json\n"))
	_, err := r.ReadMessage()
	var parseErr *protocol.ParseError
	if err == nil {
		t.Fatal("expected an error")
	}
	if !asParseError(err, &parseErr) {
		t.Fatalf("got %T, want *protocol.ParseError", err)
	}
}

func asParseError(err error, target **protocol.ParseError) bool {
	if pe, ok := err.(*protocol.ParseError); ok {
		*target = pe
		return true
	}
	return false
}
