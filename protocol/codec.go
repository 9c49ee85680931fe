package protocol

import (
	"bufio"
	"errors"
	"io"
)

// MaxLineSize bounds a single peer's line buffer at 1 MiB. A peer that
// exceeds this without sending a newline is a fatal connection error,
// not a recoverable one.
const MaxLineSize = 1 << 20

// ErrBufferOverflow is returned by LineReader.ReadMessage when a peer
// exceeds MaxLineSize before completing a line.
var ErrBufferOverflow = errors.New("protocol: line buffer exceeded 1 MiB")

// LineReader decodes \n-delimited JSON messages from a byte stream. It
// is the shared core behind both netserver's per-peer receive and
// netclient's receive: both are "read bytes, split on \n, decode JSON",
// so the splitting and bounding logic lives once, here.
type LineReader struct {
	scanner *bufio.Scanner
}

// NewLineReader wraps r with a bounded split-on-newline scanner.
func NewLineReader(r io.Reader) *LineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxLineSize)
	return &LineReader{scanner: s}
}

// ReadMessage reads and decodes the next line. It returns io.EOF when
// the stream is closed cleanly, ErrBufferOverflow when a line exceeded
// MaxLineSize, or a *ParseError for malformed JSON on an otherwise
// well-framed line. Callers decide whether a parse error kills the
// connection, it does not, or overflow does, it does.
func (r *LineReader) ReadMessage() (Message, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return Message{}, ErrBufferOverflow
			}
			return Message{}, err
		}
		return Message{}, io.EOF
	}
	line := r.scanner.Bytes()
	if len(line) == 0 {
		return Message{}, errEmptyLine
	}
	return Unmarshal(line)
}

var errEmptyLine = errors.New("protocol: empty line")

// IsEmptyLine reports whether err is the "skip, keep reading" empty
// line case rather than a real decode failure.
func IsEmptyLine(err error) bool {
	return errors.Is(err, errEmptyLine)
}

// WriteMessage serializes m and writes it as one \n-terminated line.
func WriteMessage(w io.Writer, m Message) error {
	b, err := m.Marshal()
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
