package protocol

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// ErrInvalidHintLabel is returned by ValidateHintLabel for a label that
// cannot be rendered as a single overlay glyph.
var ErrInvalidHintLabel = errors.New("protocol: hint label must be exactly one narrow rune")

// ValidateHintLabel enforces the hint_show payload's "label is a single
// char" rule. It rejects multi-rune strings and wide/fullwidth runes,
// since the overlay (an external collaborator) renders the label in a
// single fixed-size cell.
func ValidateHintLabel(label string) error {
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError || size != len(label) {
		return ErrInvalidHintLabel
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return ErrInvalidHintLabel
	}
	return nil
}
