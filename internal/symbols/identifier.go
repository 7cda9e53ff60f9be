package symbols

import (
	"strconv"
	"unicode"
)

// DefaultPrefix replaces $ in generated Go identifiers.
const DefaultPrefix = "_jt"

// Identifier is a freshly minted name.
type Identifier struct {
	counter uint64
	hint    string
	prefix  string
}

// Counter returns the numeric part of the identifier.
func (id Identifier) Counter() uint64 { return id.counter }

// Hint returns the debug hint.
func (id Identifier) Hint() string { return id.hint }

// String returns the canonical spelling $<counter>_<hint>.
func (id Identifier) String() string {
	return "$" + id.tail()
}

// Name returns the spelling used in Go sources.
func (id Identifier) Name() string {
	return id.prefix + id.tail()
}

func (id Identifier) tail() string {
	return strconv.FormatUint(id.counter, 10) + "_" + id.hint
}

func isIdentTail(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

func isIdent(s string) bool {
	if !isIdentTail(s) {
		return false
	}
	r := []rune(s)[0]
	return unicode.IsLetter(r) || r == '_'
}
