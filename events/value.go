package events

import "strings"

// Value is a captured runtime value: its dynamic type and its rendering.
// The zero Value means "no value".
type Value struct {
	Type string
	Text string
}

// Capture renders v. No method of v is called: rendering is done on the
// value representation, see [Render].
func Capture(v any) Value {
	return Value{
		Type: TypeName(v),
		Text: Render(v),
	}
}

// Tuple captures several values as one. A single value is captured as is
// and an empty list gives the zero Value.
func Tuple(vs ...any) Value {
	switch len(vs) {
	case 0:
		return Value{}
	case 1:
		return Capture(vs[0])
	}

	var typ, txt strings.Builder
	typ.WriteByte('(')
	txt.WriteByte('(')
	for i, v := range vs {
		if i > 0 {
			typ.WriteString(", ")
			txt.WriteString(", ")
		}
		c := Capture(v)
		typ.WriteString(c.Type)
		txt.WriteString(c.Text)
	}
	typ.WriteByte(')')
	txt.WriteByte(')')

	return Value{Type: typ.String(), Text: txt.String()}
}

// IsZero reports whether no value was captured.
func (v Value) IsZero() bool {
	return v == Value{}
}

func (v Value) String() string {
	return v.Text
}
