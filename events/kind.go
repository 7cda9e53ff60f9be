package events

import (
	"encoding"
	"fmt"
)

// Kind enumerates event kinds.
type Kind int

const (
	kindInvalid Kind = iota
	KindReturn
	KindBreak
	KindContinue
	KindYield
	KindSwitch
	KindVarDecl
	KindThrow
	KindCatch
	KindAssertion
	KindExec
)

var kindNames = map[Kind]string{
	KindReturn:    "return",
	KindBreak:     "break",
	KindContinue:  "continue",
	KindYield:     "yield",
	KindSwitch:    "switch",
	KindVarDecl:   "var-decl",
	KindThrow:     "throw",
	KindCatch:     "catch",
	KindAssertion: "assertion",
	KindExec:      "exec",
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	res := make([]Kind, 0, len(kindNames))
	for k := KindReturn; k <= KindExec; k++ {
		res = append(res, k)
	}
	return res
}

func (k Kind) String() string {
	if v, ok := kindNames[k]; ok {
		return v
	}

	return fmt.Sprintf("kind-invalid(%d)", int(k))
}

var (
	_ encoding.TextMarshaler   = Kind(0)
	_ encoding.TextUnmarshaler = (*Kind)(nil)
)

func (k Kind) MarshalText() ([]byte, error) {
	v, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid Kind(%d)", int(k))
	}

	return []byte(v), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}

	return fmt.Errorf("unknown event kind %q", b)
}
