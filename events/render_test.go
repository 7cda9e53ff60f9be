package events

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

type point struct {
	X, Y int
	name string
}

type noisy struct {
	calls *int
}

func (n noisy) String() string {
	*n.calls++
	return "noisy"
}

func (n noisy) Error() string {
	*n.calls++
	return "noisy error"
}

// guarded locks in String like types sharing their state with a mutex do.
type guarded struct {
	mu *sync.Mutex
	n  int
}

func (g guarded) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return "guarded"
}

func TestRender(t *testing.T) {
	var nilPtr *point
	var nilMap map[string]int
	var nilErr error
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: "<nil>"},
		{name: "bool", in: true, want: "true"},
		{name: "int", in: -42, want: "-42"},
		{name: "uint8", in: uint8(7), want: "7"},
		{name: "float", in: 1.5, want: "1.5"},
		{name: "float32", in: float32(0.1), want: "0.1"},
		{name: "complex", in: complex(1, 2), want: "(1+2i)"},
		{name: "string", in: "abc", want: "abc"},
		{name: "struct", in: point{X: 1, Y: 2, name: "p"}, want: "{1 2 p}"},
		{name: "slice", in: []int{1, 2, 3}, want: "[1 2 3]"},
		{name: "nil-slice", in: []int(nil), want: "[]"},
		{name: "array", in: [2]string{"a", "b"}, want: "[a b]"},
		{name: "nil-pointer", in: nilPtr, want: "<nil>"},
		{name: "nil-map", in: nilMap, want: "map[]"},
		{name: "map", in: map[string]int{"a": 1, "b": 2}, want: "map[len=2]"},
		{name: "nil-error", in: nilErr, want: "<nil>"},
		{name: "nested-interface", in: []any{1, "a", nil}, want: "[1 a <nil>]"},
		{name: "error-value", in: errors.New("boom"), want: "0x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.in)
			if tt.want == "0x" {
				if !strings.HasPrefix(got, "0x") {
					t.Errorf("got %q, want an address", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSkipsMethods(t *testing.T) {
	var calls int
	v := Capture(noisy{calls: &calls})
	if calls != 0 {
		t.Errorf("methods were called %d time(s)", calls)
	}
	if v.Type != "events.noisy" {
		t.Errorf("unexpected type %q", v.Type)
	}
	if !strings.HasPrefix(v.Text, "{0x") {
		t.Errorf("unexpected text %q", v.Text)
	}

	// Would deadlock if String was called.
	var mu sync.Mutex
	mu.Lock()
	defer mu.Unlock()
	if text := Capture(guarded{mu: &mu, n: 1}).Text; !strings.HasPrefix(text, "{0x") || !strings.HasSuffix(text, " 1}") {
		t.Errorf("unexpected text %q", text)
	}
}

func TestRenderCycle(t *testing.T) {
	s := make([]any, 2)
	s[0] = s
	s[1] = 1

	if got := Render(s); got != "[<cycle> 1]" {
		t.Errorf("got %q", got)
	}
}

func TestRenderLimits(t *testing.T) {
	t.Run("depth", func(t *testing.T) {
		v := [][][][][]int{{{{{1}}}}}
		if got := Render(v); got != "[[[[[...]]]]]" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("elements", func(t *testing.T) {
		v := make([]int, MaxElements+5)
		got := Render(v)
		if !strings.HasSuffix(got, " ...]") {
			t.Errorf("got %q", got)
		}
		if n := strings.Count(got, "0"); n != MaxElements {
			t.Errorf("%d elements rendered", n)
		}
	})

	t.Run("text", func(t *testing.T) {
		got := Render(strings.Repeat("ж", MaxText))
		if !strings.HasSuffix(got, ellipsis) {
			t.Errorf("text is not cut: %d bytes", len(got))
		}
		if len(got) > MaxText+len(ellipsis) {
			t.Errorf("text is too long: %d bytes", len(got))
		}
		if !strings.HasPrefix(got, "жж") || strings.ContainsRune(got, '�') {
			t.Error("rune is split")
		}
	})
}
