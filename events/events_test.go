package events

import (
	"sync"
	"testing"
)

func TestDescr(t *testing.T) {
	h := Header{ID: 2, Parent: 1, Loc: Location{Filename: "main.go", StartLine: 3, StartCol: 2, EndLine: 3, EndCol: 14}}
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "return-no-value",
			event: NewReturn(h, "foo", Value{}),
			want:  "return statement targeting method foo",
		},
		{
			name:  "return-value",
			event: NewReturn(h, "foo", Capture(42)),
			want:  "return statement targeting method foo with value 42",
		},
		{
			name:  "break",
			event: NewBreak(h, "outer", 10, 2),
			want:  "break statement targeting outer(10:2)",
		},
		{
			name:  "continue",
			event: NewContinue(h, "for loop", 7, 3),
			want:  "continue statement targeting for loop(7:3)",
		},
		{
			name:  "yield",
			event: NewYield(h, Capture("a"), "Seq.func1", 4, 9),
			want:  "yield statement with value a targeting Seq.func1(4:9)",
		},
		{
			name:  "switch",
			event: NewSwitch(h, Capture(true)),
			want:  "switch statement with selector value true",
		},
		{
			name:  "var-decl",
			event: NewVarDecl(h, "x", "int"),
			want:  "variable declarator statement for variable x of type int",
		},
		{
			name:  "throw",
			event: NewThrow(h, Capture("boom")),
			want:  "throw statement throwing boom",
		},
		{
			name:  "catch",
			event: NewCatch(h, Capture(nil)),
			want:  "catch statement catching <nil>",
		},
		{
			name:  "assertion",
			event: NewAssertion(h, Capture(1), "v.(int)"),
			want:  "assertion statement for assertion v.(int)(asserted expression yielded 1)",
		},
		{
			name:  "exec",
			event: NewExec(h),
			want:  "expression statement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.event.Descr()
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if again := tt.event.Descr(); again != got {
				t.Errorf("description is not stable: %q then %q", got, again)
			}
			if tt.event.EventID() != 2 || tt.event.ParentID() != 1 {
				t.Errorf("header lost: id %d parent %d", tt.event.EventID(), tt.event.ParentID())
			}
			if tt.event.Location() != h.Loc {
				t.Errorf("location mismatch: got %s, want %s", tt.event.Location(), h.Loc)
			}
		})
	}
}

func TestTuple(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want Value
	}{
		{
			name: "empty",
			want: Value{},
		},
		{
			name: "single",
			in:   []any{1},
			want: Value{Type: "int", Text: "1"},
		},
		{
			name: "pair",
			in:   []any{1, "a"},
			want: Value{Type: "(int, string)", Text: "(1, a)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tuple(tt.in...); got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

type kindCollector struct {
	kinds []Kind
}

func (c *kindCollector) Return(e Return)       { c.kinds = append(c.kinds, e.Kind()) }
func (c *kindCollector) Break(e Break)         { c.kinds = append(c.kinds, e.Kind()) }
func (c *kindCollector) Continue(e Continue)   { c.kinds = append(c.kinds, e.Kind()) }
func (c *kindCollector) Yield(e Yield)         { c.kinds = append(c.kinds, e.Kind()) }
func (c *kindCollector) Switch(e Switch)       { c.kinds = append(c.kinds, e.Kind()) }
func (c *kindCollector) VarDecl(e VarDecl)     { c.kinds = append(c.kinds, e.Kind()) }
func (c *kindCollector) Throw(e Throw)         { c.kinds = append(c.kinds, e.Kind()) }
func (c *kindCollector) Catch(e Catch)         { c.kinds = append(c.kinds, e.Kind()) }
func (c *kindCollector) Assertion(e Assertion) { c.kinds = append(c.kinds, e.Kind()) }
func (c *kindCollector) Exec(e Exec)           { c.kinds = append(c.kinds, e.Kind()) }

func TestVisitorDispatch(t *testing.T) {
	all := []Event{
		Return{}, Break{}, Continue{}, Yield{}, Switch{},
		VarDecl{}, Throw{}, Catch{}, Assertion{}, Exec{},
	}

	var c kindCollector
	for _, e := range all {
		e.Accept(&c)
	}

	want := Kinds()
	if len(c.kinds) != len(want) {
		t.Fatalf("expected %d kinds, got %d", len(want), len(c.kinds))
	}
	for i, k := range want {
		if c.kinds[i] != k {
			t.Errorf("event %d dispatched as %s, want %s", i, c.kinds[i], k)
		}
	}
}

func TestKindText(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			b, err := k.MarshalText()
			if err != nil {
				t.Fatal(err)
			}

			var got Kind
			if err := got.UnmarshalText(b); err != nil {
				t.Fatal(err)
			}
			if got != k {
				t.Errorf("got %s, want %s", got, k)
			}
		})
	}

	var k Kind
	if err := k.UnmarshalText([]byte("goto")); err == nil {
		t.Error("error expected for unknown kind")
	}
	if _, err := kindInvalid.MarshalText(); err == nil {
		t.Error("error expected for invalid kind")
	}
}

func TestRecorderConcurrency(t *testing.T) {
	const n = 500
	var (
		r  Recorder
		wg sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Record(NewExec(Header{ID: ID(i + 1), Parent: Sentinel}))
		}(i)
	}
	wg.Wait()

	evs := r.Events()
	if len(evs) != n {
		t.Fatalf("expected %d events, got %d", n, len(evs))
	}
	if got := len(r.Children(Sentinel)); got != n {
		t.Errorf("expected %d root events, got %d", n, got)
	}

	evs[0] = nil
	if r.Events()[0] == nil {
		t.Fatal("Events() returned shared slice, expected copy")
	}
}
