package probe

import "github.com/sirkon/jumbotrace/events"

// Exec reports an expression statement that is about to run.
func Exec(id, parent events.ID, file string, sl, sc, el, ec uint32) {
	emit(events.NewExec(header(id, parent, file, sl, sc, el, ec)))
}

// Return reports a return from method with the given result values.
func Return(id, parent events.ID, file string, sl, sc, el, ec uint32, method string, values ...any) {
	emit(events.NewReturn(header(id, parent, file, sl, sc, el, ec), method, events.Tuple(values...)))
}

// Break reports a break landing at the target statement at tl:tc.
func Break(id, parent events.ID, file string, sl, sc, el, ec uint32, target string, tl, tc uint32) {
	emit(events.NewBreak(header(id, parent, file, sl, sc, el, ec), target, tl, tc))
}

// Continue reports a continue of the target loop at tl:tc.
func Continue(id, parent events.ID, file string, sl, sc, el, ec uint32, target string, tl, tc uint32) {
	emit(events.NewContinue(header(id, parent, file, sl, sc, el, ec), target, tl, tc))
}

// Yield0 reports a push of an iterator without values and calls yield.
func Yield0(
	id, parent events.ID,
	file string,
	sl, sc, el, ec uint32,
	target string,
	tl, tc uint32,
	yield func() bool,
) bool {
	emit(events.NewYield(header(id, parent, file, sl, sc, el, ec), events.Value{}, target, tl, tc))
	return yield()
}

// Yield reports a push of v and calls yield with it.
func Yield[V any](
	id, parent events.ID,
	file string,
	sl, sc, el, ec uint32,
	target string,
	tl, tc uint32,
	yield func(V) bool,
	v V,
) bool {
	emit(events.NewYield(header(id, parent, file, sl, sc, el, ec), events.Capture(v), target, tl, tc))
	return yield(v)
}

// Yield2 reports a push of a pair and calls yield with it.
func Yield2[K, V any](
	id, parent events.ID,
	file string,
	sl, sc, el, ec uint32,
	target string,
	tl, tc uint32,
	yield func(K, V) bool,
	k K,
	v V,
) bool {
	emit(events.NewYield(header(id, parent, file, sl, sc, el, ec), events.Tuple(k, v), target, tl, tc))
	return yield(k, v)
}

// Switch reports a switch selector value and returns it.
func Switch[T any](id, parent events.ID, file string, sl, sc, el, ec uint32, sel T) T {
	emit(events.NewSwitch(header(id, parent, file, sl, sc, el, ec), events.Capture(sel)))
	return sel
}

// VarDecl reports a declaration of variable name of type typ.
func VarDecl(id, parent events.ID, file string, sl, sc, el, ec uint32, name, typ string) {
	emit(events.NewVarDecl(header(id, parent, file, sl, sc, el, ec), name, typ))
}

// Throw reports a panic value and returns it.
func Throw(id, parent events.ID, file string, sl, sc, el, ec uint32, v any) any {
	emit(events.NewThrow(header(id, parent, file, sl, sc, el, ec), events.Capture(v)))
	return v
}

// Catch reports a value returned by recover and returns it.
func Catch(id, parent events.ID, file string, sl, sc, el, ec uint32, v any) any {
	emit(events.NewCatch(header(id, parent, file, sl, sc, el, ec), events.Capture(v)))
	return v
}

// Assert reports an operand of the type assertion assertion and returns it.
func Assert[T any](id, parent events.ID, file string, sl, sc, el, ec uint32, assertion string, v T) T {
	emit(events.NewAssertion(header(id, parent, file, sl, sc, el, ec), events.Capture(v), assertion))
	return v
}
