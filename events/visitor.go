package events

// Visitor handles every event kind. Implementations must cover all of them.
type Visitor interface {
	Return(Return)
	Break(Break)
	Continue(Continue)
	Yield(Yield)
	Switch(Switch)
	VarDecl(VarDecl)
	Throw(Throw)
	Catch(Catch)
	Assertion(Assertion)
	Exec(Exec)
}
