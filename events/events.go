package events

import "fmt"

// Event is a single trace event. The set of implementations is closed:
// [Return], [Break], [Continue], [Yield], [Switch], [VarDecl], [Throw],
// [Catch], [Assertion] and [Exec].
type Event interface {
	EventID() ID
	ParentID() ID
	Location() Location
	Kind() Kind

	// Descr returns a one-line description built from the event fields only.
	Descr() string

	Accept(v Visitor)

	isEvent()
}

var (
	_ Event = Return{}
	_ Event = Break{}
	_ Event = Continue{}
	_ Event = Yield{}
	_ Event = Switch{}
	_ Event = VarDecl{}
	_ Event = Throw{}
	_ Event = Catch{}
	_ Event = Assertion{}
	_ Event = Exec{}
)

// Return reports a return from a function.
type Return struct {
	Header
	Method string
	Value  Value
}

func NewReturn(h Header, method string, value Value) Return {
	return Return{Header: h, Method: method, Value: value}
}

func (Return) Kind() Kind { return KindReturn }

func (e Return) Descr() string {
	if e.Value.IsZero() {
		return "return statement targeting method " + e.Method
	}

	return fmt.Sprintf("return statement targeting method %s with value %s", e.Method, e.Value)
}

func (e Return) Accept(v Visitor) { v.Return(e) }

func (Return) isEvent() {}

// Break reports a break. Target fields describe where control lands.
type Break struct {
	Header
	Target     string
	TargetLine uint32
	TargetCol  uint32
}

func NewBreak(h Header, target string, line, col uint32) Break {
	return Break{Header: h, Target: target, TargetLine: line, TargetCol: col}
}

func (Break) Kind() Kind { return KindBreak }

func (e Break) Descr() string {
	return fmt.Sprintf("break statement targeting %s(%d:%d)", e.Target, e.TargetLine, e.TargetCol)
}

func (e Break) Accept(v Visitor) { v.Break(e) }

func (Break) isEvent() {}

// Continue reports a continue.
type Continue struct {
	Header
	Target     string
	TargetLine uint32
	TargetCol  uint32
}

func NewContinue(h Header, target string, line, col uint32) Continue {
	return Continue{Header: h, Target: target, TargetLine: line, TargetCol: col}
}

func (Continue) Kind() Kind { return KindContinue }

func (e Continue) Descr() string {
	return fmt.Sprintf("continue statement targeting %s(%d:%d)", e.Target, e.TargetLine, e.TargetCol)
}

func (e Continue) Accept(v Visitor) { v.Continue(e) }

func (Continue) isEvent() {}

// Yield reports a value pushed by an iterator function to its consumer.
// Target fields point to the iterator function.
type Yield struct {
	Header
	Value      Value
	Target     string
	TargetLine uint32
	TargetCol  uint32
}

func NewYield(h Header, value Value, target string, line, col uint32) Yield {
	return Yield{Header: h, Value: value, Target: target, TargetLine: line, TargetCol: col}
}

func (Yield) Kind() Kind { return KindYield }

func (e Yield) Descr() string {
	return fmt.Sprintf(
		"yield statement with value %s targeting %s(%d:%d)",
		e.Value,
		e.Target,
		e.TargetLine,
		e.TargetCol,
	)
}

func (e Yield) Accept(v Visitor) { v.Yield(e) }

func (Yield) isEvent() {}

// Switch reports a switch selector evaluation.
type Switch struct {
	Header
	Selector Value
}

func NewSwitch(h Header, selector Value) Switch {
	return Switch{Header: h, Selector: selector}
}

func (Switch) Kind() Kind { return KindSwitch }

func (e Switch) Descr() string {
	return "switch statement with selector value " + e.Selector.String()
}

func (e Switch) Accept(v Visitor) { v.Switch(e) }

func (Switch) isEvent() {}

// VarDecl reports a variable declaration.
type VarDecl struct {
	Header
	Name string
	Type string
}

func NewVarDecl(h Header, name, typ string) VarDecl {
	return VarDecl{Header: h, Name: name, Type: typ}
}

func (VarDecl) Kind() Kind { return KindVarDecl }

func (e VarDecl) Descr() string {
	return fmt.Sprintf("variable declarator statement for variable %s of type %s", e.Name, e.Type)
}

func (e VarDecl) Accept(v Visitor) { v.VarDecl(e) }

func (VarDecl) isEvent() {}

// Throw reports a panic.
type Throw struct {
	Header
	Value Value
}

func NewThrow(h Header, value Value) Throw {
	return Throw{Header: h, Value: value}
}

func (Throw) Kind() Kind { return KindThrow }

func (e Throw) Descr() string {
	return "throw statement throwing " + e.Value.String()
}

func (e Throw) Accept(v Visitor) { v.Throw(e) }

func (Throw) isEvent() {}

// Catch reports a recover call and the value it returned.
type Catch struct {
	Header
	Value Value
}

func NewCatch(h Header, value Value) Catch {
	return Catch{Header: h, Value: value}
}

func (Catch) Kind() Kind { return KindCatch }

func (e Catch) Descr() string {
	return "catch statement catching " + e.Value.String()
}

func (e Catch) Accept(v Visitor) { v.Catch(e) }

func (Catch) isEvent() {}

// Assertion reports a type assertion. Assertion is the asserted expression text,
// Value is what the asserted operand evaluated to.
type Assertion struct {
	Header
	Value     Value
	Assertion string
}

func NewAssertion(h Header, value Value, assertion string) Assertion {
	return Assertion{Header: h, Value: value, Assertion: assertion}
}

func (Assertion) Kind() Kind { return KindAssertion }

func (e Assertion) Descr() string {
	return fmt.Sprintf(
		"assertion statement for assertion %s(asserted expression yielded %s)",
		e.Assertion,
		e.Value,
	)
}

func (e Assertion) Accept(v Visitor) { v.Assertion(e) }

func (Assertion) isEvent() {}

// Exec reports execution of an expression statement.
type Exec struct {
	Header
}

func NewExec(h Header) Exec {
	return Exec{Header: h}
}

func (Exec) Kind() Kind { return KindExec }

func (Exec) Descr() string { return "expression statement" }

func (e Exec) Accept(v Visitor) { v.Exec(e) }

func (Exec) isEvent() {}
