// Package specialize replicates marked functions for a fixed set of types.
//
// A function is marked with a directive in its doc comment:
//
//	//jumbotrace:specialize [result] [param...]
//
// Every marked function is replaced with one copy per target type, named after the
// function with the target suffix appended, where the result and the listed
// parameters take the target type. No arguments stand for the result only. Copies
// are tagged with
//
//	//jumbotrace:specialized typeName=<type>
//
// The package works on syntax only. Sources must belong to package raw and come out as
// package processed.
package specialize
