// Package events defines the closed set of trace events emitted by instrumented programs.
//
// Every event carries a [Header]: its own identifier, the identifier of the enclosing
// traced event (or [Sentinel]) and the source span of the construct that produced it.
// The parent links turn the flat stream delivered to a sink into a tree.
//
// The package has no dependencies beyond the standard library since instrumented
// programs import it.
package events
