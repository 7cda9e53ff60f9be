// Package sites recognizes traceable constructs in type checked syntax.
//
// Both the instrumentation pass and the jumbotrace-vet analyzer rely on it, so what
// the analyzer lists is exactly what gets instrumented.
package sites
