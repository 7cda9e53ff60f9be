// Package instrument rewrites type checked files so that every traced construct
// reports an event to the probe package at run time.
//
// The rewrite is a single top-down pass over each function body. The enclosing event
// id is passed down as an immutable context: a switch binds its own id to a fresh
// variable and its clauses report it as their parent, function literals start over
// from the sentinel parent. Probes are only inserted before statements or wrapped
// around expressions whose value they pass through, so the program computes what it
// computed before.
//
// Constructs without positions are traced with a placeholder location and a warning.
// Any failure to build a typed fragment aborts the whole file: the caller must then
// discard the partially rewritten syntax.
package instrument
