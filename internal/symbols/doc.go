// Package symbols mints fresh identifiers and the type checker objects bound to them.
//
// Identifiers have the canonical form $<counter>_<hint>. Since $ cannot appear in a Go
// identifier, the spelling used in generated sources replaces it with a prefix, _jt by
// default. The counter is shared by all users of a [Factory] and increases strictly.
//
// Every object is created for an explicit [Owner]. When the owner has a scope the object
// is inserted there and a name clash is reported as a consistency error.
package symbols
