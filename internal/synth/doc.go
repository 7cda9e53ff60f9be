// Package synth builds syntax fragments with their type checker facts supplied up front.
//
// The instrumented sources are never type checked again before printing, so every
// expression a [Builder] returns has its type recorded in the builder [Info], and every
// identifier has its object. Types of pre-existing nodes are taken from the original
// [types.Info] of the unit. Constructors validate their inputs against these facts and
// return an ArgumentError instead of a partially built node.
package synth
