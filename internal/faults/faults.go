// Package faults defines the error taxonomy of the instrumentation core.
//
//   - ArgumentError: a required construction input is missing or invalid. Fatal to the unit.
//   - ConsistencyError: a structural precondition does not hold. Fatal to the unit.
//   - MissingMetadataError: position or symbol info is absent for one construct.
//     Recovered locally with a placeholder.
package faults

import (
	"fmt"
	"go/token"
)

// ArgumentError reports a missing or invalid input of a construction call.
type ArgumentError struct {
	Op   string
	Arg  string
	What string
}

// Argument creates an ArgumentError.
func Argument(op, arg, what string) *ArgumentError {
	return &ArgumentError{Op: op, Arg: arg, What: what}
}

// ArgumentNil creates an ArgumentError for a missing argument.
func ArgumentNil(op, arg string) *ArgumentError {
	return Argument(op, arg, "must not be nil")
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %s %s", e.Op, e.Arg, e.What)
}

// ConsistencyError reports a failed structural precondition.
type ConsistencyError struct {
	Pos token.Position
	Msg string
}

// Consistency creates a ConsistencyError.
func Consistency(pos token.Position, format string, a ...any) *ConsistencyError {
	return &ConsistencyError{Pos: pos, Msg: fmt.Sprintf(format, a...)}
}

func (e *ConsistencyError) Error() string {
	if !e.Pos.IsValid() {
		return e.Msg
	}

	return e.Pos.String() + ": " + e.Msg
}

// MissingMetadataError reports absent position or symbol info.
type MissingMetadataError struct {
	Construct string
	What      string
}

// MissingMetadata creates a MissingMetadataError.
func MissingMetadata(construct, what string) *MissingMetadataError {
	return &MissingMetadataError{Construct: construct, What: what}
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Construct, e.What)
}
