// Package spans indexes functions of a file by source span.
//
// Function declarations and literals form a strict containment hierarchy, which lets an
// RB-tree ordered by "disjoint by position" answer which function most tightly covers a
// given position: the one declaring a parameter among others.
package spans
