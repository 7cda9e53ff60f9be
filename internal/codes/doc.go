// Package codes defines the diagnostic codes (JT-series) reported by jumbotrace.
//
// Code numbering scheme:
//
//	000–099  Soft failures: one construct is instrumented in a degraded way or skipped
//	100–199  Fatal failures: the whole unit is left untouched
package codes
