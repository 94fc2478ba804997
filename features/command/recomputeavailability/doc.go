// Package recomputeavailability implements the Edit Total Copies use case.
//
// The new total is checked against the active loans of the book, and the available copies
// are derived from both. A total below the active loans is refused instead of producing a
// negative counter.
package recomputeavailability
