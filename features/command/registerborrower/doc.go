// Package registerborrower implements the Register Student and Register Teacher use cases.
//
// Both kinds of borrower go through one command, tagged with the borrower kind, the same way
// a loan references exactly one of them.
package registerborrower
