// Package returnloan implements the Return Loan use case.
//
// The loan is marked returned and the book's available copies are derived again from the
// active loans, in one unit of work. The status change is guarded by the expected status,
// so a second return of the same loan never counts the copy twice.
package returnloan
