// Package createloan implements the Create Loan use case.
//
// A copy of a book is checked out to a student or a teacher. Availability is derived from
// the total copies and the active loans while the book row is locked, so two concurrent
// checkouts of the last copy cannot both succeed. The loan insert, the counter write and the
// lifecycle record are committed together.
//
// Title, author and borrower name are copied onto the loan. The name lookup is best-effort:
// a failure is logged and the loan is stored without it.
package createloan
