// Package renewloan implements the Renew Loan use case.
//
// Only an active loan that is overdue, or falls due within the renewal window, may be renewed.
// The rule is enforced here, so no caller can bypass it.
package renewloan
