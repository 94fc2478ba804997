// Package core contains the lifecycle events of the school library circulation service.
//
// Events describe meaningful business occurrences like LoanCreated or LoanRenewed, including
// the rejected ones like CreatingLoanFailed, instead of generic create/update operations.
// The pure Decide functions of the feature slices return them inside a DecisionResult,
// and the command handlers persist the state changes they describe.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
