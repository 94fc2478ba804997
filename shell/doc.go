// Package shell is the imperative shell around the lifecycle decisions of the circulation service.
//
// It holds what every feature slice needs besides its pure Decide function: retrying transient
// failures with exponential backoff, the handler result type, observability helpers for command
// and query handlers, and the mapping of domain events plus metadata into audit trail records.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
