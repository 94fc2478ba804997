package core

import "fmt"

// DecisionResult represents the outcome of a business decision in a Decide function.
//
// IMPORTANT: DecisionResult should only be constructed using the provided factory methods:
// IdempotentDecision(), SuccessDecision(event), or ErrorDecision(event, err).
type DecisionResult struct {
	Outcome string      // "idempotent", "success", or "error"
	Event   DomainEvent // nil for idempotent decisions
	Err     error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision() DecisionResult {
	return DecisionResult{Outcome: idempotentOutcome}
}

// SuccessDecision creates a DecisionResult indicating a state change described by event.
func SuccessDecision(event DomainEvent) DecisionResult {
	return DecisionResult{Outcome: successOutcome, Event: event}
}

// ErrorDecision creates a DecisionResult indicating a business rule violation.
// The failure event is recorded in the audit trail, err is returned to the caller.
func ErrorDecision(event DomainEvent, err error) DecisionResult {
	return DecisionResult{Outcome: errorOutcome, Event: event, Err: err}
}

// HasEventToRecord returns true if there is an event for the audit trail.
func (r DecisionResult) HasEventToRecord() bool {
	return r.Outcome != idempotentOutcome && r.Event != nil
}

// IsIdempotent returns true if no state change is needed.
func (r DecisionResult) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}

// RejectionError builds the error of a rejected decision. kind is one of the library error
// sentinels, so callers can test it with errors.Is.
func RejectionError(event DomainEvent, kind error, reason string) error {
	return fmt.Errorf("%s: %w: %s", event.IsEventType(), kind, reason)
}
