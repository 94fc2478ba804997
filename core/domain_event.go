package core

import (
	"time"
)

// DomainEvents is a slice of DomainEvent instances.
type DomainEvents = []DomainEvent

// DomainEvent represents a business event that has occurred in the domain.
type DomainEvent interface {
	// IsEventType returns the string identifier for this event type.
	IsEventType() string

	// HasOccurredAt returns when this event occurred.
	HasOccurredAt() time.Time

	// IsErrorEvent returns true if this event represents a rejected request.
	IsErrorEvent() bool
}

// LoanScoped is implemented by events that concern a single loan.
type LoanScoped interface {
	ConcernsLoan() string
}

// BookScoped is implemented by events that concern a single book.
type BookScoped interface {
	ConcernsBook() string
}
