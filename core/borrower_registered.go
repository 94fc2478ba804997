package core

import (
	"time"

	"github.com/google/uuid"
)

// BorrowerRegisteredEventType is the event type identifier.
const BorrowerRegisteredEventType = "BorrowerRegistered"

// BorrowerRegistered represents a student or teacher being allowed to borrow books.
type BorrowerRegistered struct {
	EventType          EventTypeString  `json:"eventType"`
	BorrowerKind       string           `json:"borrowerKind"`
	BorrowerID         BorrowerIDString `json:"borrowerId"`
	Name               string           `json:"name"`
	RegistrationNumber string           `json:"registrationNumber,omitempty"`
	ClassGroupID       string           `json:"classGroupId,omitempty"`
	OccurredAt         OccurredAtTS     `json:"occurredAt"`
}

// BuildBorrowerRegistered creates a new BorrowerRegistered event.
// classGroupID is only set for students assigned to a class.
func BuildBorrowerRegistered(
	borrowerKind string,
	borrowerID uuid.UUID,
	name string,
	registrationNumber string,
	classGroupID *uuid.UUID,
	occurredAt time.Time,
) BorrowerRegistered {

	event := BorrowerRegistered{
		EventType:          BorrowerRegisteredEventType,
		BorrowerKind:       borrowerKind,
		BorrowerID:         borrowerID.String(),
		Name:               name,
		RegistrationNumber: registrationNumber,
		OccurredAt:         ToOccurredAt(occurredAt),
	}

	if classGroupID != nil {
		event.ClassGroupID = classGroupID.String()
	}

	return event
}

// IsEventType returns the event type identifier.
func (e BorrowerRegistered) IsEventType() string {
	return BorrowerRegisteredEventType
}

// HasOccurredAt returns when this event occurred.
func (e BorrowerRegistered) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// IsErrorEvent returns false since this event represents a successful operation.
func (e BorrowerRegistered) IsErrorEvent() bool {
	return false
}
