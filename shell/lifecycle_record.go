package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

var (
	// ErrMappingToLifecycleRecordFailedForDomainEvent is returned when domain event serialization fails.
	ErrMappingToLifecycleRecordFailedForDomainEvent = errors.New("mapping to lifecycle record failed for domain event")

	// ErrMappingToLifecycleRecordFailedForMetadata is returned when metadata serialization fails.
	ErrMappingToLifecycleRecordFailedForMetadata = errors.New("mapping to lifecycle record failed for metadata")

	// ErrMappingToDomainEventFailed is returned when domain event conversion fails.
	ErrMappingToDomainEventFailed = errors.New("mapping to domain event failed")

	// ErrMappingToDomainEventUnknownEventType is returned for unrecognized event types.
	ErrMappingToDomainEventUnknownEventType = errors.New("unknown event type")
)

// LifecycleRecordFrom converts a DomainEvent and EventMetadata to a LifecycleRecord for the audit trail.
// Loan and book ids are taken from the event when it concerns a loan or a book.
func LifecycleRecordFrom(event core.DomainEvent, metadata EventMetadata) (library.LifecycleRecord, error) {
	payloadJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(event)
	if err != nil {
		return library.LifecycleRecord{}, errors.Join(ErrMappingToLifecycleRecordFailedForDomainEvent, err)
	}

	metadataJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(metadata)
	if err != nil {
		return library.LifecycleRecord{}, errors.Join(ErrMappingToLifecycleRecordFailedForMetadata, err)
	}

	record := library.LifecycleRecord{
		ID:           uuid.New(),
		EventType:    event.IsEventType(),
		OccurredAt:   event.HasOccurredAt(),
		PayloadJSON:  payloadJSON,
		MetadataJSON: metadataJSON,
	}

	if scoped, ok := event.(core.LoanScoped); ok {
		loanID, parseErr := uuid.Parse(scoped.ConcernsLoan())
		if parseErr != nil {
			return library.LifecycleRecord{}, errors.Join(ErrMappingToLifecycleRecordFailedForDomainEvent, parseErr)
		}

		record.LoanID = &loanID
	}

	if scoped, ok := event.(core.BookScoped); ok {
		bookID, parseErr := uuid.Parse(scoped.ConcernsBook())
		if parseErr != nil {
			return library.LifecycleRecord{}, errors.Join(ErrMappingToLifecycleRecordFailedForDomainEvent, parseErr)
		}

		record.BookID = &bookID
	}

	return record, nil
}

// AppendLifecycleEvent maps event with the metadata of ctx's request and appends it to log.
func AppendLifecycleEvent(ctx context.Context, log library.AuditLog, event core.DomainEvent) error {
	record, err := LifecycleRecordFrom(event, EventMetadataFor(ctx))
	if err != nil {
		return err
	}

	return log.AppendLifecycleRecord(ctx, record)
}

// DomainEventsFrom converts multiple LifecycleRecords to DomainEvents.
func DomainEventsFrom(records []library.LifecycleRecord) (core.DomainEvents, error) {
	domainEvents := make(core.DomainEvents, 0, len(records))

	for _, record := range records {
		domainEvent, err := DomainEventFrom(record)
		if err != nil {
			return nil, err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// DomainEventFrom converts a LifecycleRecord back to its DomainEvent.
func DomainEventFrom(record library.LifecycleRecord) (core.DomainEvent, error) {
	switch record.EventType {
	case core.LoanCreatedEventType:
		return unmarshalEvent[core.LoanCreated](record.PayloadJSON)
	case core.CreatingLoanFailedEventType:
		return unmarshalEvent[core.CreatingLoanFailed](record.PayloadJSON)
	case core.LoanReturnedEventType:
		return unmarshalEvent[core.LoanReturned](record.PayloadJSON)
	case core.ReturningLoanFailedEventType:
		return unmarshalEvent[core.ReturningLoanFailed](record.PayloadJSON)
	case core.LoanRenewedEventType:
		return unmarshalEvent[core.LoanRenewed](record.PayloadJSON)
	case core.RenewingLoanFailedEventType:
		return unmarshalEvent[core.RenewingLoanFailed](record.PayloadJSON)
	case core.AvailabilityRecomputedEventType:
		return unmarshalEvent[core.AvailabilityRecomputed](record.PayloadJSON)
	case core.RecomputingAvailabilityFailedEventType:
		return unmarshalEvent[core.RecomputingAvailabilityFailed](record.PayloadJSON)
	case core.BookAddedToCatalogEventType:
		return unmarshalEvent[core.BookAddedToCatalog](record.PayloadJSON)
	case core.AddingBookFailedEventType:
		return unmarshalEvent[core.AddingBookFailed](record.PayloadJSON)
	case core.BookRemovedFromCatalogEventType:
		return unmarshalEvent[core.BookRemovedFromCatalog](record.PayloadJSON)
	case core.RemovingBookFailedEventType:
		return unmarshalEvent[core.RemovingBookFailed](record.PayloadJSON)
	case core.BorrowerRegisteredEventType:
		return unmarshalEvent[core.BorrowerRegistered](record.PayloadJSON)
	case core.RegisteringBorrowerFailedEventType:
		return unmarshalEvent[core.RegisteringBorrowerFailed](record.PayloadJSON)
	case core.ClassGroupOpenedEventType:
		return unmarshalEvent[core.ClassGroupOpened](record.PayloadJSON)
	case core.OpeningClassGroupFailedEventType:
		return unmarshalEvent[core.OpeningClassGroupFailed](record.PayloadJSON)
	}

	return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
}

func unmarshalEvent[E core.DomainEvent](payloadJSON []byte) (core.DomainEvent, error) {
	var event E

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &event); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return event, nil
}
