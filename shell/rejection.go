package shell

import (
	"context"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

// RecordRejection appends the failure event of a rejected decision in a transaction of its own.
// Failing to write it is logged at warn level; the rejection stays the caller's result either way.
func RecordRejection(
	ctx context.Context,
	uow library.UnitOfWork,
	event core.DomainEvent,
	logger Logger,
	contextualLogger ContextualLogger,
	commandType string,
) {
	err := uow.WithinTx(ctx, func(ctx context.Context, tx library.Tx) error {
		return AppendLifecycleEvent(ctx, tx, event)
	})
	if err == nil {
		return
	}

	args := []any{
		LogAttrCommandType, commandType,
		LogAttrError, err.Error(),
	}

	if contextualLogger != nil {
		contextualLogger.WarnContext(ctx, LogMsgRejectionNotRecorded, args...)
	} else if logger != nil {
		logger.Warn(LogMsgRejectionNotRecorded, args...)
	}
}
