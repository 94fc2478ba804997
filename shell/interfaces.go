package shell

import (
	"context"
)

// Command represents the contract for all command types of the circulation service.
// Each command encapsulates the intent and parameters of one lifecycle operation.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// CoreCommandHandler defines the contract for components that process commands with business logic.
// Handlers orchestrate the complete command workflow: loading state inside a unit of work,
// deciding, and persisting the changes the decision describes.
// The generic parameters C and R ensure type safety between commands and what they return,
// e.g. the created or updated loan.
// Implementations should focus on business logic without observability concerns;
// they are designed to be wrapped with observability decorators.
type CoreCommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, command C) (R, HandlerResult, error)
}

// Query represents the contract for all query types of the circulation service.
type Query interface {
	QueryType() string
}

// CoreQueryHandler defines the contract for components that process queries.
// The generic parameters Q and R ensure type safety between queries and their results.
type CoreQueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
