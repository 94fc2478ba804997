package createloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/library"
)

const (
	commandType = "CreateLoan"
)

// Command represents the intent to check out one copy of a book to a borrower.
// LoanID is chosen by the caller, so a repeated command creates the loan only once.
type Command struct {
	LoanID       uuid.UUID
	BookID       uuid.UUID
	BorrowerKind library.BorrowerKind
	BorrowerID   uuid.UUID
	OccurredAt   core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// Borrower returns the tagged borrower reference of the command.
func (c Command) Borrower() library.BorrowerRef {
	return library.BorrowerRef{Kind: c.BorrowerKind, ID: c.BorrowerID}
}

// BuildCommand creates a new Command with the provided parameters.
// borrowerKind is taken as given and validated by Decide.
func BuildCommand(
	loanID uuid.UUID,
	bookID uuid.UUID,
	borrowerKind string,
	borrowerID uuid.UUID,
	occurredAt time.Time,
) Command {

	return Command{
		LoanID:       loanID,
		BookID:       bookID,
		BorrowerKind: library.BorrowerKind(borrowerKind),
		BorrowerID:   borrowerID,
		OccurredAt:   core.ToOccurredAt(occurredAt),
	}
}
