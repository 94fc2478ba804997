package createloan_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/features/command/createloan"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_Decide_Success_WhenCopiesAreAvailable(t *testing.T) {
	// arrange
	command := givenCommand(t, "student")
	s := createloan.State{BookFound: true, TotalCopies: 3, ActiveLoans: 1, BorrowerFound: true}

	// act
	result := createloan.Decide(s, command)

	// assert
	require.NoError(t, result.HasError())
	require.True(t, result.HasEventToRecord())

	event, ok := result.Event.(core.LoanCreated)
	require.True(t, ok, "event should be LoanCreated")
	assert.Equal(t, command.LoanID.String(), event.LoanID)
	assert.Equal(t, command.BookID.String(), event.BookID)
	assert.Equal(t, "student", event.BorrowerKind)
	assert.Equal(t, 1, event.AvailableCopiesAfter)
	assert.Equal(t, FakeClockStart, event.LoanDate)
	assert.Equal(t, FakeClockStart.Add(library.LoanPeriod), event.DueDate)
}

func Test_Decide_Success_DerivesAvailabilityFromActiveLoans(t *testing.T) {
	// arrange
	command := givenCommand(t, "teacher")
	s := createloan.State{BookFound: true, TotalCopies: 2, ActiveLoans: 0, BorrowerFound: true}

	// act
	result := createloan.Decide(s, command)

	// assert
	require.NoError(t, result.HasError())
	assert.Equal(t, 1, result.Event.(core.LoanCreated).AvailableCopiesAfter)
}

func Test_Decide_Idempotent_WhenLoanExists(t *testing.T) {
	// arrange
	command := givenCommand(t, "student")
	s := createloan.State{
		LoanExists:       true,
		ExistingBookID:   command.BookID,
		ExistingBorrower: command.Borrower(),
		BookFound:        true,
		TotalCopies:      1,
		ActiveLoans:      1,
	}

	// act
	result := createloan.Decide(s, command)

	// assert
	assert.True(t, result.IsIdempotent())
	assert.False(t, result.HasEventToRecord())
	assert.NoError(t, result.HasError())
}

func Test_Decide_Error_WhenLoanIDBelongsToAnotherCheckout(t *testing.T) {
	testCases := []struct {
		name  string
		state func(command createloan.Command) createloan.State
	}{
		{
			name: "other book",
			state: func(c createloan.Command) createloan.State {
				return createloan.State{LoanExists: true, ExistingBookID: GivenUniqueID(t), ExistingBorrower: c.Borrower()}
			},
		},
		{
			name: "other borrower",
			state: func(c createloan.Command) createloan.State {
				return createloan.State{LoanExists: true, ExistingBookID: c.BookID, ExistingBorrower: library.StudentRef(GivenUniqueID(t))}
			},
		},
		{
			name: "same id for a teacher",
			state: func(c createloan.Command) createloan.State {
				return createloan.State{LoanExists: true, ExistingBookID: c.BookID, ExistingBorrower: library.TeacherRef(c.BorrowerID)}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := givenCommand(t, "student")
			s := tc.state(command)
			s.BookFound, s.TotalCopies, s.ActiveLoans, s.BorrowerFound = true, 1, 1, true

			// act
			result := createloan.Decide(s, command)

			// assert
			assert.False(t, result.IsIdempotent())
			assert.ErrorIs(t, result.HasError(), library.ErrValidationFailed)
			require.True(t, result.HasEventToRecord(), "a rejection should be recorded")

			event, ok := result.Event.(core.CreatingLoanFailed)
			require.True(t, ok, "event should be CreatingLoanFailed")
			assert.Equal(t, "loan id already used for another checkout", event.FailureInfo)
		})
	}
}

func Test_Decide_Error(t *testing.T) {
	available := createloan.State{BookFound: true, TotalCopies: 1, BorrowerFound: true}

	testCases := []struct {
		name        string
		command     func(command createloan.Command) createloan.Command
		state       createloan.State
		expectedErr error
		failureInfo string
	}{
		{
			name:        "missing loan id",
			command:     func(c createloan.Command) createloan.Command { c.LoanID = uuid.Nil; return c },
			state:       available,
			expectedErr: library.ErrValidationFailed,
			failureInfo: "loan id is required",
		},
		{
			name:        "missing book id",
			command:     func(c createloan.Command) createloan.Command { c.BookID = uuid.Nil; return c },
			state:       available,
			expectedErr: library.ErrValidationFailed,
			failureInfo: "book id is required",
		},
		{
			name:        "unknown borrower kind",
			command:     func(c createloan.Command) createloan.Command { c.BorrowerKind = "janitor"; return c },
			state:       available,
			expectedErr: library.ErrValidationFailed,
			failureInfo: core.FailureInvalidBorrowerKind,
		},
		{
			name:        "missing borrower id",
			command:     func(c createloan.Command) createloan.Command { c.BorrowerID = uuid.Nil; return c },
			state:       available,
			expectedErr: library.ErrValidationFailed,
			failureInfo: "borrower id is required",
		},
		{
			name:        "book not found",
			command:     func(c createloan.Command) createloan.Command { return c },
			state:       createloan.State{BorrowerFound: true},
			expectedErr: library.ErrNotFound,
			failureInfo: core.FailureBookNotFound,
		},
		{
			name:        "book removed",
			command:     func(c createloan.Command) createloan.Command { return c },
			state:       createloan.State{BookFound: true, BookRemoved: true, TotalCopies: 1, BorrowerFound: true},
			expectedErr: library.ErrNotFound,
			failureInfo: core.FailureBookRemoved,
		},
		{
			name:        "borrower not found",
			command:     func(c createloan.Command) createloan.Command { return c },
			state:       createloan.State{BookFound: true, TotalCopies: 1},
			expectedErr: library.ErrNotFound,
			failureInfo: core.FailureBorrowerNotFound,
		},
		{
			name:        "all copies lent",
			command:     func(c createloan.Command) createloan.Command { return c },
			state:       createloan.State{BookFound: true, TotalCopies: 2, ActiveLoans: 2, BorrowerFound: true},
			expectedErr: library.ErrOutOfStock,
			failureInfo: core.FailureOutOfStock,
		},
		{
			name:        "book without copies",
			command:     func(c createloan.Command) createloan.Command { return c },
			state:       createloan.State{BookFound: true, TotalCopies: 0, BorrowerFound: true},
			expectedErr: library.ErrOutOfStock,
			failureInfo: core.FailureOutOfStock,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := tc.command(givenCommand(t, "student"))

			// act
			result := createloan.Decide(tc.state, command)

			// assert
			assert.ErrorIs(t, result.HasError(), tc.expectedErr)
			assert.ErrorContains(t, result.HasError(), tc.failureInfo)
			require.True(t, result.HasEventToRecord(), "a rejection should be recorded")

			event, ok := result.Event.(core.CreatingLoanFailed)
			require.True(t, ok, "event should be CreatingLoanFailed")
			assert.Equal(t, tc.failureInfo, event.FailureInfo)
			assert.True(t, event.IsErrorEvent())
		})
	}
}

func givenCommand(t *testing.T, borrowerKind string) createloan.Command {
	t.Helper()

	return createloan.BuildCommand(GivenUniqueID(t), GivenUniqueID(t), borrowerKind, GivenUniqueID(t), FakeClockStart)
}
