package library_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/schoollibrary/circulation/library"
)

func Test_LoanFilter_EmptyFilterMatchesEverything(t *testing.T) {
	// arrange
	filter := library.BuildLoanFilter().Finalize()
	loan := activeStudentLoan(uuid.New(), uuid.New(), time.Now())

	// act
	matches := filter.Matches(loan)

	// assert
	assert.True(t, matches)
	_, hasBook := filter.BookID()
	_, hasBorrower := filter.Borrower()
	_, hasStatus := filter.Status()
	assert.False(t, hasBook)
	assert.False(t, hasBorrower)
	assert.False(t, hasStatus)
	assert.Zero(t, filter.Limit())
}

func Test_LoanFilter_Matches(t *testing.T) {
	bookID := uuid.New()
	studentID := uuid.New()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	loan := activeStudentLoan(bookID, studentID, now)

	testCases := []struct {
		name     string
		filter   library.LoanFilter
		expected bool
	}{
		{
			name:     "same book",
			filter:   library.BuildLoanFilter().ForBook(bookID).Finalize(),
			expected: true,
		},
		{
			name:     "other book",
			filter:   library.BuildLoanFilter().ForBook(uuid.New()).Finalize(),
			expected: false,
		},
		{
			name:     "same student",
			filter:   library.BuildLoanFilter().ForBorrower(library.StudentRef(studentID)).Finalize(),
			expected: true,
		},
		{
			name:     "teacher with the same id",
			filter:   library.BuildLoanFilter().ForBorrower(library.TeacherRef(studentID)).Finalize(),
			expected: false,
		},
		{
			name:     "active status",
			filter:   library.BuildLoanFilter().WithStatus(library.LoanActive).Finalize(),
			expected: true,
		},
		{
			name:     "returned status",
			filter:   library.BuildLoanFilter().WithStatus(library.LoanReturned).Finalize(),
			expected: false,
		},
		{
			name:     "due before upper bound",
			filter:   library.BuildLoanFilter().DueBetween(time.Time{}, loan.DueDate.Add(time.Second)).Finalize(),
			expected: true,
		},
		{
			name:     "upper due bound is exclusive",
			filter:   library.BuildLoanFilter().DueBetween(time.Time{}, loan.DueDate).Finalize(),
			expected: false,
		},
		{
			name:     "lower loaned bound is inclusive",
			filter:   library.BuildLoanFilter().LoanedBetween(loan.LoanDate, time.Time{}).Finalize(),
			expected: true,
		},
		{
			name:     "loaned after range",
			filter:   library.BuildLoanFilter().LoanedBetween(now.Add(-48*time.Hour), now.Add(-24*time.Hour)).Finalize(),
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.filter.Matches(loan))
		})
	}
}

func Test_LoanFilterBuilder_NegativeLimitMeansUnlimited(t *testing.T) {
	// act
	filter := library.BuildLoanFilter().Limit(-5).Finalize()

	// assert
	assert.Zero(t, filter.Limit())
}

func activeStudentLoan(bookID uuid.UUID, studentID uuid.UUID, loanedAt time.Time) library.Loan {
	return library.Loan{
		ID:        uuid.New(),
		BookID:    bookID,
		StudentID: &studentID,
		LoanDate:  library.ToTimestamp(loanedAt),
		DueDate:   library.DueDateFrom(loanedAt),
		Status:    library.LoanActive,
	}
}
