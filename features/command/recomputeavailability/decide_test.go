package recomputeavailability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoollibrary/circulation/core"
	"github.com/schoollibrary/circulation/features/command/recomputeavailability"
	"github.com/schoollibrary/circulation/library"
	. "github.com/schoollibrary/circulation/testutil/librarytest" //nolint:revive
)

func Test_Decide(t *testing.T) {
	testCases := []struct {
		name              string
		state             recomputeavailability.State
		newTotal          int
		expectedErr       error
		expectedFailure   string
		expectIdempotent  bool
		expectedAvailable int
	}{
		{
			name:              "add copies",
			state:             recomputeavailability.State{BookFound: true, TotalCopies: 3, AvailableCopies: 1, ActiveLoans: 2},
			newTotal:          5,
			expectedAvailable: 3,
		},
		{
			name:              "remove copies down to the active loans",
			state:             recomputeavailability.State{BookFound: true, TotalCopies: 3, AvailableCopies: 1, ActiveLoans: 2},
			newTotal:          2,
			expectedAvailable: 0,
		},
		{
			name:              "same total repairs a drifted counter",
			state:             recomputeavailability.State{BookFound: true, TotalCopies: 3, AvailableCopies: 3, ActiveLoans: 2},
			newTotal:          3,
			expectedAvailable: 1,
		},
		{
			name:             "same total and consistent counter",
			state:            recomputeavailability.State{BookFound: true, TotalCopies: 3, AvailableCopies: 1, ActiveLoans: 2},
			newTotal:         3,
			expectIdempotent: true,
		},
		{
			name:            "total below active loans",
			state:           recomputeavailability.State{BookFound: true, TotalCopies: 3, AvailableCopies: 1, ActiveLoans: 2},
			newTotal:        1,
			expectedErr:     library.ErrValidationFailed,
			expectedFailure: core.FailureTotalBelowActive,
		},
		{
			name:            "negative total",
			state:           recomputeavailability.State{BookFound: true, TotalCopies: 3, AvailableCopies: 3},
			newTotal:        -1,
			expectedErr:     library.ErrValidationFailed,
			expectedFailure: core.FailureNegativeTotal,
		},
		{
			name:            "unknown book",
			state:           recomputeavailability.State{},
			newTotal:        1,
			expectedErr:     library.ErrNotFound,
			expectedFailure: core.FailureBookNotFound,
		},
		{
			name:            "removed book",
			state:           recomputeavailability.State{BookFound: true, BookRemoved: true},
			newTotal:        1,
			expectedErr:     library.ErrNotFound,
			expectedFailure: core.FailureBookRemoved,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := recomputeavailability.BuildCommand(GivenUniqueID(t), tc.newTotal, FakeClockStart)

			// act
			result := recomputeavailability.Decide(tc.state, command)

			// assert
			switch {
			case tc.expectedErr != nil:
				assert.ErrorIs(t, result.HasError(), tc.expectedErr)
				event, ok := result.Event.(core.RecomputingAvailabilityFailed)
				require.True(t, ok, "event should be RecomputingAvailabilityFailed")
				assert.Equal(t, tc.expectedFailure, event.FailureInfo)
				assert.Equal(t, tc.newTotal, event.RequestedTotal)

			case tc.expectIdempotent:
				assert.True(t, result.IsIdempotent())

			default:
				require.NoError(t, result.HasError())
				event, ok := result.Event.(core.AvailabilityRecomputed)
				require.True(t, ok, "event should be AvailabilityRecomputed")
				assert.Equal(t, tc.newTotal, event.TotalCopies)
				assert.Equal(t, tc.expectedAvailable, event.AvailableCopies)
				assert.Equal(t, tc.state.TotalCopies, event.PreviousTotal)
			}
		})
	}
}
