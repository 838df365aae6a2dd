package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"careshift/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func testShift(caregiverID string, startHour, endHour int, recipients ...string) domain.Shift {
	return domain.Shift{
		Kind:         "Day",
		StartTime:    testDay.Add(time.Duration(startHour) * time.Hour),
		EndTime:      testDay.Add(time.Duration(endHour) * time.Hour),
		CaregiverID:  caregiverID,
		RecipientIDs: recipients,
	}
}

func TestCreateShiftCaregiverOverlap(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()

	first, err := repo.CreateShift(ctx, testShift("c1", 10, 18))
	require.NoError(t, err)

	// [10:00,18:00) vs [17:00,20:00) collides.
	_, err = repo.CreateShift(ctx, testShift("c1", 17, 20))
	require.Error(t, err)
	ce, ok := domain.IsConflict(err)
	require.True(t, ok)
	assert.Equal(t, first.ShiftID, ce.ShiftID)
	assert.Equal(t, "caregiver", ce.Resource)

	// Touching windows are fine under the half-open rule.
	_, err = repo.CreateShift(ctx, testShift("c1", 18, 20))
	assert.NoError(t, err)

	// A different caregiver is unaffected.
	_, err = repo.CreateShift(ctx, testShift("c2", 10, 18))
	assert.NoError(t, err)
}

func TestAssignRecipientsDoubleBooking(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()

	// P1 already on C1's shift; assigning P1 to C2's
	// parallel shift must fail and name the first shift.
	first, err := repo.CreateShift(ctx, testShift("c1", 8, 16, "p1"))
	require.NoError(t, err)

	second, err := repo.CreateShift(ctx, testShift("c2", 8, 16))
	require.NoError(t, err)

	_, err = repo.AssignRecipients(ctx, second.ShiftID, []string{"p1"})
	require.Error(t, err)
	ce, ok := domain.IsConflict(err)
	require.True(t, ok)
	assert.Equal(t, first.ShiftID, ce.ShiftID)
	assert.Equal(t, "recipient", ce.Resource)
}

func TestAssignRecipientsBatchIsAllOrNothing(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()

	_, err := repo.CreateShift(ctx, testShift("c1", 8, 16, "p2"))
	require.NoError(t, err)

	target, err := repo.CreateShift(ctx, testShift("c2", 8, 16))
	require.NoError(t, err)

	// p1 is free, p2 collides: nothing may be attached.
	_, err = repo.AssignRecipients(ctx, target.ShiftID, []string{"p1", "p2"})
	require.Error(t, err)

	got, err := repo.GetShift(ctx, target.ShiftID)
	require.NoError(t, err)
	assert.Empty(t, got.RecipientIDs)
}

func TestAssignRecipientsRoundTrip(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()

	shift, err := repo.CreateShift(ctx, testShift("c1", 8, 16))
	require.NoError(t, err)

	// Duplicates in the request and re-assignment of an existing
	// member must not produce duplicate memberships.
	_, err = repo.AssignRecipients(ctx, shift.ShiftID, []string{"p1", "p2", "p1"})
	require.NoError(t, err)
	_, err = repo.AssignRecipients(ctx, shift.ShiftID, []string{"p2", "p3"})
	require.NoError(t, err)

	got, err := repo.GetShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, got.RecipientIDs)
}

func TestCloseShiftIdempotent(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()

	shift, err := repo.CreateShift(ctx, testShift("c1", 8, 16))
	require.NoError(t, err)

	closed, err := repo.CloseShift(ctx, shift.ShiftID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, closed.RawStatus)

	// Second close is a no-op, not an error.
	again, err := repo.CloseShift(ctx, shift.ShiftID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, again.RawStatus)

	// But a completed shift cannot be emergency-reassigned.
	_, err = repo.CloseShift(ctx, shift.ShiftID, domain.StatusEmergencyReassigned)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// A closed shift frees the caregiver's window.
	_, err = repo.CreateShift(ctx, testShift("c1", 10, 14))
	assert.NoError(t, err)
}

func TestReplaceShift(t *testing.T) {
	repo := NewMemoryShiftRepository()
	ctx := context.Background()

	orig, err := repo.CreateShift(ctx, testShift("c1", 8, 16, "p1", "p2"))
	require.NoError(t, err)

	now := testDay.Add(12 * time.Hour)
	gotOrig, succ, err := repo.ReplaceShift(ctx, orig.ShiftID, "c3", now)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusEmergencyReassigned, gotOrig.RawStatus)
	assert.Equal(t, "c3", succ.CaregiverID)
	assert.Equal(t, now, succ.StartTime)
	assert.Equal(t, orig.EndTime, succ.EndTime)
	assert.ElementsMatch(t, orig.RecipientIDs, succ.RecipientIDs)
	assert.Equal(t, domain.StatusActive, succ.Status(now))

	// Terminal shifts cannot be replaced again.
	_, _, err = repo.ReplaceShift(ctx, orig.ShiftID, "c4", now)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = repo.ReplaceShift(ctx, "missing", "c4", now)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Two concurrent creates for the same caregiver with the same window;
// exactly one may win under any interleaving.
func TestConcurrentCreateShiftSingleWinner(t *testing.T) {
	for round := 0; round < 50; round++ {
		repo := NewMemoryShiftRepository()
		ctx := context.Background()

		const writers = 8
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.CreateShift(ctx, testShift("c1", 10, 18))
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				_, ok := domain.IsConflict(err)
				require.True(t, ok, "unexpected error class: %v", err)
			}
		}
		require.Equal(t, 1, succeeded)
	}
}
