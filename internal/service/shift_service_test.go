package service

import (
	"context"
	"testing"
	"time"

	"careshift/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateShiftValidation(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	start, end := env.window(10, 18)

	// Missing caregiver is rejected before any store access.
	_, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{StartTime: start, EndTime: end})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Inverted window.
	env.addCaregiver("c1")
	_, err = env.shiftSvc.CreateShift(ctx, CreateShiftRequest{CaregiverID: "c1", StartTime: end, EndTime: start})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Unknown caregiver.
	_, err = env.shiftSvc.CreateShift(ctx, CreateShiftRequest{CaregiverID: "ghost", StartTime: start, EndTime: end})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Unknown recipient.
	_, err = env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", StartTime: start, EndTime: end, RecipientIDs: []string{"ghost"},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateShiftOverlapConflict(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.addCaregiver("c1")

	start, end := env.window(10, 18)
	first, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", Kind: "Day", StartTime: start, EndTime: end,
	})
	require.NoError(t, err)

	overlapStart, overlapEnd := env.window(17, 20)
	_, err = env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", Kind: "Evening", StartTime: overlapStart, EndTime: overlapEnd,
	})
	require.Error(t, err)
	ce, ok := domain.IsConflict(err)
	require.True(t, ok)
	assert.Equal(t, first.ShiftID, ce.ShiftID)
}

func TestListActiveShiftsDerivesStatus(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.addCaregiver("c1")
	env.addCaregiver("c2")

	// Running at noon.
	start, end := env.window(8, 16)
	running, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{CaregiverID: "c1", StartTime: start, EndTime: end})
	require.NoError(t, err)

	// Starts in the evening.
	start, end = env.window(18, 23)
	_, err = env.shiftSvc.CreateShift(ctx, CreateShiftRequest{CaregiverID: "c2", StartTime: start, EndTime: end})
	require.NoError(t, err)

	active, err := env.shiftSvc.ListActiveShifts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, running.ShiftID, active[0].ShiftID)
	assert.Equal(t, domain.StatusActive, active[0].Status)

	all, err := env.shiftSvc.ListShifts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, dto := range all {
		if dto.ShiftID == running.ShiftID {
			assert.Equal(t, domain.StatusActive, dto.Status)
		} else {
			assert.Equal(t, domain.StatusScheduled, dto.Status)
		}
	}
}

func TestValidateCoverage(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.addCaregiver("c1")
	env.addRecipient("p1")
	env.addRecipient("p2")

	start, end := env.window(8, 16)
	_, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", StartTime: start, EndTime: end, RecipientIDs: []string{"p1"},
	})
	require.NoError(t, err)

	// p1 is covered for a contained window, p2 has no shift at all.
	wStart, wEnd := env.window(9, 15)
	report, err := env.shiftSvc.ValidateCoverage(ctx, domain.Window{Start: wStart, End: wEnd})
	require.NoError(t, err)
	assert.False(t, report.Complete)
	assert.Equal(t, []string{"p2"}, report.UncoveredRecipients)

	// A window sticking out of the shift leaves p1 uncovered too.
	wStart, wEnd = env.window(9, 17)
	report, err = env.shiftSvc.ValidateCoverage(ctx, domain.Window{Start: wStart, End: wEnd})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, report.UncoveredRecipients)
}

func TestEmergencyReplace(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.addCaregiver("c1")
	env.addCaregiver("c3")
	env.addRecipient("p1")
	env.addRecipient("p2")

	start, end := env.window(8, 16)
	orig, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", Kind: "Day", StartTime: start, EndTime: end,
		RecipientIDs: []string{"p1", "p2"},
	})
	require.NoError(t, err)

	// Observations before the handoff land in the partial summary.
	env.logs.AddLog(domain.RoutineLog{
		RecipientID: "p1", Mood: "Anxious", SleepQuality: "Poor", Meals: "taken",
		CreatedAt: testDay.Add(10 * time.Hour), CreatedBy: "c1",
	})

	resp, err := env.shiftSvc.EmergencyReplace(ctx, EmergencyReplaceRequest{
		ShiftID: orig.ShiftID, NewCaregiverID: "c3", Reason: "caregiver taken ill",
	})
	require.NoError(t, err)
	assert.Equal(t, orig.ShiftID, resp.OldShiftID)
	assert.NotEqual(t, resp.OldShiftID, resp.NewShiftID)
	assert.Equal(t, 2, resp.SummariesGenerated)

	// Original is terminal.
	gotOrig, err := env.shiftSvc.GetShift(ctx, orig.ShiftID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmergencyReassigned, gotOrig.Status)

	// Successor runs from now to the original end, same recipients,
	// already active.
	succ, err := env.shiftSvc.GetShift(ctx, resp.NewShiftID)
	require.NoError(t, err)
	assert.Equal(t, "c3", succ.CaregiverID)
	assert.Equal(t, testNow, succ.StartTime)
	assert.Equal(t, orig.EndTime, succ.EndTime)
	assert.ElementsMatch(t, []string{"p1", "p2"}, succ.RecipientIDs)
	assert.Equal(t, domain.StatusActive, succ.Status)

	// Partial handover exists for the original shift only.
	summaries, err := env.handover.GetByShift(ctx, orig.ShiftID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	succSummaries, err := env.handover.GetByShift(ctx, resp.NewShiftID)
	require.NoError(t, err)
	assert.Empty(t, succSummaries)

	// Replacing the already-reassigned shift fails.
	_, err = env.shiftSvc.EmergencyReplace(ctx, EmergencyReplaceRequest{
		ShiftID: orig.ShiftID, NewCaregiverID: "c3",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Unknown replacement caregiver is rejected up front.
	_, err = env.shiftSvc.EmergencyReplace(ctx, EmergencyReplaceRequest{
		ShiftID: resp.NewShiftID, NewCaregiverID: "ghost",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
