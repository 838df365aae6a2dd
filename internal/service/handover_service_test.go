package service

import (
	"context"
	"testing"
	"time"

	"careshift/internal/domain"
	"careshift/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Zero logs still produce a summary: sleep sentinel, empty fractions,
// empty trend. Absence of documentation must not be silently skipped.
func TestEndShiftZeroLogs(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.addCaregiver("c1")
	env.addRecipient("p1")

	start, end := env.window(8, 16)
	shift, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", StartTime: start, EndTime: end, RecipientIDs: []string{"p1"},
	})
	require.NoError(t, err)

	resp, err := env.shiftSvc.EndShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, resp.Status)
	assert.Equal(t, 1, resp.SummariesGenerated)
	assert.Empty(t, resp.Warning)

	summaries, err := env.handover.GetByShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	content := summaries[0].Content
	assert.Equal(t, "No Data", content.SleepQuality)
	assert.Equal(t, "0/0 taken", content.MealsSummary)
	assert.Empty(t, content.MoodTrend)
	assert.Empty(t, content.Incidents)
	assert.Equal(t, "Low", content.RiskLevel)
	assert.Equal(t, "No recent logs to analyze.", content.RiskJustification)
}

func TestHandoverAggregation(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.addCaregiver("c1")
	env.addRecipient("p1")

	start, end := env.window(8, 16)
	shift, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", StartTime: start, EndTime: end, RecipientIDs: []string{"p1"},
	})
	require.NoError(t, err)

	at := func(hour int) time.Time { return testDay.Add(time.Duration(hour) * time.Hour) }
	env.logs.AddLog(domain.RoutineLog{
		RecipientID: "p1", SleepQuality: "Good", Meals: "taken", Mood: "Calm",
		CreatedAt: at(9), CreatedBy: "c1",
	})
	env.logs.AddLog(domain.RoutineLog{
		RecipientID: "p1", SleepQuality: "Poor", Meals: "skipped", Mood: "Anxious",
		IncidentFlag: true, Notes: "Refused breakfast, agitated",
		CreatedAt: at(10), CreatedBy: "c1",
	})
	env.logs.AddLog(domain.RoutineLog{
		RecipientID: "p1", SleepQuality: "Good", Meals: "taken", Mood: "Calm",
		CreatedAt: at(11), CreatedBy: "c1",
	})
	// Before the shift started: out of the observation window.
	env.logs.AddLog(domain.RoutineLog{
		RecipientID: "p1", SleepQuality: "Poor", Meals: "skipped", Mood: "Aggressive",
		CreatedAt: at(6), CreatedBy: "c1",
	})
	// After "now": also out.
	env.logs.AddLog(domain.RoutineLog{
		RecipientID: "p1", SleepQuality: "Poor", Meals: "skipped", Mood: "Aggressive",
		CreatedAt: at(14), CreatedBy: "c1",
	})

	env.tasks.AddTask(domain.Task{RecipientID: "p1", Title: "Refill medication", Status: "pending"})
	env.tasks.AddTask(domain.Task{RecipientID: "p1", Title: "Dentist follow-up", Status: "done"})

	resp, err := env.shiftSvc.EndShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	require.Equal(t, 1, resp.SummariesGenerated)

	summaries, err := env.handover.GetByShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	content := summaries[0].Content

	assert.Equal(t, "Good", content.SleepQuality) // mode of Good, Poor, Good
	assert.Equal(t, "2/3 taken", content.MealsSummary)
	assert.Equal(t, []string{"Calm", "Anxious", "Calm"}, content.MoodTrend)
	assert.Equal(t, []string{"Refused breakfast, agitated"}, content.Incidents)
	assert.Equal(t, []string{"Refill medication"}, content.PendingTasks)
	assert.NotEmpty(t, content.RiskLevel)
	assert.NotEmpty(t, content.RiskJustification)
}

func TestEndShiftIdempotent(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.addCaregiver("c1")
	env.addRecipient("p1")

	start, end := env.window(8, 16)
	shift, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", StartTime: start, EndTime: end, RecipientIDs: []string{"p1"},
	})
	require.NoError(t, err)

	first, err := env.shiftSvc.EndShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SummariesGenerated)

	// Second call: no-op transition, no regeneration.
	second, err := env.shiftSvc.EndShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, second.Status)
	assert.Zero(t, second.SummariesGenerated)

	// Still exactly one row for (shift, recipient).
	summaries, err := env.handover.GetByShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestRegenerateRequiresTerminalShift(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.addCaregiver("c1")
	env.addRecipient("p1")

	start, end := env.window(8, 16)
	shift, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", StartTime: start, EndTime: end, RecipientIDs: []string{"p1"},
	})
	require.NoError(t, err)

	_, err = env.handover.Regenerate(ctx, shift.ShiftID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.shiftSvc.EndShift(ctx, shift.ShiftID)
	require.NoError(t, err)

	// New observations arrive after the first generation.
	env.logs.AddLog(domain.RoutineLog{
		RecipientID: "p1", SleepQuality: "Disturbed", Meals: "taken", Mood: "Irritable",
		CreatedAt: testDay.Add(11 * time.Hour), CreatedBy: "c1",
	})

	regenerated, err := env.handover.Regenerate(ctx, shift.ShiftID)
	require.NoError(t, err)
	require.Len(t, regenerated, 1)
	assert.Equal(t, "Disturbed", regenerated[0].Content.SleepQuality)

	// Overwrite, not duplicate.
	summaries, err := env.handover.GetByShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestGetByShiftUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	kv := store.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	env := newTestEnv(kv)
	ctx := context.Background()
	env.addCaregiver("c1")
	env.addRecipient("p1")

	start, end := env.window(8, 16)
	shift, err := env.shiftSvc.CreateShift(ctx, CreateShiftRequest{
		CaregiverID: "c1", StartTime: start, EndTime: end, RecipientIDs: []string{"p1"},
	})
	require.NoError(t, err)
	_, err = env.shiftSvc.EndShift(ctx, shift.ShiftID)
	require.NoError(t, err)

	// First read fills the cache.
	first, err := env.handover.GetByShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("careshift:handover:"+shift.ShiftID))

	// Cached copy is served even if the backing row changes underneath.
	cached, err := env.handover.GetByShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	// Regeneration invalidates the cached summaries.
	env.logs.AddLog(domain.RoutineLog{
		RecipientID: "p1", SleepQuality: "Poor", Meals: "skipped", Mood: "Anxious",
		CreatedAt: testDay.Add(10 * time.Hour), CreatedBy: "c1",
	})
	_, err = env.handover.Regenerate(ctx, shift.ShiftID)
	require.NoError(t, err)
	assert.False(t, mr.Exists("careshift:handover:"+shift.ShiftID))

	fresh, err := env.handover.GetByShift(ctx, shift.ShiftID)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Poor", fresh[0].Content.SleepQuality)
}
