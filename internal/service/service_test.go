package service

import (
	"time"

	"careshift/internal/domain"
	"careshift/internal/repository"
	"careshift/internal/risk"
	"careshift/internal/store"

	"go.uber.org/zap"
)

// Shared fixture: memory-backed stores with a pinned clock.

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
var testNow = testDay.Add(12 * time.Hour) // noon

type testEnv struct {
	shifts     *repository.MemoryShiftRepository
	caregivers *repository.MemoryCaregiverStore
	recipients *repository.MemoryRecipientStore
	logs       *repository.MemoryRoutineLogStore
	tasks      *repository.MemoryTaskStore
	summaries  *repository.MemoryHandoverRepository

	handover HandoverService
	shiftSvc ShiftService
}

func newTestEnv(cache store.KV) *testEnv {
	env := &testEnv{
		shifts:     repository.NewMemoryShiftRepository(),
		caregivers: repository.NewMemoryCaregiverStore(),
		recipients: repository.NewMemoryRecipientStore(),
		logs:       repository.NewMemoryRoutineLogStore(),
		tasks:      repository.NewMemoryTaskStore(),
		summaries:  repository.NewMemoryHandoverRepository(),
	}

	logger := zap.NewNop()
	env.handover = NewHandoverService(
		env.shifts, env.logs, env.tasks, env.summaries,
		risk.NewRuleEvaluator(), cache, logger,
	)
	env.handover.(*handoverService).now = func() time.Time { return testNow }

	env.shiftSvc = NewShiftService(env.shifts, env.caregivers, env.recipients, env.handover, logger)
	env.shiftSvc.(*shiftService).now = func() time.Time { return testNow }

	return env
}

func (e *testEnv) addCaregiver(id string) {
	e.caregivers.AddCaregiver(domain.Caregiver{
		CaregiverID: id,
		Name:        "Caregiver " + id,
		Email:       id + "@careshift.test",
		Role:        "Caregiver",
	})
}

func (e *testEnv) addRecipient(id string) {
	e.recipients.AddRecipient(domain.Recipient{
		RecipientID:  id,
		FullName:     "Recipient " + id,
		AgeGroup:     "Adult",
		SupportLevel: "High",
		BaselineMood: "Calm",
		InCare:       true,
	})
}

func (e *testEnv) window(startHour, endHour int) (time.Time, time.Time) {
	return testDay.Add(time.Duration(startHour) * time.Hour),
		testDay.Add(time.Duration(endHour) * time.Hour)
}
