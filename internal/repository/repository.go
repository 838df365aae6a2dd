package repository

import (
	"context"
	"time"

	"careshift/internal/domain"
)

// ShiftRepository 班次存储
// Every mutating method runs its availability check and its write as
// one atomic unit (transaction or single lock scope): a naive
// read-then-write sequence would let two concurrent creates for the
// same caregiver both observe "no conflict" and both commit.
type ShiftRepository interface {
	// CreateShift persists a Scheduled shift after checking the
	// caregiver and every requested recipient for overlap. On conflict
	// nothing is written and a *domain.ConflictError is returned.
	CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)

	GetShift(ctx context.Context, shiftID string) (*domain.Shift, error)
	ListShifts(ctx context.Context) ([]domain.Shift, error)
	ListByCaregiver(ctx context.Context, caregiverID string) ([]domain.Shift, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]domain.Shift, error)

	// AssignRecipients attaches the batch to the shift. Each recipient
	// is checked against the shift's own window (excluding the shift
	// itself); one conflict aborts the whole batch.
	AssignRecipients(ctx context.Context, shiftID string, recipientIDs []string) (*domain.Shift, error)

	// CloseShift moves a non-terminal shift to the given terminal
	// status. Closing an already-Completed shift is a no-op and returns
	// the shift unchanged.
	CloseShift(ctx context.Context, shiftID string, status domain.ShiftStatus) (*domain.Shift, error)

	// ReplaceShift marks the shift EmergencyReassigned and, in the same
	// atomic unit, creates its successor: owned by newCaregiverID,
	// running from now to the original end, carrying the full recipient
	// set. Returns original then successor.
	ReplaceShift(ctx context.Context, shiftID, newCaregiverID string, now time.Time) (*domain.Shift, *domain.Shift, error)
}

// CaregiverStore 护理人员读取接口（记录归 CRUD 层所有）
type CaregiverStore interface {
	GetCaregiver(ctx context.Context, caregiverID string) (*domain.Caregiver, error)
}

// RecipientStore 受照护者读取接口
type RecipientStore interface {
	GetRecipient(ctx context.Context, recipientID string) (*domain.Recipient, error)
	ListActiveRecipients(ctx context.Context) ([]domain.Recipient, error)
}

// RoutineLogStore 观察记录读取接口
// QueryLogs returns the recipient's entries in [from, to), oldest first.
type RoutineLogStore interface {
	QueryLogs(ctx context.Context, recipientID string, from, to time.Time) ([]domain.RoutineLog, error)
}

// TaskStore 任务读取接口
type TaskStore interface {
	PendingTasks(ctx context.Context, recipientID string) ([]domain.Task, error)
}

// HandoverRepository 交接报告存储
type HandoverRepository interface {
	// UpsertSummary writes the summary keyed by (shift_id, recipient_id):
	// insert on first generation, overwrite on regeneration.
	UpsertSummary(ctx context.Context, summary domain.HandoverSummary) (*domain.HandoverSummary, error)

	ListByShift(ctx context.Context, shiftID string) ([]domain.HandoverSummary, error)
}
