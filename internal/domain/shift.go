package domain

import "time"

// ShiftStatus 班次状态
// Scheduled/Active/Completed/EmergencyReassigned
type ShiftStatus string

const (
	StatusScheduled           ShiftStatus = "Scheduled"
	StatusActive              ShiftStatus = "Active"
	StatusCompleted           ShiftStatus = "Completed"
	StatusEmergencyReassigned ShiftStatus = "EmergencyReassigned"
)

// Terminal reports whether the status is final. Terminal shifts never
// count for availability checks and never change again.
func (s ShiftStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusEmergencyReassigned
}

// Window 时间窗口 [Start, End)
// All overlap and containment decisions in the scheduler go through
// this type so every call site shares one boundary convention:
// half-open intervals, touching boundaries do not overlap.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the window has positive length.
func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Overlaps reports whether the two windows intersect.
// Canonical form: a.Start < b.End && b.Start < a.End.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Contains reports whether o lies fully inside w
// (w.Start <= o.Start && w.End >= o.End). Used by coverage checks.
func (w Window) Contains(o Window) bool {
	return !w.Start.After(o.Start) && !w.End.Before(o.End)
}

// Shift 班次领域模型（对应 shifts 表）
// 一名护理人员在一个时间窗口内照看零或多名受照护者。
// Shifts are append-only: status moves forward, rows are never deleted.
type Shift struct {
	// 主键
	ShiftID string `db:"shift_id"` // UUID, PRIMARY KEY

	// 班次类型（Morning/Night/Respite 等自由标签）
	Kind string `db:"shift_kind"` // VARCHAR(50), NOT NULL

	// 时间窗口
	StartTime time.Time `db:"start_time"` // TIMESTAMPTZ, NOT NULL
	EndTime   time.Time `db:"end_time"`   // TIMESTAMPTZ, NOT NULL

	// 护理人员
	CaregiverID string `db:"caregiver_id"` // UUID, NOT NULL, FK to caregivers

	// RawStatus is what the store holds. Active is never persisted: it is
	// derived from the window at read time (see Status), so a stale status
	// can't survive a missed read and no read ever performs a write.
	RawStatus ShiftStatus `db:"status"` // VARCHAR(30), NOT NULL, DEFAULT 'Scheduled'

	// 受照护者（shift_recipients 关联表）
	RecipientIDs []string `db:"-"`

	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
}

// Window returns the shift's scheduling window.
func (s *Shift) Window() Window {
	return Window{Start: s.StartTime, End: s.EndTime}
}

// Status derives the effective status at the given instant.
// A non-terminal shift is Active from its start onward; once ended or
// reassigned the persisted terminal status wins.
func (s *Shift) Status(now time.Time) ShiftStatus {
	if s.RawStatus.Terminal() {
		return s.RawStatus
	}
	if s.StartTime.After(now) {
		return StatusScheduled
	}
	return StatusActive
}

// Open reports whether the shift still occupies its caregiver and
// recipients, i.e. whether it participates in availability checks.
func (s *Shift) Open() bool {
	return !s.RawStatus.Terminal()
}

// HasRecipient reports whether the recipient is assigned to this shift.
func (s *Shift) HasRecipient(recipientID string) bool {
	for _, id := range s.RecipientIDs {
		if id == recipientID {
			return true
		}
	}
	return false
}
