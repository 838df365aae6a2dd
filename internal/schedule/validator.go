// Package schedule holds the pure availability checks shared by every
// write path of the shift scheduler. The functions here never touch a
// store: callers load the candidate shifts (inside whatever transaction
// or lock scope their repository uses) and run the scan over the slice,
// so the check and the subsequent write commit as one atomic unit.
package schedule

import "careshift/internal/domain"

// FindConflict returns the first open (Scheduled/Active) shift whose
// window overlaps w, skipping excludeShiftID (the shift being modified,
// empty for creation). Returns nil when the window is free.
func FindConflict(shifts []domain.Shift, w domain.Window, excludeShiftID string) *domain.Shift {
	for i := range shifts {
		s := &shifts[i]
		if s.ShiftID == excludeShiftID {
			continue
		}
		if !s.Open() {
			continue
		}
		if s.Window().Overlaps(w) {
			return s
		}
	}
	return nil
}

// CaregiverConflict scans the caregiver's shifts for an overlap with w.
func CaregiverConflict(shifts []domain.Shift, w domain.Window, excludeShiftID string) error {
	if c := FindConflict(shifts, w, excludeShiftID); c != nil {
		return &domain.ConflictError{ShiftID: c.ShiftID, Resource: "caregiver"}
	}
	return nil
}

// RecipientConflict scans the shifts a recipient belongs to for an
// overlap with w. Symmetric to CaregiverConflict.
func RecipientConflict(shifts []domain.Shift, w domain.Window, excludeShiftID string) error {
	if c := FindConflict(shifts, w, excludeShiftID); c != nil {
		return &domain.ConflictError{ShiftID: c.ShiftID, Resource: "recipient"}
	}
	return nil
}

// Covers reports whether any open shift both contains the window and
// includes the recipient. Used by the coverage auditor.
func Covers(shifts []domain.Shift, w domain.Window, recipientID string) bool {
	for i := range shifts {
		s := &shifts[i]
		if !s.Open() {
			continue
		}
		if !s.Window().Contains(w) {
			continue
		}
		if s.HasRecipient(recipientID) {
			return true
		}
	}
	return false
}
