package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"careshift/internal/domain"
	"careshift/internal/schedule"

	"github.com/google/uuid"
)

// MemoryShiftRepository keeps the whole roster in process memory.
// Used when DB is disabled and as the backing store in unit tests.
//
// One mutex guards every mutating operation end to end, so the
// availability check and the write are a single atomic unit; of two
// concurrent overlapping creates exactly one can succeed.
//
// The shift<->recipient relation is held as a bidirectional index
// (recipient id -> shift ids and the reverse) so availability checks
// are map lookups, not scans over every shift.
type MemoryShiftRepository struct {
	mu          sync.RWMutex
	shifts      map[string]*domain.Shift
	byCaregiver map[string][]string            // caregiver id -> shift ids
	byRecipient map[string]map[string]struct{} // recipient id -> shift id set
}

func NewMemoryShiftRepository() *MemoryShiftRepository {
	return &MemoryShiftRepository{
		shifts:      map[string]*domain.Shift{},
		byCaregiver: map[string][]string{},
		byRecipient: map[string]map[string]struct{}{},
	}
}

var _ ShiftRepository = (*MemoryShiftRepository)(nil)

func (r *MemoryShiftRepository) CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := shift.Window()
	if err := schedule.CaregiverConflict(r.caregiverShiftsLocked(shift.CaregiverID), w, ""); err != nil {
		return nil, err
	}
	for _, rid := range shift.RecipientIDs {
		if err := schedule.RecipientConflict(r.recipientShiftsLocked(rid), w, ""); err != nil {
			return nil, err
		}
	}

	if shift.ShiftID == "" {
		shift.ShiftID = uuid.NewString()
	}
	if shift.RawStatus == "" {
		shift.RawStatus = domain.StatusScheduled
	}
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = time.Now().UTC()
	}
	shift.RecipientIDs = dedupe(shift.RecipientIDs)

	stored := shift
	r.shifts[stored.ShiftID] = &stored
	r.byCaregiver[stored.CaregiverID] = append(r.byCaregiver[stored.CaregiverID], stored.ShiftID)
	for _, rid := range stored.RecipientIDs {
		r.indexRecipientLocked(rid, stored.ShiftID)
	}

	out := copyShift(&stored)
	return &out, nil
}

func (r *MemoryShiftRepository) GetShift(_ context.Context, shiftID string) (*domain.Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shifts[shiftID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyShift(s)
	return &out, nil
}

func (r *MemoryShiftRepository) ListShifts(_ context.Context) ([]domain.Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Shift, 0, len(r.shifts))
	for _, s := range r.shifts {
		all = append(all, copyShift(s))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].StartTime.Equal(all[j].StartTime) {
			return all[i].ShiftID < all[j].ShiftID
		}
		return all[i].StartTime.After(all[j].StartTime)
	})
	return all, nil
}

func (r *MemoryShiftRepository) ListByCaregiver(_ context.Context, caregiverID string) ([]domain.Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caregiverShiftsLocked(caregiverID), nil
}

func (r *MemoryShiftRepository) ListByRecipient(_ context.Context, recipientID string) ([]domain.Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recipientShiftsLocked(recipientID), nil
}

func (r *MemoryShiftRepository) AssignRecipients(_ context.Context, shiftID string, recipientIDs []string) (*domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shifts[shiftID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !s.Open() {
		return nil, domain.ErrValidation
	}

	// Validate the whole batch before touching anything: one conflict
	// forbids any partial attachment.
	w := s.Window()
	toAdd := make([]string, 0, len(recipientIDs))
	for _, rid := range dedupe(recipientIDs) {
		if s.HasRecipient(rid) {
			continue
		}
		if err := schedule.RecipientConflict(r.recipientShiftsLocked(rid), w, s.ShiftID); err != nil {
			return nil, err
		}
		toAdd = append(toAdd, rid)
	}

	for _, rid := range toAdd {
		s.RecipientIDs = append(s.RecipientIDs, rid)
		r.indexRecipientLocked(rid, s.ShiftID)
	}

	out := copyShift(s)
	return &out, nil
}

func (r *MemoryShiftRepository) CloseShift(_ context.Context, shiftID string, status domain.ShiftStatus) (*domain.Shift, error) {
	if !status.Terminal() {
		return nil, domain.ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shifts[shiftID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.RawStatus.Terminal() {
		if s.RawStatus == status {
			out := copyShift(s)
			return &out, nil
		}
		return nil, domain.ErrValidation
	}

	s.RawStatus = status
	out := copyShift(s)
	return &out, nil
}

func (r *MemoryShiftRepository) ReplaceShift(_ context.Context, shiftID, newCaregiverID string, now time.Time) (*domain.Shift, *domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orig, ok := r.shifts[shiftID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	if orig.RawStatus.Terminal() {
		return nil, nil, domain.ErrValidation
	}

	orig.RawStatus = domain.StatusEmergencyReassigned

	succ := &domain.Shift{
		ShiftID:      uuid.NewString(),
		Kind:         orig.Kind,
		StartTime:    now,
		EndTime:      orig.EndTime,
		CaregiverID:  newCaregiverID,
		RawStatus:    domain.StatusScheduled, // derives Active immediately
		RecipientIDs: append([]string(nil), orig.RecipientIDs...),
		CreatedAt:    now,
	}
	r.shifts[succ.ShiftID] = succ
	r.byCaregiver[newCaregiverID] = append(r.byCaregiver[newCaregiverID], succ.ShiftID)
	for _, rid := range succ.RecipientIDs {
		r.indexRecipientLocked(rid, succ.ShiftID)
	}

	origOut := copyShift(orig)
	succOut := copyShift(succ)
	return &origOut, &succOut, nil
}

func (r *MemoryShiftRepository) caregiverShiftsLocked(caregiverID string) []domain.Shift {
	ids := r.byCaregiver[caregiverID]
	out := make([]domain.Shift, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.shifts[id]; ok {
			out = append(out, copyShift(s))
		}
	}
	return out
}

func (r *MemoryShiftRepository) recipientShiftsLocked(recipientID string) []domain.Shift {
	out := make([]domain.Shift, 0, len(r.byRecipient[recipientID]))
	for id := range r.byRecipient[recipientID] {
		if s, ok := r.shifts[id]; ok {
			out = append(out, copyShift(s))
		}
	}
	return out
}

func (r *MemoryShiftRepository) indexRecipientLocked(recipientID, shiftID string) {
	set, ok := r.byRecipient[recipientID]
	if !ok {
		set = map[string]struct{}{}
		r.byRecipient[recipientID] = set
	}
	set[shiftID] = struct{}{}
}

func copyShift(s *domain.Shift) domain.Shift {
	out := *s
	out.RecipientIDs = append([]string(nil), s.RecipientIDs...)
	return out
}

func dedupe(ids []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
