package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"careshift/internal/domain"

	"github.com/google/uuid"
)

// In-memory implementations of the collaborator stores (caregivers,
// recipients, routine logs, tasks, handover summaries). They back the
// DB-less dev mode and the unit tests.

// --- Caregivers ---

type MemoryCaregiverStore struct {
	mu         sync.RWMutex
	caregivers map[string]domain.Caregiver
}

func NewMemoryCaregiverStore() *MemoryCaregiverStore {
	return &MemoryCaregiverStore{caregivers: map[string]domain.Caregiver{}}
}

var _ CaregiverStore = (*MemoryCaregiverStore)(nil)

func (s *MemoryCaregiverStore) GetCaregiver(_ context.Context, caregiverID string) (*domain.Caregiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.caregivers[caregiverID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *MemoryCaregiverStore) AddCaregiver(c domain.Caregiver) domain.Caregiver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CaregiverID == "" {
		c.CaregiverID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.caregivers[c.CaregiverID] = c
	return c
}

// --- Recipients ---

type MemoryRecipientStore struct {
	mu         sync.RWMutex
	recipients map[string]domain.Recipient
}

func NewMemoryRecipientStore() *MemoryRecipientStore {
	return &MemoryRecipientStore{recipients: map[string]domain.Recipient{}}
}

var _ RecipientStore = (*MemoryRecipientStore)(nil)

func (s *MemoryRecipientStore) GetRecipient(_ context.Context, recipientID string) (*domain.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recipients[recipientID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (s *MemoryRecipientStore) ListActiveRecipients(_ context.Context) ([]domain.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Recipient, 0, len(s.recipients))
	for _, r := range s.recipients {
		if r.InCare {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecipientID < out[j].RecipientID })
	return out, nil
}

func (s *MemoryRecipientStore) AddRecipient(r domain.Recipient) domain.Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.RecipientID == "" {
		r.RecipientID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.recipients[r.RecipientID] = r
	return r
}

// --- Routine logs ---

type MemoryRoutineLogStore struct {
	mu   sync.RWMutex
	logs []domain.RoutineLog
}

func NewMemoryRoutineLogStore() *MemoryRoutineLogStore {
	return &MemoryRoutineLogStore{}
}

var _ RoutineLogStore = (*MemoryRoutineLogStore)(nil)

func (s *MemoryRoutineLogStore) QueryLogs(_ context.Context, recipientID string, from, to time.Time) ([]domain.RoutineLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.RoutineLog
	for _, l := range s.logs {
		if l.RecipientID != recipientID {
			continue
		}
		if l.CreatedAt.Before(from) || !l.CreatedAt.Before(to) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryRoutineLogStore) AddLog(l domain.RoutineLog) domain.RoutineLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.LogID == "" {
		l.LogID = uuid.NewString()
	}
	s.logs = append(s.logs, l)
	return l
}

// --- Tasks ---

type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks []domain.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{}
}

var _ TaskStore = (*MemoryTaskStore)(nil)

func (s *MemoryTaskStore) PendingTasks(_ context.Context, recipientID string) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Task
	for _, t := range s.tasks {
		if t.RecipientID == recipientID && t.Status == domain.TaskStatusPending {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryTaskStore) AddTask(t domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.TaskID == "" {
		t.TaskID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.tasks = append(s.tasks, t)
	return t
}

// --- Handover summaries ---

type MemoryHandoverRepository struct {
	mu        sync.RWMutex
	summaries map[[2]string]domain.HandoverSummary // (shift_id, recipient_id)
}

func NewMemoryHandoverRepository() *MemoryHandoverRepository {
	return &MemoryHandoverRepository{summaries: map[[2]string]domain.HandoverSummary{}}
}

var _ HandoverRepository = (*MemoryHandoverRepository)(nil)

func (r *MemoryHandoverRepository) UpsertSummary(_ context.Context, summary domain.HandoverSummary) (*domain.HandoverSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := [2]string{summary.ShiftID, summary.RecipientID}
	if existing, ok := r.summaries[key]; ok {
		// Overwrite content, keep the original identity.
		summary.SummaryID = existing.SummaryID
	} else if summary.SummaryID == "" {
		summary.SummaryID = uuid.NewString()
	}
	r.summaries[key] = summary
	return &summary, nil
}

func (r *MemoryHandoverRepository) ListByShift(_ context.Context, shiftID string) ([]domain.HandoverSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.HandoverSummary
	for key, s := range r.summaries {
		if key[0] == shiftID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecipientID < out[j].RecipientID })
	return out, nil
}
