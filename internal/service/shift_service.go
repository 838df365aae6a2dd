package service

import (
	"context"
	"fmt"
	"time"

	"careshift/internal/domain"
	"careshift/internal/repository"
	"careshift/internal/schedule"

	"go.uber.org/zap"
)

// ShiftService 班次调度服务接口
type ShiftService interface {
	CreateShift(ctx context.Context, req CreateShiftRequest) (*ShiftDTO, error)
	AssignRecipients(ctx context.Context, shiftID string, recipientIDs []string) (*ShiftDTO, error)
	GetShift(ctx context.Context, shiftID string) (*ShiftDTO, error)
	ListShifts(ctx context.Context) ([]ShiftDTO, error)
	ListActiveShifts(ctx context.Context) ([]ShiftDTO, error)
	ValidateCoverage(ctx context.Context, window domain.Window) (*CoverageReport, error)
	EndShift(ctx context.Context, shiftID string) (*EndShiftResponse, error)
	EmergencyReplace(ctx context.Context, req EmergencyReplaceRequest) (*EmergencyReplaceResponse, error)
}

// ============================================
// Request/Response DTOs
// ============================================

type CreateShiftRequest struct {
	CaregiverID  string    `json:"caregiver_id"`
	Kind         string    `json:"kind"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	RecipientIDs []string  `json:"recipient_ids,omitempty"`
}

type ShiftDTO struct {
	ShiftID      string             `json:"shift_id"`
	Kind         string             `json:"kind"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	CaregiverID  string             `json:"caregiver_id"`
	Status       domain.ShiftStatus `json:"status"`
	RecipientIDs []string           `json:"recipient_ids"`
}

// CoverageReport lists active recipients with no open shift fully
// containing the requested window. A pre-flight check, not a gate.
type CoverageReport struct {
	Complete            bool     `json:"complete"`
	UncoveredRecipients []string `json:"uncovered_recipients"`
}

type EndShiftResponse struct {
	ShiftID            string             `json:"shift_id"`
	Status             domain.ShiftStatus `json:"status"`
	SummariesGenerated int                `json:"summaries_generated"`
	// Warning is set when the transition committed but one or more
	// summaries could not be written; regeneration recovers those.
	Warning string `json:"warning,omitempty"`
}

type EmergencyReplaceRequest struct {
	ShiftID        string `json:"shift_id"`
	NewCaregiverID string `json:"new_caregiver_id"`
	Reason         string `json:"reason"`
}

type EmergencyReplaceResponse struct {
	OldShiftID         string `json:"old_shift_id"`
	NewShiftID         string `json:"new_shift_id"`
	SummariesGenerated int    `json:"summaries_generated"`
	Warning            string `json:"warning,omitempty"`
}

// ============================================
// Implementation
// ============================================

type shiftService struct {
	shifts     repository.ShiftRepository
	caregivers repository.CaregiverStore
	recipients repository.RecipientStore
	handover   HandoverService
	logger     *zap.Logger
	now        func() time.Time
}

func NewShiftService(
	shifts repository.ShiftRepository,
	caregivers repository.CaregiverStore,
	recipients repository.RecipientStore,
	handover HandoverService,
	logger *zap.Logger,
) ShiftService {
	return &shiftService{
		shifts:     shifts,
		caregivers: caregivers,
		recipients: recipients,
		handover:   handover,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *shiftService) toDTO(shift *domain.Shift, now time.Time) *ShiftDTO {
	recipients := shift.RecipientIDs
	if recipients == nil {
		recipients = []string{}
	}
	return &ShiftDTO{
		ShiftID:      shift.ShiftID,
		Kind:         shift.Kind,
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
		CaregiverID:  shift.CaregiverID,
		Status:       shift.Status(now),
		RecipientIDs: recipients,
	}
}

func (s *shiftService) CreateShift(ctx context.Context, req CreateShiftRequest) (*ShiftDTO, error) {
	if req.CaregiverID == "" {
		return nil, fmt.Errorf("%w: caregiver_id is required", domain.ErrValidation)
	}
	w := domain.Window{Start: req.StartTime, End: req.EndTime}
	if !w.Valid() {
		return nil, fmt.Errorf("%w: end_time must be after start_time", domain.ErrValidation)
	}

	if _, err := s.caregivers.GetCaregiver(ctx, req.CaregiverID); err != nil {
		return nil, err
	}
	for _, rid := range req.RecipientIDs {
		if _, err := s.recipients.GetRecipient(ctx, rid); err != nil {
			return nil, err
		}
	}

	created, err := s.shifts.CreateShift(ctx, domain.Shift{
		Kind:         req.Kind,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		CaregiverID:  req.CaregiverID,
		RecipientIDs: req.RecipientIDs,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Shift created",
		zap.String("shift_id", created.ShiftID),
		zap.String("caregiver_id", created.CaregiverID),
		zap.Time("start_time", created.StartTime),
		zap.Time("end_time", created.EndTime),
		zap.Int("recipients", len(created.RecipientIDs)),
	)
	return s.toDTO(created, s.now()), nil
}

func (s *shiftService) AssignRecipients(ctx context.Context, shiftID string, recipientIDs []string) (*ShiftDTO, error) {
	if len(recipientIDs) == 0 {
		return nil, fmt.Errorf("%w: recipient_ids is required", domain.ErrValidation)
	}
	for _, rid := range recipientIDs {
		if _, err := s.recipients.GetRecipient(ctx, rid); err != nil {
			return nil, err
		}
	}

	updated, err := s.shifts.AssignRecipients(ctx, shiftID, recipientIDs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Recipients assigned",
		zap.String("shift_id", shiftID),
		zap.Int("batch_size", len(recipientIDs)),
	)
	return s.toDTO(updated, s.now()), nil
}

func (s *shiftService) GetShift(ctx context.Context, shiftID string) (*ShiftDTO, error) {
	shift, err := s.shifts.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(shift, s.now()), nil
}

func (s *shiftService) ListShifts(ctx context.Context) ([]ShiftDTO, error) {
	shifts, err := s.shifts.ListShifts(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ShiftDTO, 0, len(shifts))
	for i := range shifts {
		out = append(out, *s.toDTO(&shifts[i], now))
	}
	return out, nil
}

func (s *shiftService) ListActiveShifts(ctx context.Context) ([]ShiftDTO, error) {
	all, err := s.ListShifts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ShiftDTO, 0, len(all))
	for _, dto := range all {
		if dto.Status == domain.StatusActive {
			out = append(out, dto)
		}
	}
	return out, nil
}

func (s *shiftService) ValidateCoverage(ctx context.Context, window domain.Window) (*CoverageReport, error) {
	if !window.Valid() {
		return nil, fmt.Errorf("%w: end_time must be after start_time", domain.ErrValidation)
	}

	active, err := s.recipients.ListActiveRecipients(ctx)
	if err != nil {
		return nil, err
	}

	uncovered := []string{}
	for _, recipient := range active {
		theirs, err := s.shifts.ListByRecipient(ctx, recipient.RecipientID)
		if err != nil {
			return nil, err
		}
		if !schedule.Covers(theirs, window, recipient.RecipientID) {
			uncovered = append(uncovered, recipient.RecipientID)
		}
	}

	return &CoverageReport{
		Complete:            len(uncovered) == 0,
		UncoveredRecipients: uncovered,
	}, nil
}

func (s *shiftService) EndShift(ctx context.Context, shiftID string) (*EndShiftResponse, error) {
	shift, err := s.shifts.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	// Repeated end calls are a no-op transition and do not regenerate:
	// regeneration is its own explicit operation.
	if shift.RawStatus == domain.StatusCompleted {
		return &EndShiftResponse{
			ShiftID: shiftID,
			Status:  domain.StatusCompleted,
		}, nil
	}

	closed, err := s.shifts.CloseShift(ctx, shiftID, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}

	summaries, genErr := s.handover.Generate(ctx, shiftID)
	resp := &EndShiftResponse{
		ShiftID:            shiftID,
		Status:             closed.RawStatus,
		SummariesGenerated: len(summaries),
	}
	if genErr != nil {
		// The transition is committed; losing it would be unrecoverable,
		// a missing summary is not. Surface a warning instead of undoing.
		resp.Warning = fmt.Sprintf("shift completed but some summaries failed: %v", genErr)
	}

	s.logger.Info("Shift ended",
		zap.String("shift_id", shiftID),
		zap.Int("summaries_generated", resp.SummariesGenerated),
	)
	return resp, nil
}

func (s *shiftService) EmergencyReplace(ctx context.Context, req EmergencyReplaceRequest) (*EmergencyReplaceResponse, error) {
	if req.NewCaregiverID == "" {
		return nil, fmt.Errorf("%w: new_caregiver_id is required", domain.ErrValidation)
	}
	if _, err := s.caregivers.GetCaregiver(ctx, req.NewCaregiverID); err != nil {
		return nil, err
	}

	now := s.now()
	orig, succ, err := s.shifts.ReplaceShift(ctx, req.ShiftID, req.NewCaregiverID, now)
	if err != nil {
		return nil, err
	}

	// Partial handover against the original shift: the observation
	// window covers only the elapsed portion.
	summaries, genErr := s.handover.Generate(ctx, orig.ShiftID)
	resp := &EmergencyReplaceResponse{
		OldShiftID:         orig.ShiftID,
		NewShiftID:         succ.ShiftID,
		SummariesGenerated: len(summaries),
	}
	if genErr != nil {
		resp.Warning = fmt.Sprintf("replacement committed but some summaries failed: %v", genErr)
	}

	s.logger.Warn("Emergency replacement executed",
		zap.String("old_shift_id", orig.ShiftID),
		zap.String("new_shift_id", succ.ShiftID),
		zap.String("new_caregiver_id", req.NewCaregiverID),
		zap.String("reason", req.Reason),
	)
	return resp, nil
}
