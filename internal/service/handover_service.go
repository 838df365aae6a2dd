package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"careshift/internal/domain"
	"careshift/internal/repository"
	"careshift/internal/risk"
	"careshift/internal/store"

	"go.uber.org/zap"
)

// HandoverService 交接报告服务接口
type HandoverService interface {
	// Generate builds (or rebuilds) one summary per assigned recipient
	// of the shift. The observation window runs from shift start to
	// now, so early and emergency closures summarize only elapsed time.
	Generate(ctx context.Context, shiftID string) ([]domain.HandoverSummary, error)

	// Regenerate re-runs Generate for a shift that already reached a
	// terminal transition. Explicit action, never implied by EndShift.
	Regenerate(ctx context.Context, shiftID string) ([]domain.HandoverSummary, error)

	// GetByShift returns the stored summaries for a shift.
	GetByShift(ctx context.Context, shiftID string) ([]domain.HandoverSummary, error)
}

type handoverService struct {
	shifts    repository.ShiftRepository
	logs      repository.RoutineLogStore
	tasks     repository.TaskStore
	summaries repository.HandoverRepository
	evaluator risk.Evaluator
	cache     store.KV // optional, nil disables caching
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandoverService(
	shifts repository.ShiftRepository,
	logs repository.RoutineLogStore,
	tasks repository.TaskStore,
	summaries repository.HandoverRepository,
	evaluator risk.Evaluator,
	cache store.KV,
	logger *zap.Logger,
) HandoverService {
	return &handoverService{
		shifts:    shifts,
		logs:      logs,
		tasks:     tasks,
		summaries: summaries,
		evaluator: evaluator,
		cache:     cache,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func handoverCacheKey(shiftID string) string {
	return "careshift:handover:" + shiftID
}

func (s *handoverService) Generate(ctx context.Context, shiftID string) ([]domain.HandoverSummary, error) {
	shift, err := s.shifts.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	generated := make([]domain.HandoverSummary, 0, len(shift.RecipientIDs))
	var failures []error

	for _, recipientID := range shift.RecipientIDs {
		content, err := s.buildContent(ctx, shift, recipientID, now)
		if err != nil {
			failures = append(failures, fmt.Errorf("recipient %s: %w", recipientID, err))
			continue
		}

		written, err := s.summaries.UpsertSummary(ctx, domain.HandoverSummary{
			ShiftID:     shift.ShiftID,
			RecipientID: recipientID,
			Content:     *content,
			GeneratedAt: now,
		})
		if err != nil {
			// The shift transition is already committed; a lost summary
			// is recoverable by regeneration, so keep going and report.
			s.logger.Warn("Handover summary write failed",
				zap.String("shift_id", shift.ShiftID),
				zap.String("recipient_id", recipientID),
				zap.Error(err),
			)
			failures = append(failures, fmt.Errorf("recipient %s: %w", recipientID, err))
			continue
		}
		generated = append(generated, *written)
	}

	s.invalidate(ctx, shift.ShiftID)

	return generated, errors.Join(failures...)
}

func (s *handoverService) Regenerate(ctx context.Context, shiftID string) ([]domain.HandoverSummary, error) {
	shift, err := s.shifts.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	// Summaries exist only for shifts that reached a terminal
	// transition; regenerating a live shift would break that.
	if !shift.RawStatus.Terminal() {
		return nil, fmt.Errorf("%w: shift %s has not ended", domain.ErrValidation, shiftID)
	}
	return s.Generate(ctx, shiftID)
}

func (s *handoverService) GetByShift(ctx context.Context, shiftID string) ([]domain.HandoverSummary, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, handoverCacheKey(shiftID)); err == nil {
			var out []domain.HandoverSummary
			if err := json.Unmarshal([]byte(cached), &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := s.summaries.ListByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(out) > 0 {
		if encoded, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, handoverCacheKey(shiftID), string(encoded), 10*time.Minute); err != nil {
				s.logger.Debug("Handover cache write failed",
					zap.String("shift_id", shiftID),
					zap.Error(err),
				)
			}
		}
	}
	return out, nil
}

// buildContent aggregates one recipient's observation window into the
// summary content. Zero logs still yield a summary: absence of
// documentation is itself meaningful.
func (s *handoverService) buildContent(ctx context.Context, shift *domain.Shift, recipientID string, now time.Time) (*domain.HandoverContent, error) {
	logs, err := s.logs.QueryLogs(ctx, recipientID, shift.StartTime, now)
	if err != nil {
		return nil, err
	}

	sleepLabels := make([]string, 0, len(logs))
	mealLabels := make([]string, 0, len(logs))
	moods := make([]string, 0, len(logs))
	incidents := []string{}
	for _, l := range logs {
		if l.SleepQuality != "" {
			sleepLabels = append(sleepLabels, l.SleepQuality)
		}
		if l.Meals != "" {
			mealLabels = append(mealLabels, l.Meals)
		}
		if l.Mood != "" {
			moods = append(moods, l.Mood)
		}
		if l.IncidentFlag {
			incidents = append(incidents, l.Notes)
		}
	}

	pending, err := s.tasks.PendingTasks(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	taskTitles := make([]string, 0, len(pending))
	for _, t := range pending {
		taskTitles = append(taskTitles, t.Title)
	}

	assessment, err := s.evaluator.EvaluateTrend(ctx, logs)
	if err != nil {
		// Risk scoring must never block a handover.
		s.logger.Warn("Trend risk evaluation failed",
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		assessment = &risk.Assessment{Level: risk.LevelLow, Justification: "Risk evaluation unavailable."}
	}

	return &domain.HandoverContent{
		SleepQuality:      dominantLabel(sleepLabels),
		MealsSummary:      mealsSummary(mealLabels),
		MoodTrend:         moods,
		Incidents:         incidents,
		PendingTasks:      taskTitles,
		RiskLevel:         assessment.Level,
		RiskJustification: assessment.Justification,
	}, nil
}

// dominantLabel returns the statistical mode, first-seen label winning
// ties, or the "No Data" sentinel for an empty window.
func dominantLabel(labels []string) string {
	if len(labels) == 0 {
		return "No Data"
	}
	counts := map[string]int{}
	best := labels[0]
	for _, l := range labels {
		counts[l]++
		if counts[l] > counts[best] {
			best = l
		}
	}
	return best
}

// mealsSummary renders compliance as "k/n taken".
func mealsSummary(labels []string) string {
	taken := 0
	for _, l := range labels {
		if strings.EqualFold(l, "taken") {
			taken++
		}
	}
	return fmt.Sprintf("%d/%d taken", taken, len(labels))
}

func (s *handoverService) invalidate(ctx context.Context, shiftID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, handoverCacheKey(shiftID)); err != nil {
		s.logger.Debug("Handover cache invalidation failed",
			zap.String("shift_id", shiftID),
			zap.Error(err),
		)
	}
}
