// Package risk evaluates behavioral trend risk over a window of
// routine-log entries. The scheduler treats the evaluator as a black
// box: handover generation takes the level and justification verbatim.
package risk

import (
	"context"

	"careshift/internal/domain"
)

const (
	LevelLow    = "Low"
	LevelMedium = "Medium"
	LevelHigh   = "High"
)

// Assessment 趋势风险评估结果
type Assessment struct {
	Level         string   `json:"level"`
	Score         float64  `json:"score"`
	Justification string   `json:"justification"`
	Details       []string `json:"details,omitempty"`
}

// Evaluator scores a recipient's recent logs. Implementations must
// tolerate an empty log list and return a stable low-risk result.
type Evaluator interface {
	EvaluateTrend(ctx context.Context, logs []domain.RoutineLog) (*Assessment, error)
}
