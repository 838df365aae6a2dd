package risk

import (
	"context"
	"fmt"
	"math"
	"strings"

	"careshift/internal/domain"
)

// RuleEvaluator is the built-in scoring engine: each log entry is
// scored on mood, sleep, meals and incident, classified per entry, and
// the trend level is rolled up from the per-entry classifications.
type RuleEvaluator struct{}

func NewRuleEvaluator() *RuleEvaluator { return &RuleEvaluator{} }

var _ Evaluator = (*RuleEvaluator)(nil)

var moodScores = map[string]int{
	"Calm":       0,
	"Happy":      0,
	"Anxious":    2,
	"Irritable":  3,
	"Aggressive": 5,
}

var sleepScores = map[string]int{
	"Good":      0,
	"Disturbed": 1,
	"Poor":      2,
}

var mealScores = map[string]int{
	"taken":   0,
	"reduced": 1,
	"skipped": 2,
}

func scoreLabel(table map[string]int, label string) int {
	if v, ok := table[label]; ok {
		return v
	}
	return 1 // unknown labels carry a small penalty
}

// singleScore classifies one observation.
func singleScore(l domain.RoutineLog) (score int, level string, reasons []string) {
	score = scoreLabel(moodScores, l.Mood) +
		scoreLabel(sleepScores, l.SleepQuality) +
		scoreLabel(mealScores, strings.ToLower(l.Meals))
	if l.IncidentFlag {
		score += 3
	}

	switch {
	case score >= 8:
		level = LevelHigh
	case score >= 4:
		level = LevelMedium
	default:
		level = LevelLow
	}

	if l.Mood != "Calm" && l.Mood != "Happy" {
		reasons = append(reasons, strings.ToLower(l.Mood)+" mood")
	}
	if l.SleepQuality == "Poor" || l.SleepQuality == "Disturbed" {
		reasons = append(reasons, strings.ToLower(l.SleepQuality)+" sleep")
	}
	if m := strings.ToLower(l.Meals); m == "skipped" || m == "reduced" {
		reasons = append(reasons, m+" meals")
	}
	if l.IncidentFlag {
		reasons = append(reasons, "incident reported")
	}
	return score, level, reasons
}

func (e *RuleEvaluator) EvaluateTrend(_ context.Context, logs []domain.RoutineLog) (*Assessment, error) {
	if len(logs) == 0 {
		return &Assessment{
			Level:         LevelLow,
			Score:         0,
			Justification: "No recent logs to analyze.",
		}, nil
	}

	var highCount, mediumCount, totalScore int
	var details []string
	for _, l := range logs {
		score, level, _ := singleScore(l)
		totalScore += score
		switch level {
		case LevelHigh:
			highCount++
			details = append(details, fmt.Sprintf("High risk on %s", l.CreatedAt.Format("2006-01-02")))
		case LevelMedium:
			mediumCount++
		}
	}

	level := LevelLow
	justification := "Stable trend over recent logs."
	switch {
	case highCount >= 2:
		level = LevelHigh
		justification = fmt.Sprintf("Multiple high-risk days (%d) detected recently.", highCount)
	case highCount == 1 || mediumCount >= 3:
		level = LevelMedium
		justification = "Signs of deterioration detected in recent logs."
	}

	avg := float64(totalScore) / float64(len(logs))
	return &Assessment{
		Level:         level,
		Score:         math.Round(avg*100) / 100,
		Justification: justification,
		Details:       details,
	}, nil
}
