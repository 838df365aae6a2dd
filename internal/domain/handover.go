package domain

import "time"

// HandoverContent 交接报告内容（handover_summaries.content JSONB）
type HandoverContent struct {
	// Dominant sleep-quality label over the observation window,
	// "No Data" when the window holds no logs.
	SleepQuality string `json:"sleep_quality"`

	// Meal compliance as a "k/n taken" fraction.
	MealsSummary string `json:"meals_summary"`

	// Chronological mood labels.
	MoodTrend []string `json:"mood_trend"`

	// Free-text notes from incident-flagged entries, in log order.
	Incidents []string `json:"incidents"`

	// Titles of the recipient's pending tasks.
	PendingTasks []string `json:"pending_tasks"`

	// Verbatim output of the trend-risk evaluator.
	RiskLevel         string `json:"risk_level"`
	RiskJustification string `json:"risk_justification"`
}

// HandoverSummary 交接报告领域模型（对应 handover_summaries 表）
// At most one row per (shift, recipient); regeneration overwrites.
type HandoverSummary struct {
	SummaryID   string          `db:"summary_id" json:"summary_id"`     // UUID, PRIMARY KEY
	ShiftID     string          `db:"shift_id" json:"shift_id"`         // UUID, NOT NULL, UNIQUE(shift_id, recipient_id)
	RecipientID string          `db:"recipient_id" json:"recipient_id"` // UUID, NOT NULL
	Content     HandoverContent `db:"content" json:"content"`           // JSONB, NOT NULL
	GeneratedAt time.Time       `db:"generated_at" json:"generated_at"` // TIMESTAMPTZ, NOT NULL
}
