package domain

import "time"

// Recipient 受照护者领域模型（对应 recipients 表）
// Owned by the coordination platform's CRUD layer; the scheduler only
// reads it for availability and coverage checks.
type Recipient struct {
	RecipientID  string    `db:"recipient_id"`  // UUID, PRIMARY KEY
	FullName     string    `db:"full_name"`     // VARCHAR(100), NOT NULL
	AgeGroup     string    `db:"age_group"`     // VARCHAR(50), NOT NULL
	SupportLevel string    `db:"support_level"` // VARCHAR(50), NOT NULL (Low/Medium/High)
	BaselineMood string    `db:"baseline_mood"` // VARCHAR(50), NOT NULL
	InCare       bool      `db:"in_care"`       // BOOLEAN, NOT NULL, DEFAULT TRUE
	CreatedAt    time.Time `db:"created_at"`    // TIMESTAMPTZ, NOT NULL
}
