package domain

import "time"

// RoutineLog 日常观察记录领域模型（对应 routine_logs 表）
// One timestamped observation of a recipient, written by a caregiver.
type RoutineLog struct {
	LogID       string `db:"log_id"`       // UUID, PRIMARY KEY
	RecipientID string `db:"recipient_id"` // UUID, NOT NULL, FK to recipients

	SleepQuality    string `db:"sleep_quality"`    // VARCHAR(50), NOT NULL (Good/Disturbed/Poor)
	Meals           string `db:"meals"`            // VARCHAR(50), NOT NULL (taken/skipped)
	MedicationGiven bool   `db:"medication_given"` // BOOLEAN, NOT NULL
	Mood            string `db:"mood"`             // VARCHAR(50), NOT NULL (Calm/Happy/Anxious/Irritable/Aggressive)
	ActivityDone    bool   `db:"activity_done"`    // BOOLEAN, NOT NULL
	IncidentFlag    bool   `db:"incident_flag"`    // BOOLEAN, NOT NULL
	Notes           string `db:"notes"`            // TEXT, nullable

	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
	CreatedBy string    `db:"created_by"` // UUID, NOT NULL, FK to caregivers
}
