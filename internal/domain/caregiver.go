package domain

import "time"

// Caregiver 护理人员领域模型（对应 caregivers 表）
type Caregiver struct {
	CaregiverID string    `db:"caregiver_id"` // UUID, PRIMARY KEY
	Name        string    `db:"name"`         // VARCHAR(100), NOT NULL
	Email       string    `db:"email"`        // VARCHAR(120), NOT NULL, UNIQUE
	Role        string    `db:"role"`         // VARCHAR(50), NOT NULL
	CreatedAt   time.Time `db:"created_at"`   // TIMESTAMPTZ, NOT NULL
}
