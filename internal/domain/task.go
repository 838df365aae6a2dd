package domain

import "time"

// Task 照护任务领域模型（对应 tasks 表）
// Task CRUD is owned elsewhere; the scheduler reads pending tasks
// when building handover summaries.
type Task struct {
	TaskID      string    `db:"task_id"`      // UUID, PRIMARY KEY
	RecipientID string    `db:"recipient_id"` // UUID, NOT NULL, FK to recipients
	Title       string    `db:"title"`        // VARCHAR(200), NOT NULL
	Status      string    `db:"status"`       // VARCHAR(20), NOT NULL (pending/done)
	CreatedAt   time.Time `db:"created_at"`   // TIMESTAMPTZ, NOT NULL
}

// TaskStatusPending marks work still owed to a recipient.
const TaskStatusPending = "pending"
