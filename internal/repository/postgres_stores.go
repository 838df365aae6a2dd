package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"careshift/internal/domain"
)

// Postgres implementations of the collaborator stores. Plain
// database/sql in the read paths; ownership of the rows lives with the
// platform's CRUD layer, the scheduler only queries them.

// --- Caregivers ---

type PostgresCaregiverStore struct {
	db *sql.DB
}

func NewPostgresCaregiverStore(db *sql.DB) *PostgresCaregiverStore {
	return &PostgresCaregiverStore{db: db}
}

var _ CaregiverStore = (*PostgresCaregiverStore)(nil)

func (s *PostgresCaregiverStore) GetCaregiver(ctx context.Context, caregiverID string) (*domain.Caregiver, error) {
	query := `
		SELECT caregiver_id::text, name, email, role, created_at
		FROM caregivers
		WHERE caregiver_id = $1
	`
	var c domain.Caregiver
	err := s.db.QueryRowContext(ctx, query, caregiverID).Scan(
		&c.CaregiverID, &c.Name, &c.Email, &c.Role, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.WrapStore("GetCaregiver", err)
	}
	return &c, nil
}

// --- Recipients ---

type PostgresRecipientStore struct {
	db *sql.DB
}

func NewPostgresRecipientStore(db *sql.DB) *PostgresRecipientStore {
	return &PostgresRecipientStore{db: db}
}

var _ RecipientStore = (*PostgresRecipientStore)(nil)

func (s *PostgresRecipientStore) GetRecipient(ctx context.Context, recipientID string) (*domain.Recipient, error) {
	query := `
		SELECT recipient_id::text, full_name, age_group, support_level, baseline_mood, in_care, created_at
		FROM recipients
		WHERE recipient_id = $1
	`
	var r domain.Recipient
	err := s.db.QueryRowContext(ctx, query, recipientID).Scan(
		&r.RecipientID, &r.FullName, &r.AgeGroup, &r.SupportLevel,
		&r.BaselineMood, &r.InCare, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.WrapStore("GetRecipient", err)
	}
	return &r, nil
}

func (s *PostgresRecipientStore) ListActiveRecipients(ctx context.Context) ([]domain.Recipient, error) {
	query := `
		SELECT recipient_id::text, full_name, age_group, support_level, baseline_mood, in_care, created_at
		FROM recipients
		WHERE in_care = TRUE
		ORDER BY recipient_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.WrapStore("ListActiveRecipients", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		if err := rows.Scan(
			&r.RecipientID, &r.FullName, &r.AgeGroup, &r.SupportLevel,
			&r.BaselineMood, &r.InCare, &r.CreatedAt,
		); err != nil {
			return nil, domain.WrapStore("ListActiveRecipients", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore("ListActiveRecipients", err)
	}
	return out, nil
}

// --- Routine logs ---

type PostgresRoutineLogStore struct {
	db *sql.DB
}

func NewPostgresRoutineLogStore(db *sql.DB) *PostgresRoutineLogStore {
	return &PostgresRoutineLogStore{db: db}
}

var _ RoutineLogStore = (*PostgresRoutineLogStore)(nil)

func (s *PostgresRoutineLogStore) QueryLogs(ctx context.Context, recipientID string, from, to time.Time) ([]domain.RoutineLog, error) {
	query := `
		SELECT log_id::text, recipient_id::text, sleep_quality, meals,
		       medication_given, mood, activity_done, incident_flag,
		       COALESCE(notes, ''), created_at, created_by::text
		FROM routine_logs
		WHERE recipient_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, recipientID, from, to)
	if err != nil {
		return nil, domain.WrapStore("QueryLogs", err)
	}
	defer rows.Close()

	var out []domain.RoutineLog
	for rows.Next() {
		var l domain.RoutineLog
		if err := rows.Scan(
			&l.LogID, &l.RecipientID, &l.SleepQuality, &l.Meals,
			&l.MedicationGiven, &l.Mood, &l.ActivityDone, &l.IncidentFlag,
			&l.Notes, &l.CreatedAt, &l.CreatedBy,
		); err != nil {
			return nil, domain.WrapStore("QueryLogs", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore("QueryLogs", err)
	}
	return out, nil
}

// --- Tasks ---

type PostgresTaskStore struct {
	db *sql.DB
}

func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

var _ TaskStore = (*PostgresTaskStore)(nil)

func (s *PostgresTaskStore) PendingTasks(ctx context.Context, recipientID string) ([]domain.Task, error) {
	query := `
		SELECT task_id::text, recipient_id::text, title, status, created_at
		FROM tasks
		WHERE recipient_id = $1 AND status = $2
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, recipientID, domain.TaskStatusPending)
	if err != nil {
		return nil, domain.WrapStore("PendingTasks", err)
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.TaskID, &t.RecipientID, &t.Title, &t.Status, &t.CreatedAt); err != nil {
			return nil, domain.WrapStore("PendingTasks", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore("PendingTasks", err)
	}
	return out, nil
}
