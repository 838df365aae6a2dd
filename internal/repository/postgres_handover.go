package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"careshift/internal/domain"

	"github.com/google/uuid"
)

// PostgresHandoverRepository 交接报告Repository实现
// The (shift_id, recipient_id) unique index plus ON CONFLICT turns
// regeneration into an overwrite instead of a duplicate row.
type PostgresHandoverRepository struct {
	db *sql.DB
}

func NewPostgresHandoverRepository(db *sql.DB) *PostgresHandoverRepository {
	return &PostgresHandoverRepository{db: db}
}

var _ HandoverRepository = (*PostgresHandoverRepository)(nil)

func (r *PostgresHandoverRepository) UpsertSummary(ctx context.Context, summary domain.HandoverSummary) (*domain.HandoverSummary, error) {
	if summary.SummaryID == "" {
		summary.SummaryID = uuid.NewString()
	}
	if summary.GeneratedAt.IsZero() {
		summary.GeneratedAt = time.Now().UTC()
	}

	content, err := json.Marshal(summary.Content)
	if err != nil {
		return nil, domain.WrapStore("UpsertSummary", err)
	}

	query := `
		INSERT INTO handover_summaries (summary_id, shift_id, recipient_id, content, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shift_id, recipient_id)
		DO UPDATE SET content = EXCLUDED.content,
		              generated_at = EXCLUDED.generated_at
		RETURNING summary_id::text
	`
	err = r.db.QueryRowContext(ctx, query,
		summary.SummaryID, summary.ShiftID, summary.RecipientID,
		content, summary.GeneratedAt,
	).Scan(&summary.SummaryID)
	if err != nil {
		return nil, domain.WrapStore("UpsertSummary", err)
	}
	return &summary, nil
}

func (r *PostgresHandoverRepository) ListByShift(ctx context.Context, shiftID string) ([]domain.HandoverSummary, error) {
	query := `
		SELECT summary_id::text, shift_id::text, recipient_id::text, content, generated_at
		FROM handover_summaries
		WHERE shift_id = $1
		ORDER BY recipient_id
	`
	rows, err := r.db.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, domain.WrapStore("ListByShift", err)
	}
	defer rows.Close()

	var out []domain.HandoverSummary
	for rows.Next() {
		var s domain.HandoverSummary
		var content []byte
		if err := rows.Scan(&s.SummaryID, &s.ShiftID, &s.RecipientID, &content, &s.GeneratedAt); err != nil {
			return nil, domain.WrapStore("ListByShift", err)
		}
		if err := json.Unmarshal(content, &s.Content); err != nil {
			return nil, domain.WrapStore("ListByShift", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore("ListByShift", err)
	}
	return out, nil
}
