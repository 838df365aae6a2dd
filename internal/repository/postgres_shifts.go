package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"careshift/internal/domain"
	"careshift/internal/schedule"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresShiftRepository 班次Repository实现
//
// Every mutating method takes per-resource advisory transaction locks
// (caregiver id, recipient ids) before scanning for overlaps, so the
// conflict check and the insert commit atomically even against
// concurrent writers inserting brand-new rows that row locks alone
// would not see.
type PostgresShiftRepository struct {
	db *sql.DB
}

func NewPostgresShiftRepository(db *sql.DB) *PostgresShiftRepository {
	return &PostgresShiftRepository{db: db}
}

var _ ShiftRepository = (*PostgresShiftRepository)(nil)

const shiftColumns = `
	s.shift_id::text,
	s.shift_kind,
	s.start_time,
	s.end_time,
	s.caregiver_id::text,
	s.status,
	s.created_at,
	COALESCE(array_agg(sr.recipient_id::text) FILTER (WHERE sr.recipient_id IS NOT NULL), '{}')
`

const shiftFromClause = `
	FROM shifts s
	LEFT JOIN shift_recipients sr ON sr.shift_id = s.shift_id
`

func scanShift(row interface{ Scan(...any) error }) (*domain.Shift, error) {
	var s domain.Shift
	var recipients pq.StringArray
	err := row.Scan(
		&s.ShiftID,
		&s.Kind,
		&s.StartTime,
		&s.EndTime,
		&s.CaregiverID,
		&s.RawStatus,
		&s.CreatedAt,
		&recipients,
	)
	if err != nil {
		return nil, err
	}
	s.RecipientIDs = []string(recipients)
	return &s, nil
}

func (r *PostgresShiftRepository) queryShifts(ctx context.Context, q queryer, where string, args ...any) ([]domain.Shift, error) {
	query := `SELECT ` + shiftColumns + shiftFromClause + where + `
		GROUP BY s.shift_id
		ORDER BY s.start_time DESC, s.shift_id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// lockResources serializes writers on the caregiver and recipients.
// IDs are locked in sorted order to keep lock acquisition deadlock-free.
func lockResources(ctx context.Context, tx *sql.Tx, ids []string) error {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	for _, id := range sorted {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresShiftRepository) CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if shift.ShiftID == "" {
		shift.ShiftID = uuid.NewString()
	}
	if shift.RawStatus == "" {
		shift.RawStatus = domain.StatusScheduled
	}
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = time.Now().UTC()
	}
	recipients := dedupe(shift.RecipientIDs)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.WrapStore("CreateShift", err)
	}
	defer tx.Rollback()

	if err := lockResources(ctx, tx, append([]string{shift.CaregiverID}, recipients...)); err != nil {
		return nil, domain.WrapStore("CreateShift", err)
	}

	w := shift.Window()
	open, err := r.queryShifts(ctx, tx,
		`WHERE s.caregiver_id = $1 AND s.status NOT IN ('Completed', 'EmergencyReassigned')`,
		shift.CaregiverID)
	if err != nil {
		return nil, domain.WrapStore("CreateShift", err)
	}
	if err := schedule.CaregiverConflict(open, w, ""); err != nil {
		return nil, err
	}

	for _, rid := range recipients {
		theirs, err := r.openShiftsForRecipient(ctx, tx, rid)
		if err != nil {
			return nil, domain.WrapStore("CreateShift", err)
		}
		if err := schedule.RecipientConflict(theirs, w, ""); err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shifts (shift_id, shift_kind, start_time, end_time, caregiver_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		shift.ShiftID, shift.Kind, shift.StartTime, shift.EndTime,
		shift.CaregiverID, shift.RawStatus, shift.CreatedAt,
	)
	if err != nil {
		return nil, domain.WrapStore("CreateShift", err)
	}
	for _, rid := range recipients {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shift_recipients (shift_id, recipient_id) VALUES ($1, $2)`,
			shift.ShiftID, rid); err != nil {
			return nil, domain.WrapStore("CreateShift", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.WrapStore("CreateShift", err)
	}

	shift.RecipientIDs = recipients
	return &shift, nil
}

func (r *PostgresShiftRepository) openShiftsForRecipient(ctx context.Context, q queryer, recipientID string) ([]domain.Shift, error) {
	return r.queryShifts(ctx, q, `
		WHERE s.status NOT IN ('Completed', 'EmergencyReassigned')
		  AND s.shift_id IN (SELECT shift_id FROM shift_recipients WHERE recipient_id = $1)`,
		recipientID)
}

func (r *PostgresShiftRepository) GetShift(ctx context.Context, shiftID string) (*domain.Shift, error) {
	shifts, err := r.queryShifts(ctx, r.db, `WHERE s.shift_id = $1`, shiftID)
	if err != nil {
		return nil, domain.WrapStore("GetShift", err)
	}
	if len(shifts) == 0 {
		return nil, domain.ErrNotFound
	}
	return &shifts[0], nil
}

func (r *PostgresShiftRepository) ListShifts(ctx context.Context) ([]domain.Shift, error) {
	shifts, err := r.queryShifts(ctx, r.db, ``)
	if err != nil {
		return nil, domain.WrapStore("ListShifts", err)
	}
	return shifts, nil
}

func (r *PostgresShiftRepository) ListByCaregiver(ctx context.Context, caregiverID string) ([]domain.Shift, error) {
	shifts, err := r.queryShifts(ctx, r.db, `WHERE s.caregiver_id = $1`, caregiverID)
	if err != nil {
		return nil, domain.WrapStore("ListByCaregiver", err)
	}
	return shifts, nil
}

func (r *PostgresShiftRepository) ListByRecipient(ctx context.Context, recipientID string) ([]domain.Shift, error) {
	shifts, err := r.queryShifts(ctx, r.db,
		`WHERE s.shift_id IN (SELECT shift_id FROM shift_recipients WHERE recipient_id = $1)`,
		recipientID)
	if err != nil {
		return nil, domain.WrapStore("ListByRecipient", err)
	}
	return shifts, nil
}

func (r *PostgresShiftRepository) AssignRecipients(ctx context.Context, shiftID string, recipientIDs []string) (*domain.Shift, error) {
	recipients := dedupe(recipientIDs)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.WrapStore("AssignRecipients", err)
	}
	defer tx.Rollback()

	if err := lockResources(ctx, tx, recipients); err != nil {
		return nil, domain.WrapStore("AssignRecipients", err)
	}

	shifts, err := r.queryShifts(ctx, tx, `WHERE s.shift_id = $1`, shiftID)
	if err != nil {
		return nil, domain.WrapStore("AssignRecipients", err)
	}
	if len(shifts) == 0 {
		return nil, domain.ErrNotFound
	}
	shift := shifts[0]
	if !shift.Open() {
		return nil, domain.ErrValidation
	}

	// Whole-batch validation before any insert.
	w := shift.Window()
	toAdd := make([]string, 0, len(recipients))
	for _, rid := range recipients {
		if shift.HasRecipient(rid) {
			continue
		}
		theirs, err := r.openShiftsForRecipient(ctx, tx, rid)
		if err != nil {
			return nil, domain.WrapStore("AssignRecipients", err)
		}
		if err := schedule.RecipientConflict(theirs, w, shift.ShiftID); err != nil {
			return nil, err
		}
		toAdd = append(toAdd, rid)
	}

	for _, rid := range toAdd {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shift_recipients (shift_id, recipient_id)
			VALUES ($1, $2)
			ON CONFLICT (shift_id, recipient_id) DO NOTHING`,
			shift.ShiftID, rid); err != nil {
			return nil, domain.WrapStore("AssignRecipients", err)
		}
		shift.RecipientIDs = append(shift.RecipientIDs, rid)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.WrapStore("AssignRecipients", err)
	}
	return &shift, nil
}

func (r *PostgresShiftRepository) CloseShift(ctx context.Context, shiftID string, status domain.ShiftStatus) (*domain.Shift, error) {
	if !status.Terminal() {
		return nil, domain.ErrValidation
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE shifts SET status = $2
		WHERE shift_id = $1 AND status NOT IN ('Completed', 'EmergencyReassigned')`,
		shiftID, status)
	if err != nil {
		return nil, domain.WrapStore("CloseShift", err)
	}

	shift, err := r.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		// Already terminal: idempotent only for the same target status.
		if shift.RawStatus != status {
			return nil, domain.ErrValidation
		}
	}
	return shift, nil
}

func (r *PostgresShiftRepository) ReplaceShift(ctx context.Context, shiftID, newCaregiverID string, now time.Time) (*domain.Shift, *domain.Shift, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, domain.WrapStore("ReplaceShift", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE shifts SET status = 'EmergencyReassigned'
		WHERE shift_id = $1 AND status NOT IN ('Completed', 'EmergencyReassigned')`,
		shiftID)
	if err != nil {
		return nil, nil, domain.WrapStore("ReplaceShift", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish missing from already-terminal.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM shifts WHERE shift_id = $1)`, shiftID).Scan(&exists); err != nil {
			return nil, nil, domain.WrapStore("ReplaceShift", err)
		}
		if !exists {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, domain.ErrValidation
	}

	origs, err := r.queryShifts(ctx, tx, `WHERE s.shift_id = $1`, shiftID)
	if err != nil || len(origs) == 0 {
		if err == nil {
			err = sql.ErrNoRows
		}
		return nil, nil, domain.WrapStore("ReplaceShift", err)
	}
	orig := origs[0]

	succ := domain.Shift{
		ShiftID:      uuid.NewString(),
		Kind:         orig.Kind,
		StartTime:    now,
		EndTime:      orig.EndTime,
		CaregiverID:  newCaregiverID,
		RawStatus:    domain.StatusScheduled,
		RecipientIDs: append([]string(nil), orig.RecipientIDs...),
		CreatedAt:    now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shifts (shift_id, shift_kind, start_time, end_time, caregiver_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		succ.ShiftID, succ.Kind, succ.StartTime, succ.EndTime,
		succ.CaregiverID, succ.RawStatus, succ.CreatedAt,
	)
	if err != nil {
		return nil, nil, domain.WrapStore("ReplaceShift", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shift_recipients (shift_id, recipient_id)
		SELECT $1, recipient_id FROM shift_recipients WHERE shift_id = $2`,
		succ.ShiftID, shiftID)
	if err != nil {
		return nil, nil, domain.WrapStore("ReplaceShift", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, domain.WrapStore("ReplaceShift", err)
	}
	return &orig, &succ, nil
}
