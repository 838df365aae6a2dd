package domain

import (
	"errors"
	"fmt"
)

// Error classes of the scheduling core. Handlers map these onto HTTP
// statuses; everything else is treated as a store failure.
var (
	// ErrNotFound: referenced shift/caregiver/recipient absent.
	ErrNotFound = errors.New("not found")

	// ErrValidation: missing or malformed input, rejected before any
	// store access.
	ErrValidation = errors.New("validation failed")
)

// ConflictError 排班冲突（违反不可重复预订约束）
// Carries the identity of the colliding shift so the caller can pick a
// different window or caregiver. Never auto-retried.
type ConflictError struct {
	ShiftID  string // the already-scheduled shift that collides
	Resource string // "caregiver" or "recipient"
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already booked by shift %s during this period", e.Resource, e.ShiftID)
}

// IsConflict reports whether err is a booking conflict and returns it.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// StoreError 存储层瞬态错误
// The whole operation aborts with no partial commit; this is the only
// class the caller may retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure in %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// WrapStore tags a backing-store failure with the operation it broke.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
