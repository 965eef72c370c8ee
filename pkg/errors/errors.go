package errors

import (
	"errors"
	"fmt"
)

var (
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrDuplicateEvent    = errors.New("event already recorded for student, date and slot")
	ErrStudentNotFound   = errors.New("student not found")
	ErrNotEligible       = errors.New("student is not eligible for meal slot")
	ErrInvalidSlot       = errors.New("invalid meal slot")
	ErrInvalidStatus     = errors.New("invalid event status")
	ErrInvalidMealPlan   = errors.New("invalid meal plan")
	ErrInvalidDate       = errors.New("invalid date")
	ErrBackfillDisabled  = errors.New("reconciliation of past dates is disabled")
	ErrFutureDate        = errors.New("cannot reconcile a future date")
	ErrNoSearchCriteria  = errors.New("at least one search criterion is required")
	ErrNoRecords         = errors.New("no records for the given filters")
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrSchemaValidation  = errors.New("schema validation failed")
)

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

// RowError ties a validation failure to a spreadsheet row.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err.Error())
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Unavailable wraps a driver failure so callers can match ErrStoreUnavailable
// while keeping the original cause in the chain.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
