package claims

import (
	"context"
	"fmt"
	"time"

	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"

	"github.com/rs/zerolog"
)

type Store interface {
	GetStudent(ctx context.Context, code string) (*model.Student, error)
	InsertValidated(ctx context.Context, studentCode string, day model.Date, at time.Time, slot model.MealSlot) (int64, error)
	ListEventsForDay(ctx context.Context, day model.Date, studentCode string) ([]model.EventRow, error)
}

// Service records physical meal claims as VALIDATED events. Eligibility is
// the student's plan only; excluded grades may still claim.
type Service struct {
	store Store
	loc   *time.Location
	log   zerolog.Logger
}

func NewService(store Store, loc *time.Location) *Service {
	return &Service{store: store, loc: loc, log: logger.Component("claims")}
}

// Check runs the claim rules without writing, so the API can reject a
// claim before it is queued. The unique key still decides races.
func (s *Service) Check(ctx context.Context, studentCode string, slot model.MealSlot, at time.Time) error {
	student, err := s.eligible(ctx, studentCode, slot)
	if err != nil {
		return err
	}

	events, err := s.store.ListEventsForDay(ctx, model.DateOf(at, s.loc), student.Code)
	if err != nil {
		return err
	}
	for _, e := range events {
		if e.Slot == slot {
			return fmt.Errorf("%w: %s already has a %s %s event", errors.ErrDuplicateEvent, student.Code, e.Status, slot)
		}
	}
	return nil
}

// Record writes the claim. A second claim for the same student, day and
// slot returns ErrDuplicateEvent and leaves the first one untouched.
func (s *Service) Record(ctx context.Context, job model.ClaimJob) (*model.ValidationEvent, error) {
	student, err := s.eligible(ctx, job.StudentCode, job.Slot)
	if err != nil {
		return nil, err
	}

	claimedAt := job.ClaimedAt
	if claimedAt.IsZero() {
		claimedAt = time.Now()
	}
	day := model.DateOf(claimedAt, s.loc)

	id, err := s.store.InsertValidated(ctx, student.Code, day, claimedAt, job.Slot)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", job.RequestID).
		Str("student_code", student.Code).
		Str("slot", string(job.Slot)).
		Str("date", day.String()).
		Msg("Claim recorded")

	return &model.ValidationEvent{
		ID:          id,
		StudentCode: student.Code,
		Date:        day,
		Timestamp:   claimedAt,
		Slot:        job.Slot,
		Status:      model.EventStatusValidated,
	}, nil
}

func (s *Service) eligible(ctx context.Context, studentCode string, slot model.MealSlot) (*model.Student, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidSlot, slot)
	}

	student, err := s.store.GetStudent(ctx, studentCode)
	if err != nil {
		return nil, err
	}

	if !student.MealPlan.Covers(slot) {
		return nil, fmt.Errorf("%w: %s has plan %s, claimed %s",
			errors.ErrNotEligible, student.Code, student.MealPlan, slot)
	}
	return student, nil
}
