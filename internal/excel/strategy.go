package excel

import (
	"context"

	"cafeteria-meals/internal/model"
)

// ParsingStrategy turns an uploaded roster into directory rows.
type ParsingStrategy interface {
	Parse(ctx context.Context, data []byte) ([]model.StudentRow, error)
	Validate(ctx context.Context, students []model.StudentRow) error
}

type rosterStrategy struct {
	parser    *Parser
	validator *Validator
}

// NewRosterStrategy reads the first sheet of an XLSX roster.
func NewRosterStrategy() ParsingStrategy {
	return rosterStrategy{parser: NewParser(), validator: NewValidator()}
}

func (s rosterStrategy) Parse(ctx context.Context, data []byte) ([]model.StudentRow, error) {
	return s.parser.Parse(ctx, data)
}

func (s rosterStrategy) Validate(ctx context.Context, students []model.StudentRow) error {
	return s.validator.Validate(ctx, students)
}

// Load parses and validates in one step, returning rows only when the whole
// roster is acceptable.
func Load(ctx context.Context, s ParsingStrategy, data []byte) ([]model.StudentRow, error) {
	students, err := s.Parse(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(ctx, students); err != nil {
		return nil, err
	}
	return students, nil
}
