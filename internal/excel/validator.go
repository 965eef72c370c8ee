package excel

import (
	"context"
	"fmt"
	"regexp"

	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"
)

type Validator struct {
	codeRegex  *regexp.Regexp
	gradeRegex *regexp.Regexp
}

func NewValidator() *Validator {
	return &Validator{
		codeRegex:  regexp.MustCompile(`^[A-Za-z0-9-]{1,32}$`),
		gradeRegex: regexp.MustCompile(`^[A-Z0-9]{1,16}$`),
	}
}

func (v *Validator) Validate(ctx context.Context, students []model.StudentRow) error {
	if len(students) == 0 {
		return errors.ErrSchemaValidation
	}

	seen := make(map[string]int, len(students))
	for i, student := range students {
		rowNum := i + 2
		if err := v.validateStudent(student); err != nil {
			return errors.RowError{Row: rowNum, Err: err}
		}
		if first, dup := seen[student.Code]; dup {
			return errors.RowError{Row: rowNum, Err: errors.ValidationError{
				Field:   "code",
				Value:   student.Code,
				Message: fmt.Sprintf("duplicate of row %d", first),
			}}
		}
		seen[student.Code] = rowNum
	}

	return nil
}

func (v *Validator) validateStudent(student model.StudentRow) error {
	if !v.codeRegex.MatchString(student.Code) {
		return errors.ValidationError{
			Field:   "code",
			Value:   student.Code,
			Message: "must be 1-32 letters, digits or dashes",
		}
	}

	if len(student.Name) == 0 || len(student.Name) > 255 {
		return errors.ValidationError{
			Field:   "name",
			Value:   student.Name,
			Message: "name must be 1-255 characters",
		}
	}

	if !v.gradeRegex.MatchString(student.Grade) {
		return errors.ValidationError{
			Field:   "grade",
			Value:   student.Grade,
			Message: "must be 1-16 letters or digits",
		}
	}

	if !student.MealPlan.Valid() {
		return errors.ValidationError{
			Field:   "meal_plan",
			Value:   student.MealPlan,
			Message: errors.ErrInvalidMealPlan.Error(),
		}
	}

	return nil
}
