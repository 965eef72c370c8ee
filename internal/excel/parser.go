package excel

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// headerAliases maps accepted header labels to the canonical column.
// Rosters from the previous enrollment system use Spanish headers.
var headerAliases = map[string]string{
	"code":              "code",
	"student_code":      "code",
	"codigo_estudiante": "code",
	"name":              "name",
	"nombre":            "name",
	"grade":             "grade",
	"grado":             "grade",
	"meal_plan":         "meal_plan",
	"plan":              "meal_plan",
	"tipo_alimentacion": "meal_plan",
}

var requiredColumns = []string{"code", "name", "grade", "meal_plan"}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(ctx context.Context, data []byte) ([]model.StudentRow, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidFileFormat, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrInvalidFileFormat
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	if len(rows) < 2 { // Header + at least one data row
		return nil, errors.ErrInvalidFileFormat
	}

	columnMap := make(map[string]int)
	for i, col := range rows[0] {
		if canonical, ok := headerAliases[normalizeHeader(col)]; ok {
			if _, seen := columnMap[canonical]; !seen {
				columnMap[canonical] = i
			}
		}
	}

	for _, col := range requiredColumns {
		if _, exists := columnMap[col]; !exists {
			return nil, fmt.Errorf("%w: missing required column: %s", errors.ErrInvalidFileFormat, col)
		}
	}

	var students []model.StudentRow
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}

		student, err := p.parseRow(row, columnMap)
		if err != nil {
			return nil, errors.RowError{Row: rowNum, Err: err}
		}

		students = append(students, *student)
	}

	return students, nil
}

func (p *Parser) parseRow(row []string, columnMap map[string]int) (*model.StudentRow, error) {
	getValue := func(colName string) string {
		if idx, exists := columnMap[colName]; exists && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	code := getValue("code")
	if code == "" {
		return nil, errors.ValidationError{Field: "code", Value: code, Message: "code is required"}
	}

	planLabel := getValue("meal_plan")
	plan, ok := model.ParseMealPlan(planLabel)
	if !ok {
		return nil, errors.ValidationError{
			Field:   "meal_plan",
			Value:   planLabel,
			Message: errors.ErrInvalidMealPlan.Error(),
		}
	}

	return &model.StudentRow{
		Code:     code,
		Name:     getValue("name"),
		Grade:    strings.ToUpper(getValue("grade")),
		MealPlan: plan,
	}, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	return strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u").Replace(h)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
