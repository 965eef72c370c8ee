package excel

import (
	"bytes"
	"context"
	"testing"

	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParse_CanonicalHeaders(t *testing.T) {
	data := workbook(t, [][]interface{}{
		{"code", "name", "grade", "meal_plan"},
		{"S-001", "Ana Ruiz", "3", "FULL"},
		{"S-002", "Beto Diaz", "k4", "snack_only"},
		{"", "", "", ""},
		{"S-003", "Caro Paz", "10", "NONE"},
	})

	rows, err := NewParser().Parse(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, []model.StudentRow{
		{Code: "S-001", Name: "Ana Ruiz", Grade: "3", MealPlan: model.MealPlanFull},
		{Code: "S-002", Name: "Beto Diaz", Grade: "K4", MealPlan: model.MealPlanSnackOnly},
		{Code: "S-003", Name: "Caro Paz", Grade: "10", MealPlan: model.MealPlanNone},
	}, rows)
}

func TestParse_LegacyHeadersAndLabels(t *testing.T) {
	data := workbook(t, [][]interface{}{
		{"Nombre", "Codigo_Estudiante", "Grado", "Tipo Alimentacion"},
		{"Ana Ruiz", "S001", "5", "Solo Almuerzo"},
		{"Beto Diaz", "S002", "6", "Refrigerio"},
	})

	rows, err := NewParser().Parse(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "S001", rows[0].Code)
	assert.Equal(t, model.MealPlanLunchOnly, rows[0].MealPlan)
	assert.Equal(t, model.MealPlanSnack, rows[1].MealPlan)
}

func TestParse_Errors(t *testing.T) {
	ctx := context.Background()
	parser := NewParser()

	_, err := parser.Parse(ctx, []byte("not a workbook"))
	assert.ErrorIs(t, err, errors.ErrInvalidFileFormat)

	_, err = parser.Parse(ctx, workbook(t, [][]interface{}{{"code", "name", "grade", "meal_plan"}}))
	assert.ErrorIs(t, err, errors.ErrInvalidFileFormat, "header only")

	_, err = parser.Parse(ctx, workbook(t, [][]interface{}{
		{"code", "name", "grade"},
		{"S1", "Ana", "3"},
	}))
	assert.ErrorIs(t, err, errors.ErrInvalidFileFormat, "missing meal_plan column")

	_, err = parser.Parse(ctx, workbook(t, [][]interface{}{
		{"code", "name", "grade", "meal_plan"},
		{"S1", "Ana", "3", "FULL"},
		{"S2", "Beto", "4", "BREAKFAST"},
	}))
	var rowErr errors.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Row)
	var verr errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "meal_plan", verr.Field)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	v := NewValidator()
	good := model.StudentRow{Code: "S-1", Name: "Ana", Grade: "3", MealPlan: model.MealPlanFull}

	assert.NoError(t, v.Validate(ctx, []model.StudentRow{good}))
	assert.ErrorIs(t, v.Validate(ctx, nil), errors.ErrSchemaValidation)

	tests := map[string]model.StudentRow{
		"bad code":  {Code: "S 1", Name: "Ana", Grade: "3", MealPlan: model.MealPlanFull},
		"no name":   {Code: "S1", Name: "", Grade: "3", MealPlan: model.MealPlanFull},
		"bad grade": {Code: "S1", Name: "Ana", Grade: "3rd grade", MealPlan: model.MealPlanFull},
		"bad plan":  {Code: "S1", Name: "Ana", Grade: "3", MealPlan: model.MealPlan("X")},
	}
	for name, row := range tests {
		t.Run(name, func(t *testing.T) {
			var rowErr errors.RowError
			require.ErrorAs(t, v.Validate(ctx, []model.StudentRow{row}), &rowErr)
			assert.Equal(t, 2, rowErr.Row)
		})
	}

	err := v.Validate(ctx, []model.StudentRow{good, good})
	var rowErr errors.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Row)
	assert.Contains(t, err.Error(), "duplicate of row 2")
}

func TestWriteEventsEmpty(t *testing.T) {
	data, err := WriteEvents(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Events")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	strategy := NewRosterStrategy()

	rows, err := Load(ctx, strategy, workbook(t, [][]interface{}{
		{"code", "name", "grade", "meal_plan"},
		{"S-1", "Ana", "3", "LUNCH"},
	}))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = Load(ctx, strategy, workbook(t, [][]interface{}{
		{"code", "name", "grade", "meal_plan"},
		{"S-1", "Ana", "3", "LUNCH"},
		{"S-1", "Ana again", "3", "LUNCH"},
	}))
	var rowErr errors.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Row)
}
