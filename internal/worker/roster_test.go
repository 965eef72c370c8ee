package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"cafeteria-meals/internal/db/dbtest"
	"cafeteria-meals/internal/excel"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStorage) Upload(_ context.Context, key string, data io.ReadSeeker) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memoryStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func rosterWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestRosterWorker_ImportsRoster(t *testing.T) {
	repo, _ := dbtest.NewRepository(t)
	ctx := context.Background()

	store := &memoryStorage{objects: map[string][]byte{
		"rosters/ok.xlsx": rosterWorkbook(t, [][]interface{}{
			{"code", "name", "grade", "meal_plan"},
			{"S1", "Ana", "3", "FULL"},
			{"S2", "Beto", "K4", "SNACK"},
		}),
	}}

	file, err := repo.CreateRosterFile(ctx, "rosters/ok.xlsx", time.Now())
	require.NoError(t, err)

	w := &RosterWorker{repo: repo, storage: store, parser: excel.NewRosterStrategy(), log: logger.Get()}
	require.NoError(t, w.processFile(ctx, model.IngestionJob{FileID: file.ID, S3Path: "rosters/ok.xlsx"}))

	got, err := repo.GetRosterFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FileStatusParsedOK, got.Status)
	assert.Equal(t, 2, got.RowCount)

	s, err := repo.GetStudent(ctx, "S2")
	require.NoError(t, err)
	assert.Equal(t, model.MealPlanSnack, s.MealPlan)
}

func TestRosterWorker_MarksFailure(t *testing.T) {
	repo, _ := dbtest.NewRepository(t)
	ctx := context.Background()

	store := &memoryStorage{objects: map[string][]byte{
		"rosters/bad.xlsx": rosterWorkbook(t, [][]interface{}{
			{"code", "name", "grade", "meal_plan"},
			{"S1", "Ana", "3", "FULL"},
			{"S2", "Beto", "4", "DINNER"},
		}),
	}}
	w := &RosterWorker{repo: repo, storage: store, parser: excel.NewRosterStrategy(), log: logger.Get()}

	for _, path := range []string{"rosters/bad.xlsx", "rosters/missing.xlsx"} {
		file, err := repo.CreateRosterFile(ctx, path, time.Now())
		require.NoError(t, err)

		assert.Error(t, w.processFile(ctx, model.IngestionJob{FileID: file.ID, S3Path: path}))

		got, err := repo.GetRosterFile(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, model.FileStatusParsedFail, got.Status, path)
		require.NotNil(t, got.ErrorMessage)
	}

	total, err := repo.CountStudents(ctx)
	require.NoError(t, err)
	assert.Zero(t, total, "a failed roster writes no students")
}
