// Package dbtest opens throwaway SQLite stores for tests in other packages.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/db"
	"cafeteria-meals/internal/model"

	"github.com/stretchr/testify/require"
)

// NewRepository migrates a fresh SQLite file under t.TempDir.
func NewRepository(t *testing.T) (db.Repository, *sql.DB) {
	t.Helper()

	conn, err := sql.Open(config.DriverSQLite, config.SQLiteDSN(filepath.Join(t.TempDir(), "meals.db")))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	repo := db.NewRepository(conn, db.DialectSQLite)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo, conn
}

func Student(code, grade string, plan model.MealPlan) model.StudentRow {
	return model.StudentRow{Code: code, Name: "Student " + code, Grade: grade, MealPlan: plan}
}

func SeedStudents(t *testing.T, repo db.Repository, rows ...model.StudentRow) {
	t.Helper()
	require.NoError(t, repo.UpsertStudents(context.Background(), rows, time.Now()))
}

func Validate(t *testing.T, repo db.Repository, code string, day model.Date, at time.Time, slot model.MealSlot) int64 {
	t.Helper()
	id, err := repo.InsertValidated(context.Background(), code, day, at, slot)
	require.NoError(t, err)
	return id
}
