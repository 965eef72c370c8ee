package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"
)

var ErrRosterFileNotFound = stderrors.New("roster file not found")

func (r *repository) CreateRosterFile(ctx context.Context, s3Path string, at time.Time) (*model.RosterFile, error) {
	query := `INSERT INTO roster_files (s3_path, status, row_count, created_at, updated_at) VALUES (?, ?, 0, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, s3Path, string(model.FileStatusUploaded), at, at)
	if err != nil {
		return nil, errors.Unavailable("create roster file", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Unavailable("create roster file", err)
	}

	return &model.RosterFile{
		ID:        id,
		S3Path:    s3Path,
		Status:    model.FileStatusUploaded,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

func (r *repository) GetRosterFile(ctx context.Context, fileID int64) (*model.RosterFile, error) {
	query := `SELECT id, s3_path, status, error_message, row_count, created_at, updated_at FROM roster_files WHERE id = ?`

	var file model.RosterFile
	err := r.db.QueryRowContext(ctx, query, fileID).Scan(
		&file.ID, &file.S3Path, &file.Status, &file.ErrorMessage,
		&file.RowCount, &file.CreatedAt, &file.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrRosterFileNotFound
		}
		return nil, errors.Unavailable("get roster file", err)
	}

	return &file, nil
}

func (r *repository) UpdateRosterFileStatus(ctx context.Context, fileID int64, status model.FileStatus, rowCount int, errorMessage *string, at time.Time) error {
	query := `UPDATE roster_files SET status = ?, row_count = ?, error_message = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, string(status), rowCount, errorMessage, at, fileID)
	if err != nil {
		return errors.Unavailable("update roster file", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrRosterFileNotFound, fileID)
	}
	return nil
}
