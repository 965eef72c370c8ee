package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var ErrNotFound = stderrors.New("object not found")

// Storage holds uploaded roster spreadsheets.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, key string, data io.ReadSeeker) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RosterKey names an uploaded roster under its upload day, e.g.
// rosters/2026-10-14/<id>-students.xlsx.
func RosterKey(day time.Time, id, filename string) string {
	base := strings.ReplaceAll(path.Base(strings.ReplaceAll(filename, "\\", "/")), " ", "_")
	return fmt.Sprintf("rosters/%s/%s-%s", day.Format("2006-01-02"), id, base)
}
