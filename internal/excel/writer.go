package excel

import (
	"bytes"
	"fmt"
	"time"

	"cafeteria-meals/internal/model"

	"github.com/xuri/excelize/v2"
)

const eventsSheet = "Events"

var eventHeaders = []interface{}{
	"ID", "Student Code", "Name", "Grade", "Meal Type", "Timestamp", "Slot", "Status",
}

// WriteEvents renders event rows as a single-sheet workbook. Timestamps are
// written as local wall-clock text in loc.
func WriteEvents(rows []model.EventRow, loc *time.Location) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), eventsSheet); err != nil {
		return nil, err
	}

	stream, err := file.NewStreamWriter(eventsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream writer: %w", err)
	}

	if err := stream.SetRow("A1", eventHeaders); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			row.ID,
			row.StudentCode,
			row.Name,
			row.Grade,
			string(row.MealType),
			row.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
			string(row.Slot),
			string(row.Status),
		}
		if err := stream.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := stream.Flush(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
