package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cafeteria-meals/internal/model"
	"cafeteria-meals/pkg/errors"

	"github.com/gin-gonic/gin"
)

// parseEventFilter reads start_date, end_date, student_code, slot and
// status from the query string. Unknown enum values are rejected.
func parseEventFilter(c *gin.Context) (model.EventFilter, error) {
	var filter model.EventFilter

	if v := strings.TrimSpace(c.Query("start_date")); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return filter, fmt.Errorf("%w: start_date %q", errors.ErrInvalidDate, v)
		}
		filter.StartDate = &d
	}
	if v := strings.TrimSpace(c.Query("end_date")); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return filter, fmt.Errorf("%w: end_date %q", errors.ErrInvalidDate, v)
		}
		filter.EndDate = &d
	}

	filter.StudentCode = strings.TrimSpace(c.Query("student_code"))

	if v := strings.TrimSpace(c.Query("slot")); v != "" {
		slot, ok := model.ParseMealSlot(v)
		if !ok {
			return filter, fmt.Errorf("%w: %q", errors.ErrInvalidSlot, v)
		}
		filter.Slot = &slot
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		status, ok := model.ParseEventStatus(v)
		if !ok {
			return filter, fmt.Errorf("%w: %q", errors.ErrInvalidStatus, v)
		}
		filter.Status = &status
	}

	return filter, nil
}

// parsePagination returns 1-based page and size. Bad values become zero and
// are defaulted by the query layer.
func parsePagination(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 0
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil {
		size = 0
	}
	return page, size
}

func parseMonth(c *gin.Context) (int, time.Month, *model.EventStatus, error) {
	var year, month int
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2000 || n > 9999 {
			return 0, 0, nil, errors.ValidationError{Field: "year", Value: v, Message: "must be a four digit year"}
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return 0, 0, nil, errors.ValidationError{Field: "month", Value: v, Message: "must be between 1 and 12"}
		}
		month = n
	}

	var status *model.EventStatus
	if v := c.Query("status"); v != "" {
		s, ok := model.ParseEventStatus(v)
		if !ok {
			return 0, 0, nil, fmt.Errorf("%w: %q", errors.ErrInvalidStatus, v)
		}
		status = &s
	}

	return year, time.Month(month), status, nil
}
