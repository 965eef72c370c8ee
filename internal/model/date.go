package model

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day in the school's local timezone, formatted
// YYYY-MM-DD. It is bound to queries as text so MySQL and SQLite compare it
// the same way.
type Date string

func DateOf(t time.Time, loc *time.Location) Date {
	return Date(t.In(loc).Format(DateLayout))
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(t.Format(DateLayout)), nil
}

func (d Date) String() string {
	return string(d)
}

func (d Date) Time(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, string(d), loc)
}

func (d Date) Before(o Date) bool {
	return d < o
}

func (d Date) After(o Date) bool {
	return d > o
}

// MonthRange returns the first and last day of a calendar month.
func MonthRange(year int, month time.Month) (Date, Date) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return Date(first.Format(DateLayout)), Date(last.Format(DateLayout))
}
