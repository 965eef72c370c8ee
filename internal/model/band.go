package model

import (
	"strconv"
	"strings"
)

type GradeBand string

const (
	GradeBandElementary GradeBand = "elementary"
	GradeBandHighSchool GradeBand = "high_school"
)

// BandOf classifies a grade. Only grades that parse as integers 1-5 or 6-12
// belong to a band; kindergarten codes and anything else report false.
func BandOf(grade string) (GradeBand, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(grade))
	if err != nil {
		return "", false
	}
	switch {
	case n >= 1 && n <= 5:
		return GradeBandElementary, true
	case n >= 6 && n <= 12:
		return GradeBandHighSchool, true
	default:
		return "", false
	}
}
