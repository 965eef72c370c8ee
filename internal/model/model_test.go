package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMealPlanCovers(t *testing.T) {
	tests := []struct {
		plan  MealPlan
		snack bool
		lunch bool
	}{
		{MealPlanNone, false, false},
		{MealPlanSnack, true, false},
		{MealPlanSnackOnly, true, false},
		{MealPlanLunch, false, true},
		{MealPlanLunchOnly, false, true},
		{MealPlanFull, true, true},
		{MealPlan("BOGUS"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			assert.Equal(t, tt.snack, tt.plan.Covers(MealSlotSnack))
			assert.Equal(t, tt.lunch, tt.plan.Covers(MealSlotLunch))
		})
	}
}

func TestPlansCovering(t *testing.T) {
	assert.Equal(t, []MealPlan{MealPlanSnack, MealPlanSnackOnly, MealPlanFull}, PlansCovering(MealSlotSnack))
	assert.Equal(t, []MealPlan{MealPlanLunch, MealPlanLunchOnly, MealPlanFull}, PlansCovering(MealSlotLunch))
	assert.Empty(t, PlansCovering(MealSlot("DINNER")))
}

func TestParseMealPlan(t *testing.T) {
	tests := map[string]MealPlan{
		"full":            MealPlanFull,
		" SNACK_ONLY ":    MealPlanSnackOnly,
		"Ninguno":         MealPlanNone,
		"solo almuerzo":   MealPlanLunchOnly,
		"REFRIGERIO":      MealPlanSnack,
		"snack and lunch": MealPlanFull,
	}
	for in, want := range tests {
		got, ok := ParseMealPlan(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseMealPlan("breakfast")
	assert.False(t, ok)
	assert.False(t, MealPlan("breakfast").Valid())
}

func TestParseSlotAndStatus(t *testing.T) {
	slot, ok := ParseMealSlot("almuerzo")
	require.True(t, ok)
	assert.Equal(t, MealSlotLunch, slot)

	_, ok = ParseMealSlot("dinner")
	assert.False(t, ok)

	status, ok := ParseEventStatus("no reclamo")
	require.True(t, ok)
	assert.Equal(t, EventStatusNotClaimed, status)

	_, ok = ParseEventStatus("maybe")
	assert.False(t, ok)
}

func TestBandOf(t *testing.T) {
	tests := []struct {
		grade string
		band  GradeBand
		ok    bool
	}{
		{"1", GradeBandElementary, true},
		{"3", GradeBandElementary, true},
		{"5", GradeBandElementary, true},
		{"6", GradeBandHighSchool, true},
		{"7", GradeBandHighSchool, true},
		{" 12 ", GradeBandHighSchool, true},
		{"0", "", false},
		{"13", "", false},
		{"K4", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		band, ok := BandOf(tt.grade)
		assert.Equal(t, tt.ok, ok, tt.grade)
		assert.Equal(t, tt.band, band, tt.grade)
	}
}

func TestDates(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	// 03:00 UTC is still the previous evening in Bogota.
	at := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, Date("2026-10-14"), DateOf(at, bogota))
	assert.Equal(t, Date("2026-10-15"), DateOf(at, time.UTC))

	d, err := ParseDate("2026-02-03")
	require.NoError(t, err)
	assert.True(t, d.Before("2026-02-04"))
	assert.True(t, d.After("2026-01-31"))

	_, err = ParseDate("03/02/2026")
	assert.Error(t, err)

	first, last := MonthRange(2024, time.February)
	assert.Equal(t, Date("2024-02-01"), first)
	assert.Equal(t, Date("2024-02-29"), last)

	first, last = MonthRange(2026, time.December)
	assert.Equal(t, Date("2026-12-01"), first)
	assert.Equal(t, Date("2026-12-31"), last)
}

func TestSlotCountsAdd(t *testing.T) {
	var c SlotCounts
	c.Add(MealSlotSnack, 2)
	c.Add(MealSlotLunch, 1)
	c.Add(MealSlot("DINNER"), 5)
	assert.Equal(t, SlotCounts{Snack: 2, Lunch: 1}, c)
}
