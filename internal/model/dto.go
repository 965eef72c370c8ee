package model

import "time"

type IngestionJob struct {
	FileID int64  `json:"file_id"`
	S3Path string `json:"s3_path"`
}

type ClaimJob struct {
	RequestID   string    `json:"request_id"`
	StudentCode string    `json:"student_code"`
	Slot        MealSlot  `json:"slot"`
	ClaimedAt   time.Time `json:"claimed_at"`
}

type ClaimRequest struct {
	StudentCode string `json:"student_code" binding:"required"`
	Slot        string `json:"slot" binding:"required"`
}

type RosterRequest struct {
	S3Path string `json:"s3_path" binding:"required"`
}

// SlotCounts holds one count per meal slot.
type SlotCounts struct {
	Snack int64 `json:"snack"`
	Lunch int64 `json:"lunch"`
}

func (c *SlotCounts) Add(slot MealSlot, n int64) {
	switch slot {
	case MealSlotSnack:
		c.Snack += n
	case MealSlotLunch:
		c.Lunch += n
	}
}

// SlotGradeCount is one group of validated events for a day.
type SlotGradeCount struct {
	Slot  MealSlot
	Grade string
	Count int64
}

type TodayBreakdown struct {
	Date          Date       `json:"date"`
	TotalStudents int64      `json:"total_students"`
	Slots         SlotCounts `json:"slots"`
	Elementary    SlotCounts `json:"elementary"`
	HighSchool    SlotCounts `json:"high_school"`
}

type MonthlyConsumption struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Total int64 `json:"total"`
}

type PlanCount struct {
	MealPlan MealPlan `json:"meal_plan"`
	Total    int64    `json:"total"`
}

type PlanTotals struct {
	Date           Date        `json:"date"`
	TotalStudents  int64       `json:"total_students"`
	ConsumedToday  int64       `json:"consumed_today"`
	StudentsByPlan []PlanCount `json:"students_by_plan"`
}

type TodayEvents struct {
	StudentCode string     `json:"student_code"`
	Date        Date       `json:"date"`
	Total       int        `json:"total"`
	Counts      SlotCounts `json:"counts"`
	Data        []EventRow `json:"data"`
}
