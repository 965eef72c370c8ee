package model

import (
	"strings"
	"time"
)

type MealSlot string

const (
	MealSlotSnack MealSlot = "SNACK"
	MealSlotLunch MealSlot = "LUNCH"
)

var MealSlots = []MealSlot{MealSlotSnack, MealSlotLunch}

func ParseMealSlot(s string) (MealSlot, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SNACK", "REFRIGERIO":
		return MealSlotSnack, true
	case "LUNCH", "ALMUERZO":
		return MealSlotLunch, true
	default:
		return "", false
	}
}

func (s MealSlot) Valid() bool {
	return s == MealSlotSnack || s == MealSlotLunch
}

type EventStatus string

const (
	EventStatusValidated  EventStatus = "VALIDATED"
	EventStatusNotClaimed EventStatus = "NOT_CLAIMED"
)

func ParseEventStatus(s string) (EventStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VALIDATED", "VALIDADO":
		return EventStatusValidated, true
	case "NOT_CLAIMED", "NO RECLAMO":
		return EventStatusNotClaimed, true
	default:
		return "", false
	}
}

func (s EventStatus) Valid() bool {
	return s == EventStatusValidated || s == EventStatusNotClaimed
}

// ValidationEvent is one row of the append-only event log. At most one
// exists per (StudentCode, Date, Slot).
type ValidationEvent struct {
	ID          int64       `json:"id" db:"id"`
	StudentCode string      `json:"student_code" db:"student_code"`
	Date        Date        `json:"date" db:"meal_date"`
	Timestamp   time.Time   `json:"timestamp" db:"recorded_at"`
	Slot        MealSlot    `json:"slot" db:"meal_slot"`
	Status      EventStatus `json:"status" db:"status"`
}

// EventRow is the shape every listing, search and export returns.
type EventRow struct {
	ID          int64       `json:"id"`
	StudentCode string      `json:"student_code"`
	Name        string      `json:"name"`
	Grade       string      `json:"grade"`
	MealType    MealPlan    `json:"meal_type"`
	Timestamp   time.Time   `json:"timestamp"`
	Slot        MealSlot    `json:"slot"`
	Status      EventStatus `json:"status"`
}

type EventFilter struct {
	StartDate   *Date
	EndDate     *Date
	StudentCode string
	Slot        *MealSlot
	Status      *EventStatus
}

type Page[T any] struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Data  []T   `json:"data"`
}
