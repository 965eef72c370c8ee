package model

import (
	"strings"
	"time"
)

type MealPlan string

const (
	MealPlanNone      MealPlan = "NONE"
	MealPlanSnack     MealPlan = "SNACK"
	MealPlanSnackOnly MealPlan = "SNACK_ONLY"
	MealPlanLunch     MealPlan = "LUNCH"
	MealPlanLunchOnly MealPlan = "LUNCH_ONLY"
	MealPlanFull      MealPlan = "FULL"
)

// MealPlans lists every plan in a stable order.
var MealPlans = []MealPlan{
	MealPlanNone,
	MealPlanSnack,
	MealPlanSnackOnly,
	MealPlanLunch,
	MealPlanLunchOnly,
	MealPlanFull,
}

// legacy labels found in rosters exported from the previous system
var mealPlanAliases = map[string]MealPlan{
	"NINGUNO":         MealPlanNone,
	"REFRIGERIO":      MealPlanSnack,
	"SOLO REFRIGERIO": MealPlanSnackOnly,
	"ALMUERZO":        MealPlanLunch,
	"SOLO ALMUERZO":   MealPlanLunchOnly,
	"COMPLETO":        MealPlanFull,
	"SNACK AND LUNCH": MealPlanFull,
}

func ParseMealPlan(s string) (MealPlan, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for _, p := range MealPlans {
		if string(p) == normalized {
			return p, true
		}
	}
	if p, ok := mealPlanAliases[normalized]; ok {
		return p, true
	}
	return "", false
}

func (p MealPlan) Valid() bool {
	for _, known := range MealPlans {
		if p == known {
			return true
		}
	}
	return false
}

// Covers reports whether the plan entitles a student to the slot.
func (p MealPlan) Covers(slot MealSlot) bool {
	switch p {
	case MealPlanNone:
		return false
	case MealPlanSnack, MealPlanSnackOnly:
		return slot == MealSlotSnack
	case MealPlanLunch, MealPlanLunchOnly:
		return slot == MealSlotLunch
	case MealPlanFull:
		return slot == MealSlotSnack || slot == MealSlotLunch
	default:
		return false
	}
}

// PlansCovering returns the plans eligible for a slot, in MealPlans order.
func PlansCovering(slot MealSlot) []MealPlan {
	var plans []MealPlan
	for _, p := range MealPlans {
		if p.Covers(slot) {
			plans = append(plans, p)
		}
	}
	return plans
}

type Student struct {
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Grade     string    `json:"grade" db:"grade"`
	MealPlan  MealPlan  `json:"meal_plan" db:"meal_plan"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// StudentRow is one parsed line of a roster spreadsheet.
type StudentRow struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Grade    string   `json:"grade"`
	MealPlan MealPlan `json:"meal_plan"`
}

type StudentSearch struct {
	Code  string
	Name  string
	Grade string
}

func (s StudentSearch) Empty() bool {
	return strings.TrimSpace(s.Code) == "" &&
		strings.TrimSpace(s.Name) == "" &&
		strings.TrimSpace(s.Grade) == ""
}
