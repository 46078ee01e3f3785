package mealplanner

import (
	"context"
	"time"
)

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Calculator is the external macro target calculator. Both methods are expected to be pure.
type Calculator interface {
	DailyTarget(ctx context.Context, profile Profile) (MacroTarget, error)
	SlotTargets(ctx context.Context, daily MacroTarget, slots []Slot) ([]SlotTarget, error)
}

// RecipeCatalog returns the recipes visible to a user that match the filter, in a stable order.
type RecipeCatalog interface {
	Query(ctx context.Context, filter RecipeFilter) ([]Recipe, error)
}

type ProfileSource interface {
	Profile(ctx context.Context, userID string) (Profile, error)
}

// PlanWriter persists a plan and all of its entries atomically.
type PlanWriter interface {
	CreatePlan(ctx context.Context, plan Plan) error
}

type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// MacroTarget is a daily macro goal. Protein, carbs and fat are grams.
type MacroTarget struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// MacroTargetFromCalories apportions an explicit calorie goal 30/40/30 across protein, carbs and fat.
func MacroTargetFromCalories(calories float64) MacroTarget {
	return MacroTarget{
		Calories: calories,
		Protein:  calories * 0.30 / 4,
		Carbs:    calories * 0.40 / 4,
		Fat:      calories * 0.30 / 9,
	}
}

type SlotTarget struct {
	Slot     Slot    `json:"slot"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Profile is the physiological profile used by the calculator. Any nil field makes it incomplete.
type Profile struct {
	WeightKg      *float64   `json:"weight_kg,omitempty"`
	HeightCm      *float64   `json:"height_cm,omitempty"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	Sex           *string    `json:"sex,omitempty"`
	ActivityLevel *string    `json:"activity_level,omitempty"`
	Goal          *string    `json:"goal,omitempty"`
}

// Complete reports whether every field needed by the calculator is present.
func (p *Profile) Complete() bool {
	if p == nil {
		return false
	}
	return p.WeightKg != nil && p.HeightCm != nil && p.BirthDate != nil &&
		p.Sex != nil && p.ActivityLevel != nil && p.Goal != nil
}

// Recipe is a catalog recipe. Macros are per full batch; Servings is the batch size.
type Recipe struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	OwnerID  string   `json:"owner_id,omitempty"`
	Public   bool     `json:"public"`
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Servings int      `json:"servings"`
	PrepTime *int     `json:"prep_time,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type RecipeFilter struct {
	UserID      string   `json:"user_id"`
	TagIDs      []string `json:"tag_ids,omitempty"`
	MaxPrepTime *int     `json:"max_prep_time,omitempty"`
}

// Entry assigns a number of servings of one recipe to a (date, slot) cell.
type Entry struct {
	RecipeID string    `json:"recipe_id"`
	Date     time.Time `json:"date"`
	Slot     Slot      `json:"slot"`
	Servings int       `json:"servings"`
}

type Plan struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	TargetCalories *float64  `json:"target_calories,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Entries        []Entry   `json:"entries"`
}

// DaySummary holds the planned macro totals for one date.
type DaySummary struct {
	Date           time.Time `json:"date"`
	Calories       float64   `json:"calories"`
	Protein        float64   `json:"protein"`
	Carbs          float64   `json:"carbs"`
	Fat            float64   `json:"fat"`
	TargetCalories *float64  `json:"target_calories,omitempty"`
}

type Result struct {
	PlanID   string       `json:"plan_id"`
	Warnings []string     `json:"warnings"`
	Entries  []Entry      `json:"entries"`
	Target   *MacroTarget `json:"target,omitempty"`
	Days     []DaySummary `json:"days"`
}
