package allocator

import (
	"fmt"
	"math"
	"time"

	mp "mealplanner"
)

const (
	WarningNoRecipes     = "Empty plan created: no recipes matched the request."
	WarningNoCalorieData = "None of the matching recipes have calorie data; macro goals cannot be pursued."
)

// StandingWarnings reports conditions known before any cell is filled.
func StandingWarnings(pool *Pool, targets Targets) []string {
	if pool.Len() == 0 {
		return []string{WarningNoRecipes}
	}
	if targets.Daily != nil && !pool.HasCalorieData() {
		return []string{WarningNoCalorieData}
	}
	return nil
}

// DayWarnings emits one warning per day whose planned calories miss the daily target by more than WarningTolerance.
func DayWarnings(entries []mp.Entry, days []time.Time, pool *Pool, targets Targets) []string {
	daily, ok := targets.dailyCalories()
	if !ok {
		return nil
	}

	var warnings []string
	for _, day := range days {
		total := dayCalories(entries, entriesOn(entries, day), pool)
		deviation := (daily - total) / daily
		if math.Abs(deviation) <= WarningTolerance {
			continue
		}
		direction := "under"
		if deviation < 0 {
			direction = "over"
		}
		warnings = append(warnings, fmt.Sprintf(
			"%s: planned %.0f kcal against a target of %.0f kcal (%.0f%% %s)",
			day.Format(mp.DateLayout), total, daily, math.Abs(deviation)*100, direction,
		))
	}
	return warnings
}

// Summarize returns the planned macro totals of every day.
func Summarize(entries []mp.Entry, days []time.Time, pool *Pool, targets Targets) []mp.DaySummary {
	summaries := make([]mp.DaySummary, 0, len(days))
	for _, day := range days {
		s := mp.DaySummary{Date: day}
		for _, i := range entriesOn(entries, day) {
			e := entries[i]
			c, ok := pool.Lookup(e.RecipeID)
			if !ok {
				continue
			}
			n := float64(e.Servings)
			s.Calories += c.Calories(e.Servings)
			s.Protein += c.perServing(c.Protein) * n
			s.Carbs += c.perServing(c.Carbs) * n
			s.Fat += c.perServing(c.Fat) * n
		}
		if targets.Daily != nil {
			kcal := targets.Daily.Calories
			s.TargetCalories = &kcal
		}
		summaries = append(summaries, s)
	}
	return summaries
}
