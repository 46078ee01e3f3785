package allocator

import (
	"math"

	mp "mealplanner"
)

// Fill picks one recipe and serving count per cell and returns the entries in cell order.
// Each candidate scores its slot fit minus VarietyPenalty for every earlier use on the
// same date; the first candidate with the strictly highest score wins.
func Fill(cells []Cell, pool *Pool, targets Targets) []mp.Entry {
	entries := make([]mp.Entry, 0, len(cells))
	if pool.Len() == 0 {
		return entries
	}

	usage := make(map[string]map[string]int)
	for _, cell := range cells {
		key := cell.Date.Format(mp.DateLayout)
		used, ok := usage[key]
		if !ok {
			used = make(map[string]int)
			usage[key] = used
		}

		slotKcal, hasSlot := targets.slotCalories(cell.Slot)

		bestIdx, bestServings, bestScore := -1, 1, math.Inf(-1)
		for i, c := range pool.candidates {
			servings, s := score(c, slotKcal, hasSlot, used[c.ID])
			if s > bestScore {
				bestIdx, bestServings, bestScore = i, servings, s
			}
		}
		if bestIdx < 0 {
			bestIdx, bestServings = 0, 1
		}

		chosen := pool.candidates[bestIdx]
		used[chosen.ID]++
		entries = append(entries, mp.Entry{
			RecipeID: chosen.ID,
			Date:     cell.Date,
			Slot:     cell.Slot,
			Servings: bestServings,
		})
	}
	return entries
}

func score(c Candidate, slotKcal float64, hasSlot bool, used int) (int, float64) {
	servings, fit := 1, 0.0
	if hasSlot && slotKcal > 0 && c.PerServingCalories != nil {
		servings = c.OptimalServings(slotKcal)
		fit = 1 - math.Abs(c.Calories(servings)-slotKcal)/slotKcal
	}
	return servings, fit - VarietyPenalty*float64(used)
}
