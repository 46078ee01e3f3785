package allocator

import (
	"math"
	"time"

	mp "mealplanner"
)

// CompensateSnacks tops up days that remain under target by more than BalanceTolerance.
// An existing snack entry grows by its own recipe; otherwise the candidate closest to the
// gap is appended as a new snack entry. Days over target are never touched.
func CompensateSnacks(entries []mp.Entry, days []time.Time, pool *Pool, targets Targets) ([]mp.Entry, []Adjustment) {
	daily, ok := targets.dailyCalories()
	if !ok {
		return entries, nil
	}

	var adjustments []Adjustment
	for _, day := range days {
		idx := entriesOn(entries, day)
		gap := daily - dayCalories(entries, idx, pool)
		if gap/daily <= BalanceTolerance {
			continue
		}

		best, _, found := pool.closest(gap)
		if !found {
			continue
		}

		if i := snackIndex(entries, idx); i >= 0 {
			e := &entries[i]
			c, ok := pool.Lookup(e.RecipeID)
			if !ok {
				continue
			}
			add := 1
			if c.PerServingCalories != nil && *c.PerServingCalories > 0 {
				add = max(1, int(math.Round(gap / *c.PerServingCalories)))
			}
			n := c.clamp(float64(e.Servings + add))
			if n == e.Servings {
				continue
			}
			adjustments = append(adjustments, change(AdjustSnackUp, i, *e, e.RecipeID, n))
			e.Servings = n
			continue
		}

		entry := mp.Entry{
			RecipeID: best.ID,
			Date:     day,
			Slot:     mp.SlotSnack,
			Servings: best.OptimalServings(gap),
		}
		adjustments = append(adjustments, Adjustment{
			Kind:       AdjustSnackAdd,
			Index:      len(entries),
			Date:       day,
			Slot:       mp.SlotSnack,
			ToRecipeID: entry.RecipeID,
			ToServings: entry.Servings,
		})
		entries = append(entries, entry)
	}
	return entries, adjustments
}

func snackIndex(entries []mp.Entry, idx []int) int {
	for _, i := range idx {
		if entries[i].Slot == mp.SlotSnack {
			return i
		}
	}
	return -1
}
