package allocator

import (
	"math"
	"time"

	mp "mealplanner"
)

type AdjustmentKind string

const (
	AdjustServings AdjustmentKind = "servings"
	AdjustSwap     AdjustmentKind = "swap"
	AdjustSnackAdd AdjustmentKind = "snack_add"
	AdjustSnackUp  AdjustmentKind = "snack_grow"
)

// Adjustment records one change made to the entry list after the greedy fill.
type Adjustment struct {
	Kind         AdjustmentKind
	Index        int
	Date         time.Time
	Slot         mp.Slot
	FromRecipeID string
	ToRecipeID   string
	FromServings int
	ToServings   int
}

// Balance runs BalanceIterations passes over days and returns the adjustments of each pass.
// Nothing happens without a daily calorie target.
func Balance(entries []mp.Entry, days []time.Time, pool *Pool, targets Targets) [][]Adjustment {
	if _, ok := targets.dailyCalories(); !ok {
		return nil
	}
	passes := make([][]Adjustment, 0, BalanceIterations)
	for i := 0; i < BalanceIterations; i++ {
		passes = append(passes, BalancePass(entries, days, pool, targets))
	}
	return passes
}

// BalancePass makes at most one change per day, mutating entries in place.
//
// A day within BalanceTolerance of the daily target is left alone. Otherwise the entry
// furthest from its own slot target is asked to absorb the whole daily gap: first by
// re-serving its recipe, and if that changes nothing, by swapping in the candidate that
// lands closest to the new slot calories when that beats the entry's current deviation.
func BalancePass(entries []mp.Entry, days []time.Time, pool *Pool, targets Targets) []Adjustment {
	daily, ok := targets.dailyCalories()
	if !ok {
		return nil
	}

	var adjustments []Adjustment
	for _, day := range days {
		idx := entriesOn(entries, day)
		if len(idx) == 0 {
			continue
		}

		gap := daily - dayCalories(entries, idx, pool)
		if math.Abs(gap)/daily <= BalanceTolerance {
			continue
		}

		worst, worstGap := idx[0], -1.0
		for _, i := range idx {
			slotKcal, _ := targets.slotCalories(entries[i].Slot)
			if dev := math.Abs(pool.entryCalories(entries[i]) - slotKcal); dev > worstGap {
				worst, worstGap = i, dev
			}
		}

		e := &entries[worst]
		ideal := pool.entryCalories(*e) + gap

		if c, ok := pool.Lookup(e.RecipeID); ok && ideal > 0 && c.PerServingCalories != nil {
			if n := c.OptimalServings(ideal); n != e.Servings {
				adjustments = append(adjustments, change(AdjustServings, worst, *e, e.RecipeID, n))
				e.Servings = n
				continue
			}
		}

		// worstGap is the deviation before the servings attempt above.
		swap, dist, found := pool.closest(ideal)
		if !found || dist >= worstGap {
			continue
		}
		n := swap.OptimalServings(ideal)
		if swap.ID == e.RecipeID && n == e.Servings {
			continue
		}
		adjustments = append(adjustments, change(AdjustSwap, worst, *e, swap.ID, n))
		e.RecipeID, e.Servings = swap.ID, n
	}
	return adjustments
}

func change(kind AdjustmentKind, index int, e mp.Entry, toRecipe string, toServings int) Adjustment {
	return Adjustment{
		Kind:         kind,
		Index:        index,
		Date:         e.Date,
		Slot:         e.Slot,
		FromRecipeID: e.RecipeID,
		ToRecipeID:   toRecipe,
		FromServings: e.Servings,
		ToServings:   toServings,
	}
}

// entriesOn returns the positions of the entries planned for day, in list order.
func entriesOn(entries []mp.Entry, day time.Time) []int {
	var idx []int
	for i, e := range entries {
		if mp.Day(e.Date).Equal(day) {
			idx = append(idx, i)
		}
	}
	return idx
}

func dayCalories(entries []mp.Entry, idx []int, pool *Pool) float64 {
	var total float64
	for _, i := range idx {
		total += pool.entryCalories(entries[i])
	}
	return total
}
