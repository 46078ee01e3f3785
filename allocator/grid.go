package allocator

import (
	"time"

	mp "mealplanner"
)

// Cell is one (date, slot) position of the plan.
type Cell struct {
	Date time.Time
	Slot mp.Slot
}

// Days lists every calendar date from start to end inclusive.
func Days(start, end time.Time) []time.Time {
	start, end = mp.Day(start), mp.Day(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// BuildGrid enumerates cells date first, then slots in declaration order.
func BuildGrid(start, end time.Time, slots []mp.Slot) []Cell {
	days := Days(start, end)
	cells := make([]Cell, 0, len(days)*len(slots))
	for _, d := range days {
		for _, s := range slots {
			cells = append(cells, Cell{Date: d, Slot: s})
		}
	}
	return cells
}

// Targets holds the resolved daily target and its per-slot split. Daily is nil when no target could be resolved.
type Targets struct {
	Daily *mp.MacroTarget
	Slots map[mp.Slot]mp.SlotTarget
}

func NewTargets(daily *mp.MacroTarget, slots []mp.SlotTarget) Targets {
	t := Targets{Daily: daily}
	if daily == nil {
		return t
	}
	t.Slots = make(map[mp.Slot]mp.SlotTarget, len(slots))
	for _, st := range slots {
		t.Slots[st.Slot] = st
	}
	return t
}

// dailyCalories returns the daily calorie goal when one is usable.
func (t Targets) dailyCalories() (float64, bool) {
	if t.Daily == nil || t.Daily.Calories <= 0 {
		return 0, false
	}
	return t.Daily.Calories, true
}

// slotCalories returns the slot's calorie target. Slots without a target read as zero.
func (t Targets) slotCalories(s mp.Slot) (float64, bool) {
	st, ok := t.Slots[s]
	if !ok {
		return 0, false
	}
	return st.Calories, true
}
