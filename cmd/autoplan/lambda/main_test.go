package main

import (
	"testing"
	"time"

	mp "mealplanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultFromOutput(t *testing.T) {
	res, err := resultFromOutput(map[string]any{
		"plan_id":  "plan-1",
		"warnings": []any{"no recipes"},
		"entries": []any{
			map[string]any{"recipe_id": "oats", "date": "2025-03-01T00:00:00Z", "slot": "breakfast", "servings": 2.0},
		},
		"days": []any{},
	})
	require.NoError(t, err)
	assert.Equal(t, "plan-1", res.PlanID)
	assert.Equal(t, []string{"no recipes"}, res.Warnings)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, mp.Entry{RecipeID: "oats", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Slot: mp.SlotBreakfast, Servings: 2}, res.Entries[0])

	_, err = resultFromOutput(map[string]any{"entries": "none"})
	assert.Error(t, err)
}

func TestDatabasePath(t *testing.T) {
	assert.Equal(t, "/tmp/mealplanner.db", databasePath(""))
	assert.Equal(t, "/mnt/efs/planner.db", databasePath("/mnt/efs/planner.db"))
}
