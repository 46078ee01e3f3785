package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	mp "mealplanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest("u1", "2025-03-01", "2025-03-03", "breakfast, dinner", 1800, "quick,,vegan ", 20, "Week")
	require.NoError(t, err)

	calories, prep := 1800.0, 20
	assert.Equal(t, mp.Request{
		UserID:        "u1",
		StartDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Slots:         []mp.Slot{mp.SlotBreakfast, mp.SlotDinner},
		CalorieTarget: &calories,
		TagIDs:        []string{"quick", "vegan"},
		MaxPrepTime:   &prep,
		Name:          "Week",
	}, req)

	req, err = buildRequest("u1", "2025-03-01", "2025-03-01", "lunch", 0, "", 0, "")
	require.NoError(t, err)
	assert.Nil(t, req.CalorieTarget)
	assert.Nil(t, req.MaxPrepTime)
	assert.Nil(t, req.TagIDs)

	_, err = buildRequest("u1", "tomorrow", "2025-03-01", "lunch", 0, "", 0, "")
	assert.True(t, errors.Is(err, mp.ErrInvalidRequest))

	_, err = buildRequest("u1", "2025-03-01", "2025-03-01", "lunch,elevenses", 0, "", 0, "")
	assert.True(t, errors.Is(err, mp.ErrInvalidRequest))
}

func TestNewGenerationLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, cleanup, err := newGenerationLogger(dir, "")
	require.NoError(t, err)
	require.NoError(t, logger.LogPhase(mp.PhaseLog{Phase: "greedy_fill"}))
	require.NoError(t, cleanup())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name(), "anonymous")
}
