package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	mp "mealplanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalculator struct {
	daily      mp.MacroTarget
	err        error
	dailyCalls int
	slotCalls  int
}

func (f *fakeCalculator) DailyTarget(ctx context.Context, profile mp.Profile) (mp.MacroTarget, error) {
	f.dailyCalls++
	return f.daily, f.err
}

// SlotTargets splits the daily calories evenly across slots.
func (f *fakeCalculator) SlotTargets(ctx context.Context, daily mp.MacroTarget, slots []mp.Slot) ([]mp.SlotTarget, error) {
	f.slotCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]mp.SlotTarget, 0, len(slots))
	for _, s := range slots {
		out = append(out, mp.SlotTarget{Slot: s, Calories: daily.Calories / float64(len(slots))})
	}
	return out, nil
}

type fakeCatalog struct {
	recipes []mp.Recipe
	err     error
	filter  mp.RecipeFilter
}

func (f *fakeCatalog) Query(ctx context.Context, filter mp.RecipeFilter) ([]mp.Recipe, error) {
	f.filter = filter
	return f.recipes, f.err
}

type fakeProfiles struct {
	profiles map[string]mp.Profile
	calls    int
}

func (f *fakeProfiles) Profile(ctx context.Context, userID string) (mp.Profile, error) {
	f.calls++
	p, ok := f.profiles[userID]
	if !ok {
		return mp.Profile{}, mp.ErrProfileNotFound
	}
	return p, nil
}

type fakePlans struct {
	saved []mp.Plan
	err   error
}

func (f *fakePlans) CreatePlan(ctx context.Context, plan mp.Plan) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, plan)
	return nil
}

type captureLogger struct{ phases []mp.PhaseLog }

func (c *captureLogger) LogPhase(phase mp.PhaseLog) error {
	c.phases = append(c.phases, phase)
	return nil
}

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := mp.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func completeProfile() mp.Profile {
	return mp.Profile{
		WeightKg:      ptr(72.0),
		HeightCm:      ptr(178.0),
		BirthDate:     ptr(day("1990-05-14")),
		Sex:           ptr("male"),
		ActivityLevel: ptr("moderate"),
		Goal:          ptr("maintain"),
	}
}

func newTestGenerator(calc mp.Calculator, catalog mp.RecipeCatalog, profiles mp.ProfileSource, plans mp.PlanWriter, logger mp.GenerationLogger) *Generator {
	g := New(calc, catalog, profiles, plans, logger)
	g.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	g.newID = func() string { return "plan-1" }
	return g
}

func threeMeals() []mp.Slot {
	return []mp.Slot{mp.SlotBreakfast, mp.SlotLunch, mp.SlotDinner}
}

func TestGenerate_EmptyCatalog(t *testing.T) {
	plans := &fakePlans{}
	g := newTestGenerator(&fakeCalculator{}, &fakeCatalog{}, nil, plans, nil)

	res, err := g.Generate(context.Background(), mp.Request{
		UserID:        "u1",
		StartDate:     day("2025-03-01"),
		EndDate:       day("2025-03-03"),
		Slots:         []mp.Slot{mp.SlotBreakfast, mp.SlotDinner},
		CalorieTarget: ptr(2000.0),
	})

	require.NoError(t, err)
	require.Len(t, plans.saved, 1)
	assert.Empty(t, plans.saved[0].Entries)
	assert.Empty(t, res.Entries)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "no recipe")
	assert.Equal(t, "plan-1", res.PlanID)
	assert.Len(t, res.Days, 3)
}

func TestGenerate_SingleRecipeOverride(t *testing.T) {
	plans := &fakePlans{}
	calc := &fakeCalculator{}
	catalog := &fakeCatalog{recipes: []mp.Recipe{{ID: "plate", Calories: ptr(500.0), Servings: 1}}}
	logger := &captureLogger{}
	g := newTestGenerator(calc, catalog, nil, plans, logger)

	res, err := g.Generate(context.Background(), mp.Request{
		UserID:        "u1",
		StartDate:     day("2025-03-01"),
		EndDate:       day("2025-03-01"),
		Slots:         threeMeals(),
		CalorieTarget: ptr(2000.0),
		TagIDs:        []string{"quick"},
		MaxPrepTime:   ptr(30),
	})

	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	for _, e := range res.Entries {
		assert.Equal(t, "plate", e.RecipeID)
		assert.GreaterOrEqual(t, e.Servings, 1)
		assert.LessOrEqual(t, e.Servings, 2)
	}
	assert.Empty(t, res.Warnings)
	require.NotNil(t, res.Target)
	assert.InDelta(t, 150, res.Target.Protein, 1e-9)
	assert.InDelta(t, 200, res.Target.Carbs, 1e-9)
	assert.InDelta(t, 66.67, res.Target.Fat, 0.01)
	require.Len(t, res.Days, 1)
	assert.InDelta(t, 2000, res.Days[0].Calories, 1e-9)

	require.Len(t, plans.saved, 1)
	saved := plans.saved[0]
	assert.Equal(t, mp.DefaultPlanName, saved.Name)
	require.NotNil(t, saved.TargetCalories)
	assert.InDelta(t, 2000, *saved.TargetCalories, 1e-9)
	assert.Equal(t, res.Entries, saved.Entries)

	assert.Equal(t, mp.RecipeFilter{UserID: "u1", TagIDs: []string{"quick"}, MaxPrepTime: ptr(30)}, catalog.filter)
	assert.Zero(t, calc.dailyCalls)
	assert.Equal(t, 1, calc.slotCalls)

	var phases []string
	for _, p := range logger.phases {
		phases = append(phases, p.Phase)
	}
	assert.Equal(t, []string{PhaseGreedyFill, PhaseBalance, PhaseBalance, PhaseBalance, PhaseSnack, PhaseWarnings}, phases)
	assert.Len(t, logger.phases[1].Adjustments, 1)
	assert.Equal(t, 2000, logger.phases[1].DayTotals["2025-03-01"])
}

func TestGenerate_Targets(t *testing.T) {
	recipes := []mp.Recipe{
		{ID: "oats", Calories: ptr(400.0), Servings: 1},
		{ID: "stew", Calories: ptr(2400.0), Servings: 4},
	}

	t.Run("override wins over profile", func(t *testing.T) {
		profiles := &fakeProfiles{profiles: map[string]mp.Profile{"u1": completeProfile()}}
		calc := &fakeCalculator{daily: mp.MacroTarget{Calories: 3000}}
		g := newTestGenerator(calc, &fakeCatalog{recipes: recipes}, profiles, &fakePlans{}, nil)

		res, err := g.Generate(context.Background(), mp.Request{
			UserID: "u1", StartDate: day("2025-03-01"), EndDate: day("2025-03-02"),
			Slots: threeMeals(), CalorieTarget: ptr(1800.0),
		})

		require.NoError(t, err)
		assert.InDelta(t, 1800, res.Target.Calories, 1e-9)
		assert.Zero(t, profiles.calls)
		assert.Zero(t, calc.dailyCalls)
	})

	t.Run("complete profile uses calculator", func(t *testing.T) {
		profiles := &fakeProfiles{profiles: map[string]mp.Profile{"u1": completeProfile()}}
		calc := &fakeCalculator{daily: mp.MacroTarget{Calories: 2400, Protein: 150, Carbs: 270, Fat: 80}}
		g := newTestGenerator(calc, &fakeCatalog{recipes: recipes}, profiles, &fakePlans{}, nil)

		res, err := g.Generate(context.Background(), mp.Request{
			UserID: "u1", StartDate: day("2025-03-01"), EndDate: day("2025-03-01"), Slots: threeMeals(),
		})

		require.NoError(t, err)
		assert.Equal(t, &calc.daily, res.Target)
		assert.Equal(t, 1, calc.dailyCalls)
		assert.Equal(t, 1, profiles.calls)
	})

	t.Run("incomplete profile plans without targets", func(t *testing.T) {
		partial := completeProfile()
		partial.Goal = nil
		profiles := &fakeProfiles{profiles: map[string]mp.Profile{"u1": partial}}
		calc := &fakeCalculator{}
		plans := &fakePlans{}
		logger := &captureLogger{}
		g := newTestGenerator(calc, &fakeCatalog{recipes: recipes}, profiles, plans, logger)

		res, err := g.Generate(context.Background(), mp.Request{
			UserID: "u1", StartDate: day("2025-03-01"), EndDate: day("2025-03-01"), Slots: threeMeals(),
		})

		require.NoError(t, err)
		assert.Nil(t, res.Target)
		assert.Empty(t, res.Warnings)
		assert.NotNil(t, res.Warnings)
		assert.Zero(t, calc.dailyCalls)
		assert.Nil(t, plans.saved[0].TargetCalories)
		require.Len(t, res.Entries, 3)
		assert.Equal(t, []string{"oats", "stew", "oats"}, []string{res.Entries[0].RecipeID, res.Entries[1].RecipeID, res.Entries[2].RecipeID})
		for _, e := range res.Entries {
			assert.Equal(t, 1, e.Servings)
		}
		require.Len(t, logger.phases, 2, "only greedy fill and warnings run without a target")
	})

	t.Run("missing profile is fatal", func(t *testing.T) {
		plans := &fakePlans{}
		g := newTestGenerator(&fakeCalculator{}, &fakeCatalog{recipes: recipes}, &fakeProfiles{}, plans, nil)

		_, err := g.Generate(context.Background(), mp.Request{
			UserID: "ghost", StartDate: day("2025-03-01"), EndDate: day("2025-03-01"), Slots: threeMeals(),
		})

		require.Error(t, err)
		assert.True(t, errors.Is(err, mp.ErrProfileNotFound))
		assert.Empty(t, plans.saved)
	})

	t.Run("calculator failure", func(t *testing.T) {
		g := newTestGenerator(&fakeCalculator{err: errors.New("service down")}, &fakeCatalog{recipes: recipes}, nil, &fakePlans{}, nil)

		_, err := g.Generate(context.Background(), mp.Request{
			UserID: "u1", StartDate: day("2025-03-01"), EndDate: day("2025-03-01"),
			Slots: threeMeals(), CalorieTarget: ptr(2000.0),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service down")
	})
}

func TestGenerate_NoCalorieData(t *testing.T) {
	catalog := &fakeCatalog{recipes: []mp.Recipe{{ID: "mystery", Servings: 2}, {ID: "unknown", Servings: 1}}}
	g := newTestGenerator(&fakeCalculator{}, catalog, nil, &fakePlans{}, nil)

	res, err := g.Generate(context.Background(), mp.Request{
		UserID: "u1", StartDate: day("2025-03-01"), EndDate: day("2025-03-02"),
		Slots: threeMeals(), CalorieTarget: ptr(2000.0),
	})

	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "calorie data")
	assert.Len(t, res.Warnings, 3, "standing warning plus one per day at zero kcal")
	assert.Len(t, res.Entries, 6)
	for _, e := range res.Entries {
		assert.Equal(t, 1, e.Servings)
	}
}

func TestGenerate_Errors(t *testing.T) {
	recipes := []mp.Recipe{{ID: "plate", Calories: ptr(500.0), Servings: 1}}
	valid := mp.Request{
		UserID: "u1", StartDate: day("2025-03-01"), EndDate: day("2025-03-02"),
		Slots: threeMeals(), CalorieTarget: ptr(2000.0),
	}

	t.Run("invalid request", func(t *testing.T) {
		plans := &fakePlans{}
		g := newTestGenerator(&fakeCalculator{}, &fakeCatalog{recipes: recipes}, nil, plans, nil)
		req := valid
		req.EndDate = day("2025-02-28")

		_, err := g.Generate(context.Background(), req)
		assert.True(t, errors.Is(err, mp.ErrInvalidRequest))
		assert.Empty(t, plans.saved)
	})

	t.Run("catalog failure", func(t *testing.T) {
		g := newTestGenerator(&fakeCalculator{}, &fakeCatalog{err: errors.New("db locked")}, nil, &fakePlans{}, nil)

		_, err := g.Generate(context.Background(), valid)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query recipes")
	})

	t.Run("cancelled before save", func(t *testing.T) {
		plans := &fakePlans{}
		g := newTestGenerator(&fakeCalculator{}, &fakeCatalog{recipes: recipes}, nil, plans, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := g.Generate(ctx, valid)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Empty(t, plans.saved)
	})

	t.Run("save failure", func(t *testing.T) {
		logger := &captureLogger{}
		g := newTestGenerator(&fakeCalculator{}, &fakeCatalog{recipes: recipes}, nil, &fakePlans{err: errors.New("disk full")}, logger)

		_, err := g.Generate(context.Background(), valid)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save plan")
		last := logger.phases[len(logger.phases)-1]
		assert.Equal(t, "disk full", last.Error)
	})
}

func TestGenerate_Deterministic(t *testing.T) {
	recipes := []mp.Recipe{
		{ID: "oats", Calories: ptr(350.0), Servings: 1},
		{ID: "wrap", Calories: ptr(1100.0), Servings: 2},
		{ID: "stew", Calories: ptr(2400.0), Servings: 4},
		{ID: "salad", Servings: 1},
	}
	req := mp.Request{
		UserID: "u1", StartDate: day("2025-03-01"), EndDate: day("2025-03-07"),
		Slots: append(threeMeals(), mp.SlotSnack), CalorieTarget: ptr(2300.0),
	}

	var runs []mp.Result
	for i := 0; i < 2; i++ {
		g := newTestGenerator(&fakeCalculator{}, &fakeCatalog{recipes: recipes}, nil, &fakePlans{}, nil)
		res, err := g.Generate(context.Background(), req)
		require.NoError(t, err)
		runs = append(runs, res)
	}
	assert.Equal(t, runs[0].Entries, runs[1].Entries)
	assert.Equal(t, runs[0].Warnings, runs[1].Warnings)
	assert.GreaterOrEqual(t, len(runs[0].Entries), 7*4)
}

func TestResolveTargets(t *testing.T) {
	req := mp.Request{UserID: "u1", Slots: threeMeals(), CalorieTarget: ptr(2100.0)}

	first, firstSlots, err := ResolveTargets(context.Background(), &fakeCalculator{}, nil, req)
	require.NoError(t, err)
	second, secondSlots, err := ResolveTargets(context.Background(), &fakeCalculator{}, nil, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstSlots, secondSlots)
	require.Len(t, firstSlots, 3)
	assert.InDelta(t, 700, firstSlots[1].Calories, 1e-9)

	daily, slots, err := ResolveTargets(context.Background(), &fakeCalculator{}, nil, mp.Request{UserID: "u1", Slots: threeMeals()})
	require.NoError(t, err)
	assert.Nil(t, daily)
	assert.Nil(t, slots)

	_, _, err = ResolveTargets(context.Background(), nil, nil, req)
	assert.ErrorIs(t, err, ErrNoCalculator)
}
