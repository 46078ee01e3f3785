// Package generator runs the plan generation pipeline: target resolution, candidate
// preparation, allocation, persistence and warning synthesis.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mp "mealplanner"
	"mealplanner/allocator"

	"github.com/google/uuid"
)

const (
	PhaseGreedyFill = "greedy_fill"
	PhaseBalance    = "balance"
	PhaseSnack      = "snack_compensation"
	PhaseWarnings   = "warnings"
)

// Generator builds and persists one plan per call. It holds no state between calls.
type Generator struct {
	calculator mp.Calculator
	catalog    mp.RecipeCatalog
	profiles   mp.ProfileSource
	plans      mp.PlanWriter
	logger     mp.GenerationLogger

	now   func() time.Time
	newID func() string
}

// New initializes a generator. profiles may be nil, in which case requests without an
// explicit calorie target are planned without targets.
func New(calc mp.Calculator, catalog mp.RecipeCatalog, profiles mp.ProfileSource, plans mp.PlanWriter, logger mp.GenerationLogger) *Generator {
	if logger == nil {
		logger = mp.NewNoOpGenerationLogger()
	}
	return &Generator{
		calculator: calc,
		catalog:    catalog,
		profiles:   profiles,
		plans:      plans,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// allocation is the outcome of the in-memory steps of one run.
type allocation struct {
	entries  []mp.Entry
	balanced int
	snacks   int
}

// Generate runs the whole pipeline for req.
func (g *Generator) Generate(ctx context.Context, req mp.Request) (mp.Result, error) {
	if err := req.Validate(); err != nil {
		return mp.Result{}, err
	}

	slog.Info("GENERATOR: Starting generation",
		"user_id", req.UserID,
		"start", req.StartDate.Format(mp.DateLayout),
		"end", req.EndDate.Format(mp.DateLayout),
		"slots", len(req.Slots),
	)

	targets, err := g.resolve(ctx, req)
	if err != nil {
		return mp.Result{}, err
	}

	pool, err := g.candidates(ctx, req)
	if err != nil {
		return mp.Result{}, err
	}

	warnings := append(make([]string, 0), allocator.StandingWarnings(pool, targets)...)
	plan := g.newPlan(req, targets)

	var alloc allocation
	if pool.Len() > 0 {
		alloc = g.allocate(req, pool, targets)
		plan.Entries = alloc.entries
	}

	if err := g.persist(ctx, plan); err != nil {
		return mp.Result{}, err
	}

	return g.result(plan, pool, targets, warnings), nil
}

func (g *Generator) resolve(ctx context.Context, req mp.Request) (allocator.Targets, error) {
	daily, slots, err := ResolveTargets(ctx, g.calculator, g.profiles, req)
	if err != nil {
		return allocator.Targets{}, fmt.Errorf("failed to resolve targets: %w", err)
	}
	return allocator.NewTargets(daily, slots), nil
}

func (g *Generator) candidates(ctx context.Context, req mp.Request) (*allocator.Pool, error) {
	recipes, err := g.catalog.Query(ctx, req.Filter())
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	pool := allocator.NewPool(recipes)
	slog.Info("SETUP: Candidate recipes loaded", "count", pool.Len(), "with_calories", pool.HasCalorieData())
	return pool, nil
}

func (g *Generator) newPlan(req mp.Request, targets allocator.Targets) mp.Plan {
	plan := mp.Plan{
		ID:        g.newID(),
		UserID:    req.UserID,
		Name:      req.PlanName(),
		StartDate: mp.Day(req.StartDate),
		EndDate:   mp.Day(req.EndDate),
		CreatedAt: g.now().UTC(),
		Entries:   []mp.Entry{},
	}
	if targets.Daily != nil {
		kcal := targets.Daily.Calories
		plan.TargetCalories = &kcal
	}
	return plan
}

// allocate runs the greedy fill, the balancing passes and snack compensation over one
// shared entry slice.
func (g *Generator) allocate(req mp.Request, pool *allocator.Pool, targets allocator.Targets) allocation {
	start, end := mp.Day(req.StartDate), mp.Day(req.EndDate)
	days := allocator.Days(start, end)

	entries := allocator.Fill(allocator.BuildGrid(start, end, req.Slots), pool, targets)
	g.logPhase(mp.PhaseLog{Phase: PhaseGreedyFill, DayTotals: dayTotals(entries, days, pool, targets)})
	slog.Info("GENERATOR: Greedy fill complete", "entries", len(entries), "days", len(days))

	out := allocation{}
	for i, pass := range allocator.Balance(entries, days, pool, targets) {
		out.balanced += len(pass)
		g.logPhase(mp.PhaseLog{
			Phase:       PhaseBalance,
			Iteration:   i + 1,
			Adjustments: adjustmentLogs(pass),
			DayTotals:   dayTotals(entries, days, pool, targets),
		})
		slog.Info("GENERATOR: Balancing pass complete", "iteration", i+1, "adjustments", len(pass))
	}

	entries, snacks := allocator.CompensateSnacks(entries, days, pool, targets)
	out.snacks = len(snacks)
	if targets.Daily != nil {
		g.logPhase(mp.PhaseLog{
			Phase:       PhaseSnack,
			Adjustments: adjustmentLogs(snacks),
			DayTotals:   dayTotals(entries, days, pool, targets),
		})
		slog.Info("GENERATOR: Snack compensation complete", "adjustments", len(snacks), "entries", len(entries))
	}

	out.entries = entries
	return out
}

// persist writes the plan unless the caller has already given up on it.
func (g *Generator) persist(ctx context.Context, plan mp.Plan) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("generation aborted before saving plan: %w", err)
	}
	if err := g.plans.CreatePlan(ctx, plan); err != nil {
		g.logPhase(mp.PhaseLog{Phase: "persist", Error: err.Error()})
		return fmt.Errorf("failed to save plan: %w", err)
	}
	slog.Info("GENERATOR: Plan saved", "plan_id", plan.ID, "entries", len(plan.Entries))
	return nil
}

func (g *Generator) result(plan mp.Plan, pool *allocator.Pool, targets allocator.Targets, warnings []string) mp.Result {
	days := allocator.Days(plan.StartDate, plan.EndDate)
	if pool.Len() > 0 {
		warnings = append(warnings, allocator.DayWarnings(plan.Entries, days, pool, targets)...)
	}
	g.logPhase(mp.PhaseLog{Phase: PhaseWarnings, Warnings: warnings})

	slog.Info("RESULT: Generation complete", "plan_id", plan.ID, "entries", len(plan.Entries), "warnings", len(warnings))

	return mp.Result{
		PlanID:   plan.ID,
		Warnings: warnings,
		Entries:  plan.Entries,
		Target:   targets.Daily,
		Days:     allocator.Summarize(plan.Entries, days, pool, targets),
	}
}

func (g *Generator) logPhase(phase mp.PhaseLog) {
	phase.Timestamp = g.now()
	if err := g.logger.LogPhase(phase); err != nil {
		slog.Warn("GENERATOR: Failed to log phase", "phase", phase.Phase, "error", err)
	}
}

func dayTotals(entries []mp.Entry, days []time.Time, pool *allocator.Pool, targets allocator.Targets) map[string]int {
	totals := make(map[string]int, len(days))
	for _, d := range allocator.Summarize(entries, days, pool, targets) {
		totals[d.Date.Format(mp.DateLayout)] = int(d.Calories + 0.5)
	}
	return totals
}

func adjustmentLogs(adjustments []allocator.Adjustment) []mp.AdjustmentLog {
	if len(adjustments) == 0 {
		return nil
	}
	logs := make([]mp.AdjustmentLog, 0, len(adjustments))
	for _, a := range adjustments {
		logs = append(logs, mp.AdjustmentLog{
			Kind:         string(a.Kind),
			Date:         a.Date.Format(mp.DateLayout),
			Slot:         a.Slot,
			FromRecipeID: a.FromRecipeID,
			ToRecipeID:   a.ToRecipeID,
			FromServings: a.FromServings,
			ToServings:   a.ToServings,
		})
	}
	return logs
}
