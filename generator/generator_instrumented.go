package generator

import (
	"context"
	"log/slog"
	"time"

	mp "mealplanner"
	"mealplanner/allocator"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedGenerator is a Generator that traces every pipeline phase and records generation metrics.
type InstrumentedGenerator struct {
	*Generator
	tracer trace.Tracer
	meter  metric.Meter
}

// NewInstrumentedGenerator initializes a new instrumented generator.
func NewInstrumentedGenerator(calc mp.Calculator, catalog mp.RecipeCatalog, profiles mp.ProfileSource, plans mp.PlanWriter, logger mp.GenerationLogger, tracer trace.Tracer, meter metric.Meter) *InstrumentedGenerator {
	return &InstrumentedGenerator{
		Generator: New(calc, catalog, profiles, plans, logger),
		tracer:    tracer,
		meter:     meter,
	}
}

// Generate runs the pipeline with full instrumentation.
func (g *InstrumentedGenerator) Generate(ctx context.Context, req mp.Request) (mp.Result, error) {
	ctx, span := g.tracer.Start(ctx, "InstrumentedGenerator.Generate")
	defer span.End()

	slog.Info("GENERATOR: Starting instrumented generation", "user_id", req.UserID)

	// Counters
	generationsCounter, _ := g.meter.Int64Counter("plan_generations_total",
		metric.WithDescription("Total number of plan generations started"))
	generationsFailedCounter, _ := g.meter.Int64Counter("plan_generations_failed_total",
		metric.WithDescription("Total number of plan generations that failed"))
	entriesCounter, _ := g.meter.Int64Counter("plan_entries_total",
		metric.WithDescription("Total number of plan entries created"))
	warningsCounter, _ := g.meter.Int64Counter("plan_warnings_total",
		metric.WithDescription("Total number of warnings returned with generated plans"))
	balanceCounter, _ := g.meter.Int64Counter("balance_adjustments_total",
		metric.WithDescription("Total number of entries changed by balancing passes"))
	snackCounter, _ := g.meter.Int64Counter("snack_adjustments_total",
		metric.WithDescription("Total number of snack entries added or grown"))

	// Gauges
	candidatesGauge, _ := g.meter.Int64Gauge("candidate_recipes_count",
		metric.WithDescription("Number of candidate recipes in the latest generation"))
	daysGauge, _ := g.meter.Int64Gauge("plan_days_count",
		metric.WithDescription("Number of days covered by the latest generation"))

	// Histograms
	durationHist, _ := g.meter.Float64Histogram("plan_generation_duration_seconds",
		metric.WithDescription("Duration of plan generation in seconds"))

	generationsCounter.Add(ctx, 1)
	startTime := time.Now()

	fail := func(phase trace.Span, msg string, err error) {
		generationsFailedCounter.Add(ctx, 1)
		for _, s := range []trace.Span{phase, span} {
			s.SetStatus(codes.Error, msg)
			s.RecordError(err)
		}
		slog.Error("GENERATOR: "+msg, "error", err)
	}

	if err := req.Validate(); err != nil {
		generationsFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "Invalid request")
		span.RecordError(err)
		return mp.Result{}, err
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("start_date", req.StartDate.Format(mp.DateLayout)),
		attribute.String("end_date", req.EndDate.Format(mp.DateLayout)),
		attribute.Int("slots_count", len(req.Slots)),
	)
	daysGauge.Record(ctx, int64(len(allocator.Days(req.StartDate, req.EndDate))))

	// 1) Targets
	tctx, tspan := g.tracer.Start(ctx, "InstrumentedGenerator.ResolveTargets")
	targets, err := g.resolve(tctx, req)
	if err != nil {
		fail(tspan, "Target resolution failed", err)
		tspan.End()
		return mp.Result{}, err
	}
	if targets.Daily != nil {
		tspan.AddEvent("Daily target resolved", trace.WithAttributes(
			attribute.Float64("calories", targets.Daily.Calories),
			attribute.Int("slot_targets", len(targets.Slots)),
		))
	}
	tspan.End()

	// 2) Candidates
	cctx, cspan := g.tracer.Start(ctx, "InstrumentedGenerator.Candidates")
	pool, err := g.candidates(cctx, req)
	if err != nil {
		fail(cspan, "Recipe query failed", err)
		cspan.End()
		return mp.Result{}, err
	}
	candidatesGauge.Record(ctx, int64(pool.Len()))
	cspan.AddEvent("Candidates loaded", trace.WithAttributes(
		attribute.Int("count", pool.Len()),
		attribute.Bool("with_calories", pool.HasCalorieData()),
	))
	cspan.End()

	warnings := append(make([]string, 0), allocator.StandingWarnings(pool, targets)...)
	plan := g.newPlan(req, targets)

	// 3) Allocation
	if pool.Len() > 0 {
		_, aspan := g.tracer.Start(ctx, "InstrumentedGenerator.Allocate")
		alloc := g.allocate(req, pool, targets)
		plan.Entries = alloc.entries
		balanceCounter.Add(ctx, int64(alloc.balanced))
		snackCounter.Add(ctx, int64(alloc.snacks))
		aspan.AddEvent("Allocation complete", trace.WithAttributes(
			attribute.Int("entries", len(alloc.entries)),
			attribute.Int("balance_adjustments", alloc.balanced),
			attribute.Int("snack_adjustments", alloc.snacks),
		))
		aspan.End()
	} else {
		span.AddEvent("No candidate recipes; saving empty plan")
	}

	// 4) Persistence
	pctx, pspan := g.tracer.Start(ctx, "InstrumentedGenerator.Persist")
	if err := g.persist(pctx, plan); err != nil {
		fail(pspan, "Plan save failed", err)
		pspan.End()
		return mp.Result{}, err
	}
	pspan.End()

	// 5) Warnings and summaries
	res := g.result(plan, pool, targets, warnings)

	entriesCounter.Add(ctx, int64(len(res.Entries)))
	warningsCounter.Add(ctx, int64(len(res.Warnings)))
	durationHist.Record(ctx, time.Since(startTime).Seconds())

	span.SetAttributes(
		attribute.String("plan_id", res.PlanID),
		attribute.Int("entries_count", len(res.Entries)),
		attribute.Int("warnings_count", len(res.Warnings)),
	)
	span.AddEvent("Plan generated")

	return res, nil
}
