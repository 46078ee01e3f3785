package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	mp "mealplanner"
	"mealplanner/catalog"
	"mealplanner/catalog/storage"
	"mealplanner/generator"
	"mealplanner/nutrition"
	"mealplanner/slack"
	"mealplanner/store"
)

const usage = `usage: autoplan <command> [flags]

commands:
  generate  fill a date range with recipes and save the plan
  show      print a saved plan
  import    load a JSON recipe catalog into the database`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("SETUP: Failed to load .env: %s", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var plannerConfig mp.PlannerConfig
	if err := envdecode.Decode(&plannerConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(ctx, plannerConfig, os.Args[2:])
	case "show":
		err = runShow(ctx, plannerConfig, os.Args[2:])
	case "import":
		err = runImport(ctx, plannerConfig, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("RESULT: Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runGenerate(ctx context.Context, cfg mp.PlannerConfig, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		userID   = fs.String("user", "", "user id")
		start    = fs.String("start", "", "first date, YYYY-MM-DD")
		end      = fs.String("end", "", "last date, YYYY-MM-DD")
		slots    = fs.String("slots", "breakfast,lunch,dinner", "comma separated slots")
		calories = fs.Float64("calories", 0, "daily calorie target, overrides the profile")
		tags     = fs.String("tags", "", "comma separated tag ids, any match")
		maxPrep  = fs.Int("max-prep", 0, "maximum prep time in minutes")
		name     = fs.String("name", "", "plan name")
		debug    = fs.Bool("debug", false, "dump the result")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := buildRequest(*userID, *start, *end, *slots, *calories, *tags, *maxPrep, *name)
	if err != nil {
		return err
	}

	var cacheConfig mp.CacheConfig
	if err := envdecode.Decode(&cacheConfig); err != nil {
		return fmt.Errorf("failed to decode cache config: %w", err)
	}
	var notifyConfig mp.NotifyConfig
	if err := envdecode.Decode(&notifyConfig); err != nil {
		return fmt.Errorf("failed to decode notify config: %w", err)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	recipes, err := catalog.Open(ctx, cfg, store.NewRecipeStore(db))
	if err != nil {
		return err
	}

	calc, closeCache := newCalculator(ctx, cfg, cacheConfig)
	defer closeCache()

	logger, cleanup, err := newGenerationLogger(cfg.GenerationLogDir, req.UserID)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush generation log", "error", err)
		}
	}()

	profiles := store.NewProfileStore(db)
	plans := store.NewPlanStore(db)

	var gen mp.Generator = generator.New(calc, recipes, profiles, plans, logger)
	if !cfg.InstrumentationOff {
		tracerProvider, meterProvider, otelShutdown, err := mp.InitOtel(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		tracer := tracerProvider.Tracer(mp.TracerNameGenerator)
		meter := meterProvider.Meter(mp.MeterNameGenerator)

		var span trace.Span
		ctx, span = tracer.Start(ctx, "autoplan.generate", trace.WithAttributes(
			attribute.String("catalog.source", cfg.CatalogSource),
			attribute.Bool("calculator.cached", cacheConfig.RedisAddr != ""),
		))
		defer span.End()

		gen = generator.NewInstrumentedGenerator(calc, recipes, profiles, plans, logger, tracer, meter)
	}

	res, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}

	if *debug {
		mp.Dump(res)
	}

	if notifyConfig.SlackWebhookURL != "" {
		slack.NotifyPlan(ctx, slack.NewClient(notifyConfig.SlackWebhookURL, http.DefaultClient), notifyConfig.SlackChannel, res)
	}

	return printJSON(res)
}

func runShow(ctx context.Context, cfg mp.PlannerConfig, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	planID := fs.String("plan", "", "plan id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *planID == "" {
		return fmt.Errorf("-plan is required")
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	plan, err := store.NewPlanStore(db).GetPlan(ctx, *planID)
	if err != nil {
		return err
	}
	return printJSON(plan)
}

func runImport(ctx context.Context, cfg mp.PlannerConfig, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", cfg.CatalogPath, "recipe catalog JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	recipes, err := catalog.NewJSONCatalog(storage.NewFileSource(*file)).Load(ctx)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.NewRecipeStore(db).Save(ctx, recipes...); err != nil {
		return err
	}
	slog.Info("RESULT: Recipes imported", "count", len(recipes), "file", *file, "db", cfg.DatabasePath)
	return nil
}

func buildRequest(userID, start, end, slots string, calories float64, tags string, maxPrep int, name string) (mp.Request, error) {
	startDate, err := mp.ParseDate(start)
	if err != nil {
		return mp.Request{}, err
	}
	endDate, err := mp.ParseDate(end)
	if err != nil {
		return mp.Request{}, err
	}
	parsedSlots, err := mp.ParseSlots(strings.Split(slots, ","))
	if err != nil {
		return mp.Request{}, err
	}

	req := mp.Request{
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
		Slots:     parsedSlots,
		TagIDs:    splitList(tags),
		Name:      name,
	}
	if calories > 0 {
		req.CalorieTarget = &calories
	}
	if maxPrep > 0 {
		req.MaxPrepTime = &maxPrep
	}
	return req, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// newCalculator returns the calculator client, wrapped in a Redis cache when one is configured and reachable.
func newCalculator(ctx context.Context, cfg mp.PlannerConfig, cacheConfig mp.CacheConfig) (mp.Calculator, func()) {
	client := nutrition.NewClient(cfg.NutritionEndpoint, cfg.NutritionTimeout)
	if cacheConfig.RedisAddr == "" {
		return client, func() {}
	}

	cache, err := nutrition.NewRedisCache(ctx, cacheConfig.RedisAddr)
	if err != nil {
		slog.Warn("SETUP: Calculator cache disabled", "addr", cacheConfig.RedisAddr, "error", err)
		return client, func() {}
	}
	slog.Info("SETUP: Calculator cache enabled", "addr", cacheConfig.RedisAddr, "ttl", cacheConfig.TTL)
	return nutrition.NewCachedCalculator(client, cache, cacheConfig.TTL), func() { cache.Close() }
}

func newGenerationLogger(dir, label string) (mp.GenerationLogger, func() error, error) {
	if label == "" {
		label = "anonymous"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log dir: %w", err)
	}
	logFilePath := mp.NewGenerationLogFilePath(dir, label)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := mp.NewFileGenerationLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
