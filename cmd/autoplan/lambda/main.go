package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joeshaw/envdecode"

	mp "mealplanner"
	"mealplanner/catalog"
	"mealplanner/generator"
	"mealplanner/nutrition"
	"mealplanner/slack"
	"mealplanner/store"
	"mealplanner/tools"
)

// defaultDatabasePath is on /tmp, the only writable path in the Lambda runtime.
const defaultDatabasePath = "/tmp/mealplanner.db"

type Results struct {
	Output map[string]any `json:"output"`
}

func main() {
	fn := func(ctx context.Context, call tools.Call) (Results, error) {
		var plannerConfig mp.PlannerConfig
		if err := envdecode.Decode(&plannerConfig); err != nil {
			log.Fatalf("SETUP: Failed to decode: %s", err)
		}

		var notifyConfig mp.NotifyConfig
		if err := envdecode.Decode(&notifyConfig); err != nil {
			log.Fatalf("SETUP: Failed to decode: %s", err)
		}

		plannerConfig.DatabasePath = databasePath(os.Getenv("PLANNER_DB_PATH"))

		db, err := store.Open(plannerConfig.DatabasePath)
		if err != nil {
			slog.Error("SETUP: Failed to open database", "error", err)
			return Results{}, err
		}
		defer db.Close()

		recipes, err := catalog.Open(ctx, plannerConfig, store.NewRecipeStore(db))
		if err != nil {
			slog.Error("SETUP: Failed to open recipe catalog", "error", err)
			return Results{}, err
		}

		tracerProvider, meterProvider, otelShutdown, err := mp.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		gen := generator.NewInstrumentedGenerator(
			nutrition.NewClient(plannerConfig.NutritionEndpoint, plannerConfig.NutritionTimeout),
			recipes,
			store.NewProfileStore(db),
			store.NewPlanStore(db),
			mp.NewStdoutGenerationLogger(),
			tracerProvider.Tracer(mp.TracerNameGenerator),
			meterProvider.Meter(mp.MeterNameGenerator),
		)

		registry, err := tools.NewRegistry(gen, recipes)
		if err != nil {
			slog.Error("SETUP: Failed to create tool registry", "error", err)
			return Results{}, err
		}
		slog.Info("SETUP: Tool registry ready", "tool", call.Name)

		output, err := registry.Dispatch(ctx, call)
		if err != nil {
			slog.Error("RESULT: Error handling tool call", "tool", call.Name, "error", err)
			return Results{}, err
		}

		if call.Name == "plan_generate" && notifyConfig.SlackWebhookURL != "" {
			res, err := resultFromOutput(output)
			if err != nil {
				slog.Warn("RESULT: Skipping Slack notification", "error", err)
			} else {
				slack.NotifyPlan(ctx, slack.NewClient(notifyConfig.SlackWebhookURL, http.DefaultClient), notifyConfig.SlackChannel, res)
			}
		}

		return Results{Output: output}, nil
	}

	lambda.Start(fn)
}

// resultFromOutput recovers the plan result from a plan_generate tool output.
func resultFromOutput(output map[string]any) (mp.Result, error) {
	b, err := json.Marshal(output)
	if err != nil {
		return mp.Result{}, fmt.Errorf("encode tool output: %w", err)
	}
	var res mp.Result
	if err := json.Unmarshal(b, &res); err != nil {
		return mp.Result{}, fmt.Errorf("decode plan result: %w", err)
	}
	return res, nil
}

func databasePath(configured string) string {
	if configured == "" {
		return defaultDatabasePath
	}
	return configured
}
