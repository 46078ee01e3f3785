package mealplanner

import "time"

type PlannerConfig struct {
	DatabasePath       string        `env:"PLANNER_DB_PATH,default=data/mealplanner.db"`
	CatalogSource      string        `env:"CATALOG_SOURCE,default=sqlite"`
	CatalogPath        string        `env:"CATALOG_PATH,default=artifacts/recipes.json"`
	CatalogS3Bucket    string        `env:"CATALOG_S3_BUCKET"`
	CatalogS3Key       string        `env:"CATALOG_S3_KEY"`
	NutritionEndpoint  string        `env:"NUTRITION_ENDPOINT,default=http://localhost:8081"`
	NutritionTimeout   time.Duration `env:"NUTRITION_TIMEOUT,default=10s"`
	GenerationLogDir   string        `env:"GENERATION_LOG_DIR,default=logs"`
	InstrumentationOff bool          `env:"INSTRUMENTATION_OFF,default=true"`
}

type CacheConfig struct {
	RedisAddr string        `env:"REDIS_ADDR"`
	TTL       time.Duration `env:"CALCULATOR_CACHE_TTL,default=24h"`
}

type NotifyConfig struct {
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"SLACK_CHANNEL,default=#meal-plans"`
}
