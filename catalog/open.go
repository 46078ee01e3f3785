package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	mp "mealplanner"
	"mealplanner/catalog/storage"
)

const (
	SourceSQLite = "sqlite"
	SourceFile   = "file"
	SourceS3     = "s3"
)

// Open picks the recipe catalog named by cfg.CatalogSource. The sqlite source is the
// database-backed catalog passed in by the caller.
func Open(ctx context.Context, cfg mp.PlannerConfig, sqlite mp.RecipeCatalog) (mp.RecipeCatalog, error) {
	switch cfg.CatalogSource {
	case "", SourceSQLite:
		if sqlite == nil {
			return nil, fmt.Errorf("sqlite catalog requested but no database is open")
		}
		slog.Info("SETUP: Using SQLite recipe catalog", "path", cfg.DatabasePath)
		return sqlite, nil

	case SourceFile:
		slog.Info("SETUP: Using JSON recipe catalog", "path", cfg.CatalogPath)
		return NewJSONCatalog(storage.NewFileSource(cfg.CatalogPath)), nil

	case SourceS3:
		if cfg.CatalogS3Bucket == "" || cfg.CatalogS3Key == "" {
			return nil, fmt.Errorf("missing S3 config: CATALOG_S3_BUCKET and CATALOG_S3_KEY must be set")
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		slog.Info("SETUP: Using S3 recipe catalog", "bucket", cfg.CatalogS3Bucket, "key", cfg.CatalogS3Key)
		return NewJSONCatalog(storage.NewS3Source(s3.NewFromConfig(awsCfg), cfg.CatalogS3Bucket, cfg.CatalogS3Key)), nil

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}
}
