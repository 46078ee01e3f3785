// Package catalog serves recipes from a JSON document stored on disk or in S3.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	mp "mealplanner"
	"mealplanner/catalog/storage"
)

// document is the envelope form of a catalog file. A bare array of recipes is also accepted.
type document struct {
	Recipes []mp.Recipe `json:"recipes"`
}

// JSONCatalog is a read-only RecipeCatalog over a JSON document.
// The document is loaded on every query so edits are picked up without a restart.
type JSONCatalog struct {
	source storage.Source
}

func NewJSONCatalog(source storage.Source) *JSONCatalog {
	return &JSONCatalog{source: source}
}

// Load returns every recipe in the document, in document order.
func (c *JSONCatalog) Load(ctx context.Context) ([]mp.Recipe, error) {
	data, err := c.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return Decode(data)
}

// Query applies the filter in memory and keeps document order.
func (c *JSONCatalog) Query(ctx context.Context, filter mp.RecipeFilter) ([]mp.Recipe, error) {
	all, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]mp.Recipe, 0, len(all))
	for _, r := range all {
		if Matches(r, filter) {
			out = append(out, r)
		}
	}
	slog.Debug("SETUP: Catalog query", "total", len(all), "matched", len(out))
	return out, nil
}

// Decode parses either a bare recipe array or a {"recipes": [...]} document.
// Recipes without an id are rejected and a non-positive batch size becomes 1.
func Decode(data []byte) ([]mp.Recipe, error) {
	var recipes []mp.Recipe
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &recipes); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
	} else {
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
		recipes = doc.Recipes
	}

	for i := range recipes {
		if recipes[i].ID == "" {
			return nil, fmt.Errorf("catalog recipe %d (%q) has no id", i, recipes[i].Name)
		}
		if recipes[i].Servings <= 0 {
			recipes[i].Servings = 1
		}
	}
	if recipes == nil {
		recipes = []mp.Recipe{}
	}
	return recipes, nil
}

// Matches reports whether r is visible to filter.UserID and passes the tag and prep time filters.
// Any one of the filter tags is enough. A prep time limit excludes recipes without a prep time.
func Matches(r mp.Recipe, filter mp.RecipeFilter) bool {
	if !r.Public && (r.OwnerID == "" || r.OwnerID != filter.UserID) {
		return false
	}
	if filter.MaxPrepTime != nil && (r.PrepTime == nil || *r.PrepTime > *filter.MaxPrepTime) {
		return false
	}
	if len(filter.TagIDs) > 0 && !slices.ContainsFunc(filter.TagIDs, func(tag string) bool {
		return slices.Contains(r.Tags, tag)
	}) {
		return false
	}
	return true
}
