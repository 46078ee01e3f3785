package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	mp "mealplanner"
)

type RecipeSearch struct{ catalog mp.RecipeCatalog }

func NewRecipeSearch(catalog mp.RecipeCatalog) *RecipeSearch {
	return &RecipeSearch{catalog: catalog}
}

func (t *RecipeSearch) Name() string  { return "recipe_search" }
func (t *RecipeSearch) Title() string { return "Search Recipes" }
func (t *RecipeSearch) Description() string {
	return "Lists the recipes a user can plan with, filtered by tags (any match) and maximum prep time (optional)."
}

func (t *RecipeSearch) InputSchema() *jsonschema.Schema {
	minPrep := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"user_id": {Type: "string"},
			"tag_ids": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"max_prep_time": {Type: "integer", Minimum: &minPrep},
		},
		Required: []string{"user_id"},
	}
}

func (t *RecipeSearch) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipes": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id":       {Type: "string"},
						"name":     {Type: "string"},
						"calories": {Type: "number"},
						"servings": {Type: "integer"},
					},
					Required: []string{"id", "name", "servings"},
				},
			},
		},
		Required: []string{"recipes"},
	}
}

func (t *RecipeSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var filter mp.RecipeFilter
	if err := decodeInput(input, &filter); err != nil {
		return nil, err
	}

	recipes, err := t.catalog.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	return encodeOutput(struct {
		Recipes []mp.Recipe `json:"recipes"`
	}{Recipes: recipes})
}
