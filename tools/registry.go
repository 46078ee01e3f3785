package tools

import (
	"context"
	"fmt"
	"sort"

	mp "mealplanner"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a tool registry over the plan generator and the recipe catalog.
func NewRegistry(gen mp.Generator, catalog mp.RecipeCatalog) (*Registry, error) {
	if gen == nil || catalog == nil {
		return nil, fmt.Errorf("generator and catalog are required")
	}
	tools := map[string]Tool{
		"plan_generate": NewPlanGenerate(gen),
		"recipe_search": NewRecipeSearch(catalog),
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry sorted by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}

// Dispatch validates the call input against the tool's input schema, then runs the tool.
func (r Registry) Dispatch(ctx context.Context, call Call) (map[string]any, error) {
	tool, err := r.GetTool(call.Name)
	if err != nil {
		return nil, err
	}
	input := call.Input
	if input == nil {
		input = map[string]any{}
	}
	if err := validateInput(tool, input); err != nil {
		return nil, err
	}
	return tool.Run(ctx, input)
}

func validateInput(tool Tool, input map[string]any) error {
	resolved, err := tool.InputSchema().Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve input schema of tool %q: %w", tool.Name(), err)
	}
	// validate the JSON form so Go-typed slices and numbers look like decoded JSON
	instance, err := encodeOutput(input)
	if err != nil {
		return err
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("invalid input for tool %q: %w", tool.Name(), err)
	}
	return nil
}
