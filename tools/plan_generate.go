package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	mp "mealplanner"
)

type PlanGenerate struct{ gen mp.Generator }

func NewPlanGenerate(gen mp.Generator) *PlanGenerate { return &PlanGenerate{gen: gen} }

func (t *PlanGenerate) Name() string  { return "plan_generate" }
func (t *PlanGenerate) Title() string { return "Generate Meal Plan" }
func (t *PlanGenerate) Description() string {
	return "Fills every date and slot in a range with catalog recipes and saves the plan. Returns the plan id, entries, daily totals and warnings."
}

type planGenerateInput struct {
	UserID        string   `json:"user_id"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	Slots         []string `json:"slots"`
	CalorieTarget *float64 `json:"calorie_target"`
	TagIDs        []string `json:"tag_ids"`
	MaxPrepTime   *int     `json:"max_prep_time"`
	Name          string   `json:"name"`
}

func (in planGenerateInput) request() (mp.Request, error) {
	start, err := mp.ParseDate(in.StartDate)
	if err != nil {
		return mp.Request{}, err
	}
	end, err := mp.ParseDate(in.EndDate)
	if err != nil {
		return mp.Request{}, err
	}
	slots, err := mp.ParseSlots(in.Slots)
	if err != nil {
		return mp.Request{}, err
	}
	return mp.Request{
		UserID:        in.UserID,
		StartDate:     start,
		EndDate:       end,
		Slots:         slots,
		CalorieTarget: in.CalorieTarget,
		TagIDs:        in.TagIDs,
		MaxPrepTime:   in.MaxPrepTime,
		Name:          in.Name,
	}, nil
}

func (t *PlanGenerate) InputSchema() *jsonschema.Schema {
	minCalories := 1.0
	minPrep := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"user_id":    {Type: "string"},
			"start_date": {Type: "string", Format: "date"},
			"end_date":   {Type: "string", Format: "date"},
			"slots": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "string",
					Enum: []any{string(mp.SlotBreakfast), string(mp.SlotLunch), string(mp.SlotDinner), string(mp.SlotSnack)},
				},
			},
			"calorie_target": {Type: "number", Minimum: &minCalories},
			"tag_ids": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"max_prep_time": {Type: "integer", Minimum: &minPrep},
			"name":          {Type: "string"},
		},
		Required: []string{"user_id", "start_date", "end_date", "slots"},
	}
}

func (t *PlanGenerate) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"plan_id": {Type: "string"},
			"warnings": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"entries": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"recipe_id": {Type: "string"},
						"date":      {Type: "string"},
						"slot":      {Type: "string"},
						"servings":  {Type: "integer"},
					},
					Required: []string{"recipe_id", "date", "slot", "servings"},
				},
			},
			"target": {Type: "object"},
			"days": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "object"},
			},
		},
		Required: []string{"plan_id", "warnings", "entries"},
	}
}

func (t *PlanGenerate) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in planGenerateInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	req, err := in.request()
	if err != nil {
		return nil, err
	}

	res, err := t.gen.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	return encodeOutput(res)
}
