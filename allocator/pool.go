// Package allocator assigns recipes and serving counts to the cells of a plan grid.
package allocator

import (
	"math"

	mp "mealplanner"
)

const (
	BalanceIterations    = 3
	BalanceTolerance     = 0.10
	WarningTolerance     = 0.15
	VarietyPenalty       = 0.3
	ServingCapMultiplier = 2
)

// Candidate is a recipe snapshot with its per-serving calories derived once for the run.
type Candidate struct {
	mp.Recipe
	ServingsPerBatch   int
	PerServingCalories *float64
}

func newCandidate(r mp.Recipe) Candidate {
	spb := r.Servings
	if spb <= 0 {
		spb = 1
	}
	c := Candidate{Recipe: r, ServingsPerBatch: spb}
	if r.Calories != nil {
		ps := *r.Calories / float64(spb)
		c.PerServingCalories = &ps
	}
	return c
}

// MaxServings is the serving cap for one cell.
func (c Candidate) MaxServings() int {
	return c.ServingsPerBatch * ServingCapMultiplier
}

// OptimalServings returns the clamped serving count closest to calories.
// Recipes without calorie data get one serving.
func (c Candidate) OptimalServings(calories float64) int {
	if c.PerServingCalories == nil || *c.PerServingCalories <= 0 {
		return 1
	}
	return c.clamp(math.Round(calories / *c.PerServingCalories))
}

func (c Candidate) clamp(servings float64) int {
	if math.IsNaN(servings) || servings < 1 {
		return 1
	}
	if limit := c.MaxServings(); servings > float64(limit) {
		return limit
	}
	return int(servings)
}

// Calories returns the calories supplied by servings, zero when unknown.
func (c Candidate) Calories(servings int) float64 {
	if c.PerServingCalories == nil {
		return 0
	}
	return *c.PerServingCalories * float64(servings)
}

// distance is how far the optimal serving count for calories lands from it.
func (c Candidate) distance(calories float64) float64 {
	return math.Abs(c.Calories(c.OptimalServings(calories)) - calories)
}

func (c Candidate) perServing(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v / float64(c.ServingsPerBatch)
}

// Pool is the immutable, ordered candidate list for one generation run.
type Pool struct {
	candidates []Candidate
	byID       map[string]int
}

// NewPool keeps the catalog order, which decides every tie-break downstream.
func NewPool(recipes []mp.Recipe) *Pool {
	p := &Pool{
		candidates: make([]Candidate, 0, len(recipes)),
		byID:       make(map[string]int, len(recipes)),
	}
	for _, r := range recipes {
		if _, dup := p.byID[r.ID]; dup {
			continue
		}
		p.byID[r.ID] = len(p.candidates)
		p.candidates = append(p.candidates, newCandidate(r))
	}
	return p
}

func (p *Pool) Len() int { return len(p.candidates) }

func (p *Pool) Candidates() []Candidate { return p.candidates }

func (p *Pool) Lookup(id string) (Candidate, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Candidate{}, false
	}
	return p.candidates[i], true
}

// HasCalorieData reports whether at least one candidate knows its calories.
func (p *Pool) HasCalorieData() bool {
	for _, c := range p.candidates {
		if c.PerServingCalories != nil {
			return true
		}
	}
	return false
}

// closest returns the candidate with known calories whose optimal serving count
// lands nearest to calories. The first candidate wins ties.
func (p *Pool) closest(calories float64) (Candidate, float64, bool) {
	var (
		best     Candidate
		bestDist = math.Inf(1)
		found    bool
	)
	for _, c := range p.candidates {
		if c.PerServingCalories == nil {
			continue
		}
		if d := c.distance(calories); d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, bestDist, found
}

// entryCalories is the calories an entry contributes. Unknown recipes contribute zero.
func (p *Pool) entryCalories(e mp.Entry) float64 {
	c, ok := p.Lookup(e.RecipeID)
	if !ok {
		return 0
	}
	return c.Calories(e.Servings)
}
