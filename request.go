package mealplanner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPlanName = "Auto plan"
	DateLayout      = "2006-01-02"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrProfileNotFound = errors.New("profile not found")
)

type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
	SlotSnack     Slot = "snack"
)

var knownSlots = map[Slot]bool{
	SlotBreakfast: true,
	SlotLunch:     true,
	SlotDinner:    true,
	SlotSnack:     true,
}

// ParseSlot normalises a slot name and rejects names outside the known set.
func ParseSlot(s string) (Slot, error) {
	slot := Slot(strings.ToLower(strings.TrimSpace(s)))
	if !knownSlots[slot] {
		return "", fmt.Errorf("%w: unknown slot %q", ErrInvalidRequest, s)
	}
	return slot, nil
}

// ParseSlots parses a list of slot names, keeping their order.
func ParseSlots(names []string) ([]Slot, error) {
	slots := make([]Slot, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		s, err := ParseSlot(n)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidRequest, s)
	}
	return t, nil
}

// Request describes one plan generation.
type Request struct {
	UserID        string    `json:"user_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Slots         []Slot    `json:"slots"`
	CalorieTarget *float64  `json:"calorie_target,omitempty"`
	TagIDs        []string  `json:"tag_ids,omitempty"`
	MaxPrepTime   *int      `json:"max_prep_time,omitempty"`
	Name          string    `json:"name,omitempty"`
}

// Validate checks the request shape. Every failure wraps ErrInvalidRequest.
func (r Request) Validate() error {
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	}
	if Day(r.EndDate).Before(Day(r.StartDate)) {
		return fmt.Errorf("%w: end date %s is before start date %s",
			ErrInvalidRequest, r.EndDate.Format(DateLayout), r.StartDate.Format(DateLayout))
	}
	if len(r.Slots) == 0 {
		return fmt.Errorf("%w: at least one slot is required", ErrInvalidRequest)
	}
	seen := make(map[Slot]bool, len(r.Slots))
	for _, s := range r.Slots {
		if !knownSlots[s] {
			return fmt.Errorf("%w: unknown slot %q", ErrInvalidRequest, s)
		}
		if seen[s] {
			return fmt.Errorf("%w: duplicate slot %q", ErrInvalidRequest, s)
		}
		seen[s] = true
	}
	if r.CalorieTarget != nil && *r.CalorieTarget <= 0 {
		return fmt.Errorf("%w: calorie target must be positive", ErrInvalidRequest)
	}
	if r.MaxPrepTime != nil && *r.MaxPrepTime < 0 {
		return fmt.Errorf("%w: max prep time must not be negative", ErrInvalidRequest)
	}
	return nil
}

// PlanName returns the display name, falling back to DefaultPlanName.
func (r Request) PlanName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return DefaultPlanName
}

func (r Request) Filter() RecipeFilter {
	return RecipeFilter{
		UserID:      r.UserID,
		TagIDs:      r.TagIDs,
		MaxPrepTime: r.MaxPrepTime,
	}
}
