package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mp "mealplanner"
)

var ErrNoCalculator = errors.New("no macro calculator configured")

// ResolveTargets returns the daily macro target for req and its split across req.Slots.
//
// An explicit calorie target always wins. Without one the user's profile is read and,
// when every field is present, handed to the calculator. A missing profile record is an
// error; an incomplete profile resolves to no target at all (nil, nil, nil).
func ResolveTargets(ctx context.Context, calc mp.Calculator, profiles mp.ProfileSource, req mp.Request) (*mp.MacroTarget, []mp.SlotTarget, error) {
	var daily *mp.MacroTarget

	switch {
	case req.CalorieTarget != nil:
		t := mp.MacroTargetFromCalories(*req.CalorieTarget)
		daily = &t
		slog.Info("SETUP: Using explicit calorie target", "calories", t.Calories)

	case profiles != nil:
		profile, err := profiles.Profile(ctx, req.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load profile: %w", err)
		}
		if !profile.Complete() {
			slog.Info("SETUP: Profile incomplete, generating without targets", "user_id", req.UserID)
			return nil, nil, nil
		}
		if calc == nil {
			return nil, nil, ErrNoCalculator
		}
		t, err := calc.DailyTarget(ctx, profile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to calculate daily target: %w", err)
		}
		daily = &t
		slog.Info("SETUP: Resolved daily target from profile", "calories", t.Calories)

	default:
		return nil, nil, nil
	}

	if calc == nil {
		return nil, nil, ErrNoCalculator
	}
	slots, err := calc.SlotTargets(ctx, *daily, req.Slots)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to distribute slot targets: %w", err)
	}
	return daily, slots, nil
}
