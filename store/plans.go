package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mp "mealplanner"
)

var ErrPlanNotFound = errors.New("plan not found")

// PlanStore is a database-backed store for generated plans.
type PlanStore struct {
	db *DB
}

func NewPlanStore(db *DB) *PlanStore {
	return &PlanStore{db: db}
}

// CreatePlan inserts the plan and all of its entries in one transaction.
// Either everything is written or nothing is.
func (s *PlanStore) CreatePlan(ctx context.Context, plan mp.Plan) error {
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO meal_plans (id, user_id, name, start_date, end_date, target_calories, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			plan.ID, plan.UserID, plan.Name,
			plan.StartDate.Format(mp.DateLayout), plan.EndDate.Format(mp.DateLayout),
			nullFloat(plan.TargetCalories), plan.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to insert plan %s: %w", plan.ID, err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO meal_plan_entries (plan_id, position, recipe_id, entry_date, slot, servings)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare entry insert: %w", err)
		}
		defer stmt.Close()

		for i, e := range plan.Entries {
			if _, err := stmt.ExecContext(ctx, plan.ID, i, e.RecipeID, e.Date.Format(mp.DateLayout), string(e.Slot), e.Servings); err != nil {
				return fmt.Errorf("failed to insert entry %d of plan %s: %w", i, plan.ID, err)
			}
		}
		return nil
	})
}

// GetPlan returns a plan with its entries in the order they were planned.
func (s *PlanStore) GetPlan(ctx context.Context, id string) (mp.Plan, error) {
	var (
		plan              mp.Plan
		start, end, stamp string
		target            sql.NullFloat64
	)
	err := s.db.SQL.QueryRowContext(ctx,
		`SELECT id, user_id, name, start_date, end_date, target_calories, created_at
		 FROM meal_plans WHERE id = ?`, id,
	).Scan(&plan.ID, &plan.UserID, &plan.Name, &start, &end, &target, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return mp.Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	if err != nil {
		return mp.Plan{}, fmt.Errorf("failed to read plan %s: %w", id, err)
	}

	if plan.StartDate, err = time.Parse(mp.DateLayout, start); err != nil {
		return mp.Plan{}, fmt.Errorf("bad start date on plan %s: %w", id, err)
	}
	if plan.EndDate, err = time.Parse(mp.DateLayout, end); err != nil {
		return mp.Plan{}, fmt.Errorf("bad end date on plan %s: %w", id, err)
	}
	if plan.CreatedAt, err = time.Parse(timeLayout, stamp); err != nil {
		return mp.Plan{}, fmt.Errorf("bad created_at on plan %s: %w", id, err)
	}
	plan.TargetCalories = floatPtr(target)

	rows, err := s.db.SQL.QueryContext(ctx,
		`SELECT recipe_id, entry_date, slot, servings
		 FROM meal_plan_entries WHERE plan_id = ? ORDER BY position`, id)
	if err != nil {
		return mp.Plan{}, fmt.Errorf("failed to read entries of plan %s: %w", id, err)
	}
	defer rows.Close()

	plan.Entries = []mp.Entry{}
	for rows.Next() {
		var (
			e    mp.Entry
			date string
			slot string
		)
		if err := rows.Scan(&e.RecipeID, &date, &slot, &e.Servings); err != nil {
			return mp.Plan{}, fmt.Errorf("failed to scan entry: %w", err)
		}
		if e.Date, err = time.Parse(mp.DateLayout, date); err != nil {
			return mp.Plan{}, fmt.Errorf("bad entry date on plan %s: %w", id, err)
		}
		e.Slot = mp.Slot(slot)
		plan.Entries = append(plan.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return mp.Plan{}, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return plan, nil
}
