package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	mp "mealplanner"
)

// RecipeStore is the SQLite-backed recipe catalog.
type RecipeStore struct {
	db  *DB
	now func() time.Time
}

func NewRecipeStore(db *DB) *RecipeStore {
	return &RecipeStore{db: db, now: time.Now}
}

// Save upserts recipes and replaces their tags in one transaction.
// Recipes saved in one call keep their relative order in query results.
func (s *RecipeStore) Save(ctx context.Context, recipes ...mp.Recipe) error {
	base := s.now().UTC()
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		for i, r := range recipes {
			if r.ID == "" {
				return fmt.Errorf("recipe %d has no id", i)
			}
			servings := r.Servings
			if servings <= 0 {
				servings = 1
			}
			created := base.Add(time.Duration(i) * time.Microsecond).Format(timeLayout)

			_, err := tx.ExecContext(ctx,
				`INSERT INTO recipes (id, name, owner_id, is_public, calories, protein, carbs, fat, servings, prep_time, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (id) DO UPDATE SET
				   name = excluded.name, owner_id = excluded.owner_id, is_public = excluded.is_public,
				   calories = excluded.calories, protein = excluded.protein, carbs = excluded.carbs,
				   fat = excluded.fat, servings = excluded.servings, prep_time = excluded.prep_time`,
				r.ID, r.Name, nullString(nonEmpty(r.OwnerID)), r.Public,
				nullFloat(r.Calories), nullFloat(r.Protein), nullFloat(r.Carbs), nullFloat(r.Fat),
				servings, nullInt(r.PrepTime), created,
			)
			if err != nil {
				return fmt.Errorf("failed to save recipe %s: %w", r.ID, err)
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, r.ID); err != nil {
				return fmt.Errorf("failed to clear tags of recipe %s: %w", r.ID, err)
			}
			for _, tag := range r.Tags {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`, r.ID, tag); err != nil {
					return fmt.Errorf("failed to tag recipe %s: %w", r.ID, err)
				}
			}
		}
		return nil
	})
}

// Query returns the recipes owned by filter.UserID or public, ordered by creation time then id.
// A recipe matches the tag filter when it carries any of the tags. A prep time limit
// excludes recipes whose prep time is unknown.
func (s *RecipeStore) Query(ctx context.Context, filter mp.RecipeFilter) ([]mp.Recipe, error) {
	var (
		where = []string{"(r.owner_id = ? OR r.is_public = 1)"}
		args  = []any{filter.UserID}
	)
	if filter.MaxPrepTime != nil {
		where = append(where, "r.prep_time IS NOT NULL AND r.prep_time <= ?")
		args = append(args, *filter.MaxPrepTime)
	}
	if len(filter.TagIDs) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(filter.TagIDs)), ",")
		where = append(where, "EXISTS (SELECT 1 FROM recipe_tags t WHERE t.recipe_id = r.id AND t.tag_id IN ("+marks+"))")
		for _, tag := range filter.TagIDs {
			args = append(args, tag)
		}
	}

	query := `SELECT r.id, r.name, r.owner_id, r.is_public, r.calories, r.protein, r.carbs, r.fat,
	                 r.servings, r.prep_time,
	                 (SELECT group_concat(t.tag_id, ',') FROM recipe_tags t WHERE t.recipe_id = r.id)
	          FROM recipes r
	          WHERE ` + strings.Join(where, " AND ") + `
	          ORDER BY r.created_at, r.id`

	rows, err := s.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]mp.Recipe, 0)
	for rows.Next() {
		var (
			r                        mp.Recipe
			owner, tags              sql.NullString
			calories, protein, carbs sql.NullFloat64
			fat                      sql.NullFloat64
			prep                     sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Name, &owner, &r.Public, &calories, &protein, &carbs, &fat,
			&r.Servings, &prep, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		r.OwnerID = owner.String
		r.Calories, r.Protein, r.Carbs, r.Fat = floatPtr(calories), floatPtr(protein), floatPtr(carbs), floatPtr(fat)
		r.PrepTime = intPtr(prep)
		if tags.Valid && tags.String != "" {
			r.Tags = strings.Split(tags.String, ",")
			sort.Strings(r.Tags)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return recipes, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
