package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mp "mealplanner"
)

// ProfileStore reads and writes physiological profiles.
type ProfileStore struct {
	db *DB
}

func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Profile returns the stored profile of userID, or mp.ErrProfileNotFound.
func (s *ProfileStore) Profile(ctx context.Context, userID string) (mp.Profile, error) {
	var (
		p                       mp.Profile
		weight, height          sql.NullFloat64
		birth, sex, level, goal sql.NullString
	)
	err := s.db.SQL.QueryRowContext(ctx,
		`SELECT weight_kg, height_cm, birth_date, sex, activity_level, goal
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&weight, &height, &birth, &sex, &level, &goal)
	if errors.Is(err, sql.ErrNoRows) {
		return mp.Profile{}, fmt.Errorf("%w: %s", mp.ErrProfileNotFound, userID)
	}
	if err != nil {
		return mp.Profile{}, fmt.Errorf("failed to read profile %s: %w", userID, err)
	}

	p.WeightKg, p.HeightCm = floatPtr(weight), floatPtr(height)
	p.Sex, p.ActivityLevel, p.Goal = stringPtr(sex), stringPtr(level), stringPtr(goal)
	if birth.Valid {
		t, err := time.Parse(mp.DateLayout, birth.String)
		if err != nil {
			return mp.Profile{}, fmt.Errorf("bad birth date on profile %s: %w", userID, err)
		}
		p.BirthDate = &t
	}
	return p, nil
}

// Save upserts the profile of userID.
func (s *ProfileStore) Save(ctx context.Context, userID string, p mp.Profile) error {
	var birth sql.NullString
	if p.BirthDate != nil {
		birth = sql.NullString{String: p.BirthDate.Format(mp.DateLayout), Valid: true}
	}
	_, err := s.db.SQL.ExecContext(ctx,
		`INSERT INTO profiles (user_id, weight_kg, height_cm, birth_date, sex, activity_level, goal, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   weight_kg = excluded.weight_kg, height_cm = excluded.height_cm, birth_date = excluded.birth_date,
		   sex = excluded.sex, activity_level = excluded.activity_level, goal = excluded.goal,
		   updated_at = excluded.updated_at`,
		userID, nullFloat(p.WeightKg), nullFloat(p.HeightCm), birth,
		nullString(p.Sex), nullString(p.ActivityLevel), nullString(p.Goal),
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", userID, err)
	}
	return nil
}
