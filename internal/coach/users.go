package coach

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"fitsense-coach/internal/profile"
)

// User is one row of the users table. Conditions and equipment are stored as
// JSON arrays.
type User struct {
	ID          string
	Name        string
	Age         *int
	WeightKg    *float64
	HeightCm    *float64
	Level       string
	Goal        string
	Environment string
	Frequency   int
	Conditions  []string
	Equipment   []string
}

// UserRepository reads and writes user rows.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Get loads a user by id. A missing user returns (nil, nil).
func (r *UserRepository) Get(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, age, weight_kg, height_cm, level, goal, environment, frequency, conditions_json, equipment_json
		 FROM users WHERE id = ?`, id)

	var (
		u              User
		conditionsJSON string
		equipmentJSON  sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Age, &u.WeightKg, &u.HeightCm,
		&u.Level, &u.Goal, &u.Environment, &u.Frequency, &conditionsJSON, &equipmentJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(conditionsJSON), &u.Conditions); err != nil {
		u.Conditions = nil
	}
	if equipmentJSON.Valid {
		if err := json.Unmarshal([]byte(equipmentJSON.String), &u.Equipment); err != nil {
			u.Equipment = nil
		}
	}
	return &u, nil
}

// Upsert inserts or replaces a user row.
func (r *UserRepository) Upsert(ctx context.Context, u *User) error {
	conditions, err := json.Marshal(u.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}
	var equipment any
	if u.Equipment != nil {
		data, err := json.Marshal(u.Equipment)
		if err != nil {
			return fmt.Errorf("failed to marshal equipment: %w", err)
		}
		equipment = string(data)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, age, weight_kg, height_cm, level, goal, environment, frequency, conditions_json, equipment_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, age = excluded.age, weight_kg = excluded.weight_kg,
		   height_cm = excluded.height_cm, level = excluded.level, goal = excluded.goal,
		   environment = excluded.environment, frequency = excluded.frequency,
		   conditions_json = excluded.conditions_json, equipment_json = excluded.equipment_json`,
		u.ID, u.Name, u.Age, u.WeightKg, u.HeightCm, u.Level, u.Goal,
		u.Environment, u.Frequency, string(conditions), equipment)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", u.ID, err)
	}
	return nil
}

// levelAliases maps stored Spanish levels onto the canonical enum.
var levelAliases = map[string]string{
	"principiante": "beginner",
	"intermedio":   "intermediate",
	"avanzado":     "advanced",
}

// goalAliases maps stored Spanish and legacy English goals onto the
// canonical enum.
var goalAliases = map[string]string{
	"perder peso":              "fat_loss",
	"bajar de peso":            "fat_loss",
	"weight_loss":              "fat_loss",
	"lose_weight":              "fat_loss",
	"aumento de masa muscular": "hypertrophy",
	"muscle_gain":              "hypertrophy",
	"fuerza":                   "strength",
	"resistencia":              "endurance",
	"movilidad":                "mobility",
	"rehabilitacion":           "rehab",
	"rehabilitación":           "rehab",
}

// ProfileInput maps a user row into the loosely-typed profile form the plan
// pipeline normalizes. Heights are stored in cm and converted to meters.
func (u *User) ProfileInput() profile.Raw {
	raw := profile.Raw{
		Level:       canonical(u.Level, levelAliases),
		Goal:        canonical(u.Goal, goalAliases),
		Environment: u.Environment,
		Frequency:   u.Frequency,
		Conditions:  u.Conditions,
	}
	if u.Age != nil {
		raw.Age = *u.Age
	}
	if u.WeightKg != nil {
		raw.WeightKg = *u.WeightKg
	}
	if u.HeightCm != nil {
		raw.HeightM = *u.HeightCm / 100
	}
	if u.Equipment != nil {
		raw.AvailableEquipment = u.Equipment
	}
	return raw
}

func canonical(value string, aliases map[string]string) string {
	if mapped, ok := aliases[strings.ToLower(value)]; ok {
		return mapped
	}
	return value
}
