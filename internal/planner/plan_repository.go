package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// StoredPlan is a persisted plan with its storage metadata.
type StoredPlan struct {
	ID        int64
	UserID    string
	Plan      *Plan
	CreatedAt time.Time
}

// PlanRepository is a database-backed repository for generated plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Save inserts a new plan for a user and returns its id.
func (r *PlanRepository) Save(ctx context.Context, userID string, plan *Plan) (int64, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal plan: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO routines (user_id, plan_json, created_at) VALUES (?, ?, ?)",
		userID, string(data), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to save plan for user %s: %w", userID, err)
	}
	return res.LastInsertId()
}

// GetLatest retrieves the most recent plan for a user, or nil if none exists
// (or the stored payload no longer parses).
func (r *PlanRepository) GetLatest(ctx context.Context, userID string) (*StoredPlan, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, plan_json, created_at FROM routines WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		userID)

	var (
		stored StoredPlan
		data   string
	)
	if err := row.Scan(&stored.ID, &stored.UserID, &data, &stored.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest plan for user %s: %w", userID, err)
	}

	var plan Plan
	if err := json.Unmarshal([]byte(data), &plan); err != nil {
		return nil, nil
	}
	stored.Plan = &plan
	return &stored, nil
}

// GetLastPlanDate returns when a user's most recent plan was created, or nil.
func (r *PlanRepository) GetLastPlanDate(ctx context.Context, userID string) (*time.Time, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT created_at FROM routines WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		userID)

	var created time.Time
	if err := row.Scan(&created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load last plan date for user %s: %w", userID, err)
	}
	return &created, nil
}
