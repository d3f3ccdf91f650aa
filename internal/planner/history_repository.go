package planner

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// HistoryRepository tracks which exercises each user has recently received,
// so consecutive plans rotate the catalog instead of repeating it.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// GetRecentlyUsedNames returns the distinct exercise names assigned to the
// user within the last windowDays days.
func (r *HistoryRepository) GetRecentlyUsedNames(ctx context.Context, userID string, windowDays int) (map[string]struct{}, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT exercise_name FROM user_exercise_history WHERE user_id = ? AND used_at >= ?",
		userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercise history for user %s: %w", userID, err)
	}
	defer rows.Close()

	used := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan exercise history row: %w", err)
		}
		used[name] = struct{}{}
	}
	return used, rows.Err()
}

// SaveChosenExercises records the exercises that ended up in a delivered plan.
func (r *HistoryRepository) SaveChosenExercises(ctx context.Context, userID string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	now := time.Now().UTC()
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("INSERT INTO user_exercise_history (user_id, exercise_name, used_at) VALUES ")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, userID, name, now)
	}

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to save exercise history for user %s: %w", userID, err)
	}
	return nil
}
