package coach

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Summary is one stored conversation summary.
type Summary struct {
	Text      string
	SessionID string
	CreatedAt time.Time
}

// SummaryRepository stores end-of-session conversation summaries.
type SummaryRepository struct {
	db *sql.DB
}

// NewSummaryRepository creates a new SummaryRepository.
func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Save persists one summary.
func (r *SummaryRepository) Save(ctx context.Context, userID, sessionID, text string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO conversation_summaries (user_id, summary_text, session_id, created_at) VALUES (?, ?, ?, ?)",
		userID, text, sessionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save summary for user %s: %w", userID, err)
	}
	return nil
}

// GetRecent returns the user's newest summaries, most recent first.
func (r *SummaryRepository) GetRecent(ctx context.Context, userID string, limit int) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT summary_text, session_id, created_at FROM conversation_summaries WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load summaries for user %s: %w", userID, err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Text, &s.SessionID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
