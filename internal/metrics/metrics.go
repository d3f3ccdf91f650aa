package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fitsense-coach/internal/shared"
)

// Store persists per-agent execution metrics (token usage and latency).
type Store struct {
	db *sql.DB
}

// NewStore creates a metrics store on an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves one agent execution. Metrics are advisory: callers log and
// continue on error instead of failing the request.
func (s *Store) Record(ctx context.Context, meta shared.AgentMeta) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO execution_metrics (agent_name, model, prompt_tokens, completion_tokens, latency_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		meta.AgentName, meta.Usage.Model, meta.Usage.PromptTokens, meta.Usage.CompletionTokens,
		meta.Latency.Milliseconds(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record metrics for %s: %w", meta.AgentName, err)
	}
	return nil
}

// AgentUsage aggregates executions per agent over a reporting window.
type AgentUsage struct {
	AgentName        string  `json:"agent_name"`
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	AvgLatencyMs     float64 `json:"avg_latency_ms"`
}

// GetUsageSince aggregates metrics recorded after `since`, grouped by agent.
func (s *Store) GetUsageSince(ctx context.Context, since time.Time) ([]AgentUsage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_name, COUNT(*), SUM(prompt_tokens), SUM(completion_tokens), AVG(latency_ms)
		 FROM execution_metrics WHERE created_at >= ? GROUP BY agent_name ORDER BY agent_name`,
		since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var usage []AgentUsage
	for rows.Next() {
		var u AgentUsage
		if err := rows.Scan(&u.AgentName, &u.Calls, &u.PromptTokens, &u.CompletionTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("failed to scan metrics row: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// Cleanup deletes metrics older than the retention window and reports how
// many rows were removed.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx, "DELETE FROM execution_metrics WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}

// FormatReport renders a usage summary for the admin report.
func FormatReport(usage []AgentUsage) string {
	if len(usage) == 0 {
		return "Sin actividad registrada."
	}

	var b strings.Builder
	b.WriteString("📊 Uso por agente\n")
	for _, u := range usage {
		fmt.Fprintf(&b, "\n%s: %d llamadas, %d+%d tokens, %.0f ms promedio",
			u.AgentName, u.Calls, u.PromptTokens, u.CompletionTokens, u.AvgLatencyMs)
	}
	return b.String()
}
