package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Candidate is one exercise row from the catalog. Read-only to the pipeline;
// Name is the catalog key.
type Candidate struct {
	Name            string `json:"name"`
	Level           string `json:"level"`
	Equipment       string `json:"equipment"`
	PrimaryMuscle   string `json:"primary_muscle"`
	SecondaryMuscle string `json:"secondary_muscle"`
	Category        string `json:"category"`
	ImageURL        string `json:"image_url,omitempty"`
}

// Filter narrows a candidate query. Empty slices mean "no constraint" except
// Levels/Categories/Equipments, which are always provided by the selector.
type Filter struct {
	Levels            []string
	Categories        []string
	Equipments        []string
	PrimaryMuscleLike []string
	Limit             int
}

// Store is the catalog lookup capability the pipeline depends on.
type Store interface {
	FindCandidates(ctx context.Context, f Filter) ([]Candidate, error)
	FindImagesByNames(ctx context.Context, names []string) (map[string]string, error)
}

// Repository is a SQLite-backed exercise catalog.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new catalog Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindCandidates queries exercises matching the filter, ordered by name.
func (r *Repository) FindCandidates(ctx context.Context, f Filter) ([]Candidate, error) {
	var (
		clauses []string
		args    []any
	)

	clauses = append(clauses, "LOWER(level) IN ("+placeholders(len(f.Levels))+")")
	for _, l := range f.Levels {
		args = append(args, strings.ToLower(l))
	}

	clauses = append(clauses, "LOWER(category) IN ("+placeholders(len(f.Categories))+")")
	for _, c := range f.Categories {
		args = append(args, strings.ToLower(c))
	}

	clauses = append(clauses, "LOWER(equipment) IN ("+placeholders(len(f.Equipments))+")")
	for _, e := range f.Equipments {
		args = append(args, strings.ToLower(e))
	}

	if len(f.PrimaryMuscleLike) > 0 {
		likes := make([]string, len(f.PrimaryMuscleLike))
		for i, m := range f.PrimaryMuscleLike {
			likes[i] = "LOWER(primary_muscle) LIKE ?"
			args = append(args, "%"+strings.ToLower(m)+"%")
		}
		clauses = append(clauses, "("+strings.Join(likes, " OR ")+")")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT name, level, equipment, primary_muscle, secondary_muscle, category, COALESCE(image_url, '')
		FROM exercises
		WHERE %s
		ORDER BY name ASC
		LIMIT ?`, strings.Join(clauses, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercise candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Name, &c.Level, &c.Equipment, &c.PrimaryMuscle, &c.SecondaryMuscle, &c.Category, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan exercise row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindImagesByNames resolves exercise names to image URLs in one query.
// Names without an image map to the empty string.
func (r *Repository) FindImagesByNames(ctx context.Context, names []string) (map[string]string, error) {
	images := make(map[string]string, len(names))
	if len(names) == 0 {
		return images, nil
	}

	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	query := "SELECT name, COALESCE(image_url, '') FROM exercises WHERE name IN (" + placeholders(len(names)) + ")"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercise images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, url string
		if err := rows.Scan(&name, &url); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		images[name] = url
	}
	return images, rows.Err()
}

// Upsert inserts or replaces a catalog exercise (used by ingest).
func (r *Repository) Upsert(ctx context.Context, c Candidate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exercises (name, level, equipment, primary_muscle, secondary_muscle, category, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			level = excluded.level,
			equipment = excluded.equipment,
			primary_muscle = excluded.primary_muscle,
			secondary_muscle = excluded.secondary_muscle,
			category = excluded.category,
			image_url = excluded.image_url`,
		c.Name, strings.ToLower(c.Level), strings.ToLower(c.Equipment),
		strings.ToLower(c.PrimaryMuscle), strings.ToLower(c.SecondaryMuscle),
		strings.ToLower(c.Category), nullable(c.ImageURL),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert exercise %q: %w", c.Name, err)
	}
	return nil
}

// Count returns the number of exercises in the catalog.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exercises").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count exercises: %w", err)
	}
	return n, nil
}

func placeholders(n int) string {
	if n == 0 {
		return "''"
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
