package catalog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"fitsense-coach/internal/profile"
)

// Ranked is a candidate plus its suitability score for one selection call.
type Ranked struct {
	Candidate
	Score int
}

// MinUsableCandidates is the threshold under which a day is considered
// starved: generation still proceeds, but callers should record a warning.
const MinUsableCandidates = 3

var heavyEffortRule = regexp.MustCompile(`(?i)heavy|max effort|1rm`)

var levelTier = map[string]int{"beginner": 0, "intermediate": 1, "advanced": 2}

// adjacentLevels returns the profile level plus its neighboring tiers, so the
// query admits candidates the scorer can still rank down.
func adjacentLevels(level string) []string {
	switch level {
	case "beginner":
		return []string{"beginner", "intermediate"}
	case "advanced":
		return []string{"advanced", "intermediate"}
	default:
		return []string{"beginner", "intermediate", "advanced"}
	}
}

// SelectForDay returns the top candidates for one day label, filtered by the
// profile's equipment, the exclusion set, and the contraindication rules,
// then scored and ranked. An empty result is not an error: sparse catalogs
// degrade to a short (possibly empty) list.
func SelectForDay(
	ctx context.Context,
	store Store,
	p profile.Profile,
	dayLabel string,
	categories []string,
	contraindications []*regexp.Regexp,
	excludeNames map[string]struct{},
	limit int,
) ([]Ranked, error) {
	equipments := profile.AllowedEquipment(p)
	targets := profile.TargetMuscles(dayLabel)

	// Over-fetch: downstream exclusion and contraindication filtering can
	// discard most of the raw rows.
	filter := Filter{
		Levels:            adjacentLevels(p.Level),
		Categories:        categories,
		Equipments:        equipments,
		PrimaryMuscleLike: targets,
		Limit:             limit * 5,
	}

	rows, err := store.FindCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates for %s: %w", dayLabel, err)
	}

	// Safety valve for sparse catalogs: retry once without the muscle filter.
	if len(rows) == 0 && len(targets) > 0 {
		filter.PrimaryMuscleLike = nil
		rows, err = store.FindCandidates(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch fallback candidates for %s: %w", dayLabel, err)
		}
	}

	safe := rows[:0:0]
	for _, r := range rows {
		if _, excluded := excludeNames[r.Name]; excluded {
			continue
		}
		if matchesAny(contraindications, r.Name) {
			continue
		}
		safe = append(safe, r)
	}

	ranked := rank(p, dayLabel, categories, safe)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// rank scores every candidate against the profile and sorts descending by
// score, ties broken by ascending name.
func rank(p profile.Profile, dayLabel string, categories []string, rows []Candidate) []Ranked {
	targets := profile.TargetMuscles(dayLabel)
	allowed := toSet(profile.AllowedEquipment(p))
	catSet := toSet(categories)
	senior := p.AgeBand == profile.AgeBandSenior60 || p.AgeBand == profile.AgeBandOlder75

	ranked := make([]Ranked, 0, len(rows))
	for _, r := range rows {
		score := 0

		dist := levelTier[strings.ToLower(r.Level)] - levelTier[p.Level]
		if dist < 0 {
			dist = -dist
		}
		switch dist {
		case 0:
			score += 5
		case 1:
			score += 2
		}

		if _, ok := allowed[strings.ToLower(r.Equipment)]; ok {
			score += 4
		}

		prim := strings.ToLower(r.PrimaryMuscle)
		for _, t := range targets {
			if strings.Contains(prim, t) {
				score += 3
				break
			}
		}

		if _, ok := catSet[strings.ToLower(r.Category)]; ok {
			score += 3
		}

		if senior {
			if heavyEffortRule.MatchString(r.Name) {
				score -= 4
			}
			score += 5
		}

		ranked = append(ranked, Ranked{Candidate: r, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

func matchesAny(rules []*regexp.Regexp, name string) bool {
	for _, rx := range rules {
		if rx.MatchString(name) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
