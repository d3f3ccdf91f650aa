package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// AgeBand is a coarse age classification driving safety defaults.
type AgeBand string

const (
	AgeBandChild    AgeBand = "child"
	AgeBandAdult    AgeBand = "adult"
	AgeBandSenior60 AgeBand = "senior60"
	AgeBandOlder75  AgeBand = "older75"
)

// Raw is profile data as it arrives from storage or the API: fields may be
// missing, mixed-case, or loosely typed (ages and frequencies as strings).
type Raw struct {
	Age                any      `json:"age"`
	Level              string   `json:"level"`
	Goal               string   `json:"goal"`
	Environment        string   `json:"environment"`
	Frequency          any      `json:"frequency"`
	WeightKg           float64  `json:"weight_kg"`
	HeightM            float64  `json:"height_m"`
	Conditions         []string `json:"conditions"`
	AvailableEquipment []string `json:"available_equipment"`
}

// Profile is the canonical, normalized form used by the plan pipeline.
type Profile struct {
	Age                *int
	AgeBand            AgeBand
	Level              string
	Goal               string
	Environment        string
	Frequency          int
	WeightKg           float64
	HeightM            float64
	Conditions         []string
	AvailableEquipment []string
}

// ValidationError lists every constraint a normalized profile violates.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile: %s", strings.Join(e.Violations, ", "))
}

// AgeBandFor classifies an age. Unknown ages are treated as adult.
func AgeBandFor(age *int) AgeBand {
	switch {
	case age == nil:
		return AgeBandAdult
	case *age >= 75:
		return AgeBandOlder75
	case *age >= 60:
		return AgeBandSenior60
	case *age <= 13:
		return AgeBandChild
	default:
		return AgeBandAdult
	}
}

// Normalize coerces raw profile data into canonical form. Missing fields get
// defaults, enum values are lower-cased, frequency is clamped into [2,6].
// Normalize never fails; Validate rejects what defaulting could not fix.
func Normalize(raw Raw) Profile {
	p := Profile{
		Level:       lowerOr(raw.Level, "beginner"),
		Goal:        lowerOr(raw.Goal, "strength"),
		Environment: lowerOr(raw.Environment, "home"),
		WeightKg:    raw.WeightKg,
		HeightM:     raw.HeightM,
	}

	if age, ok := parseNumber(raw.Age); ok {
		n := int(age)
		p.Age = &n
	}
	p.AgeBand = AgeBandFor(p.Age)

	freq := 3.0
	if f, ok := parseNumber(raw.Frequency); ok && f != 0 {
		freq = f
	}
	p.Frequency = clamp(int(freq), 2, 6)

	p.Conditions = lowerAll(raw.Conditions)
	if raw.AvailableEquipment != nil {
		p.AvailableEquipment = lowerAll(raw.AvailableEquipment)
	}

	return p
}

// Validate rejects a normalized profile whose fields are outside the allowed
// enums or ranges. It reports every violation, and never auto-corrects.
func (p Profile) Validate() error {
	var violations []string
	switch p.Level {
	case "beginner", "intermediate", "advanced":
	default:
		violations = append(violations, "level inválido")
	}
	switch p.Environment {
	case "home", "gym", "outdoor":
	default:
		violations = append(violations, "environment inválido")
	}
	if p.Frequency < 2 || p.Frequency > 6 {
		violations = append(violations, "frequency fuera de rango (2-6)")
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// HasCondition reports whether a normalized condition tag is present.
func (p Profile) HasCondition(tag string) bool {
	for _, c := range p.Conditions {
		if c == tag {
			return true
		}
	}
	return false
}

func lowerOr(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	return s
}

func lowerAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}

func parseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
