package profile

import (
	"regexp"
	"strings"
)

// SafetySpec holds the volume, rest, and exclusion targets derived from a
// profile. Derived once per generation request and immutable thereafter.
type SafetySpec struct {
	RepRange          string
	RestSeconds       int
	Cues              []string
	Contraindications []*regexp.Regexp
	DaySplit          []string
}

type volumeBase struct {
	reps string
	rest int
	cues []string
}

// Base volume targets per age band.
var ageBase = map[AgeBand]volumeBase{
	AgeBandChild:    {reps: "10-12", rest: 60, cues: []string{"juego/variedad", "técnica básica", "evitar cargas máximas"}},
	AgeBandAdult:    {reps: "6-12", rest: 90, cues: []string{"RPE 7-8", "técnica estricta"}},
	AgeBandSenior60: {reps: "10-15", rest: 90, cues: []string{"RPE 6-7", "evitar alto impacto", "control y estabilidad"}},
	AgeBandOlder75:  {reps: "12-15", rest: 120, cues: []string{"RPE 5-6", "nada balístico", "equilibrio y movilidad"}},
}

// Exercise-name exclusion rules. An exercise is excluded when it matches ANY
// active rule; rules are additive and order-independent.
var (
	ballisticRule = regexp.MustCompile(`(?i)plyo|jump|burpee|box jump|snatch|clean|jerk|sprint|high impact`)

	conditionRules = map[string]*regexp.Regexp{
		"hypertension":    regexp.MustCompile(`(?i)valsalva|heavy overhead press`),
		"pregnancy":       regexp.MustCompile(`(?i)prone crunch|sit-up|hip thrust heavy`),
		"knee_pain":       regexp.MustCompile(`(?i)deep squat|jump lunge|box jump`),
		"lower_back_pain": regexp.MustCompile(`(?i)good morning heavy|rounded back deadlift`),
		"obesity":         regexp.MustCompile(`(?i)burpee|high impact run`),
		"post_surgery":    regexp.MustCompile(`(?i)max effort|olympic lift`),
	}

	// Order keeps pattern accumulation deterministic for a given profile.
	conditionOrder = []string{"hypertension", "pregnancy", "knee_pain", "lower_back_pain", "obesity", "post_surgery"}
)

// DeriveSafetySpec maps a canonical profile to its safety spec: age-band base
// volume, goal overrides, contraindication patterns, and the day split.
func DeriveSafetySpec(p Profile) SafetySpec {
	base := ageBase[p.AgeBand]

	spec := SafetySpec{
		RepRange:    base.reps,
		RestSeconds: base.rest,
		Cues:        base.cues,
		DaySplit:    DaySplitForFrequency(p.Frequency),
	}

	switch p.Goal {
	case "strength":
		if p.Level == "advanced" {
			spec.RepRange = "5-8"
			spec.RestSeconds = 120
		} else {
			spec.RepRange = "8-12"
		}
	case "hypertrophy":
		spec.RepRange = "8-15"
		spec.RestSeconds = 90
	case "fat_loss", "endurance":
		spec.RepRange = "12-20"
		spec.RestSeconds = 60
	case "mobility":
		spec.RepRange = "10-15"
		spec.RestSeconds = 60
	case "rehab":
		spec.RepRange = "10-15"
		spec.RestSeconds = 90
	case "olympic", "weightlifting":
		spec.RepRange = "3-6"
		spec.RestSeconds = 120
	}

	if p.AgeBand == AgeBandSenior60 || p.AgeBand == AgeBandOlder75 {
		spec.Contraindications = append(spec.Contraindications, ballisticRule)
	}
	for _, tag := range conditionOrder {
		if p.HasCondition(tag) {
			spec.Contraindications = append(spec.Contraindications, conditionRules[tag])
		}
	}

	return spec
}

// DaySplitForFrequency returns the ordered day labels for a weekly frequency.
// For every valid frequency the split length equals the frequency.
func DaySplitForFrequency(freq int) []string {
	switch freq {
	case 1:
		return []string{"FullBody"}
	case 2:
		return []string{"Upper", "Lower"}
	case 3:
		return []string{"Upper", "Lower", "Core"}
	case 4:
		return []string{"Upper", "Lower", "Upper", "Lower"}
	case 5:
		return []string{"Upper", "Lower", "Core", "Upper", "Lower"}
	case 6:
		return []string{"Push", "Pull", "Legs", "Upper", "Lower", "Core"}
	case 7:
		return []string{"FullBody", "Upper", "Lower", "Core", "Push", "Pull", "MobilityLight"}
	default:
		return []string{"Upper", "Lower", "Core"}
	}
}

// GoalCategories maps a goal (including Spanish aliases) to the catalog
// categories queried for it.
func GoalCategories(goal string) []string {
	aliases := map[string]string{
		"fuerza":         "strength",
		"hipertrofia":    "hypertrophy",
		"resistencia":    "endurance",
		"movilidad":      "mobility",
		"rehabilitacion": "rehab",
		"rehabilitación": "rehab",
		"bajar_peso":     "fat_loss",
		"grasa":          "fat_loss",
		"peso":           "fat_loss",
		"olimpico":       "olympic",
	}
	key := goal
	if canonical, ok := aliases[goal]; ok {
		key = canonical
	}

	categories := map[string][]string{
		"strength":      {"strength", "powerlifting", "strongman"},
		"hypertrophy":   {"strength"},
		"fat_loss":      {"cardio", "plyometrics"},
		"endurance":     {"cardio", "plyometrics"},
		"mobility":      {"stretching"},
		"rehab":         {"stretching"},
		"olympic":       {"olympic weightlifting"},
		"weightlifting": {"olympic weightlifting"},
	}
	if cats, ok := categories[key]; ok {
		return cats
	}
	return []string{"strength"}
}

// AllowedEquipment returns the equipment tags a profile may train with.
// Explicit home equipment wins; seniors get a restricted low-impact set.
func AllowedEquipment(p Profile) []string {
	if p.Environment == "home" && len(p.AvailableEquipment) > 0 {
		return p.AvailableEquipment
	}
	if p.AgeBand == AgeBandSenior60 || p.AgeBand == AgeBandOlder75 {
		if p.Environment == "gym" {
			return []string{"machine", "cable", "smith machine", "band", "dumbbell", "body only"}
		}
		return []string{"body only", "band", "dumbbell", "kettlebell", "none"}
	}
	if p.Environment == "gym" {
		return []string{"machine", "barbell", "dumbbell", "kettlebell", "cable", "smith machine", "body only"}
	}
	return []string{"body only", "band", "dumbbell", "kettlebell", "none"}
}

// TargetMuscles returns the primary-muscle groups for a day label. Unmatched
// labels get no muscle filter.
func TargetMuscles(dayLabel string) []string {
	label := strings.ToLower(dayLabel)
	switch {
	case strings.Contains(label, "upper"):
		return []string{"chest", "shoulders", "lats", "back", "middle back", "upper back", "biceps", "triceps", "forearms"}
	case strings.Contains(label, "lower"):
		return []string{"quadriceps", "hamstrings", "glutes", "calves", "adductors", "abductors"}
	case strings.Contains(label, "core"):
		return []string{"abdominals", "obliques", "lower back"}
	default:
		return nil
	}
}
