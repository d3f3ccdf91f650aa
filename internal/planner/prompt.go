package planner

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"fitsense-coach/internal/catalog"
	"fitsense-coach/internal/profile"
)

//go:embed plan_prompt.tmpl
var planPromptTemplate string

// maxCandidatesPerDay caps the catalog excerpt listed per day label.
const maxCandidatesPerDay = 18

type promptDay struct {
	Label      string
	Candidates []catalog.Ranked
}

type promptData struct {
	PinnedFacts string
	Frequency   int
	DaySplit    []string
	RepRange    string
	RestSeconds int
	Cues        []string
	Days        []promptDay
}

var planPrompt = template.Must(template.New("plan").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"upper": strings.ToUpper,
	"join":  strings.Join,
}).Parse(planPromptTemplate))

// BuildPlanPrompt assembles the generation request for a monthly plan. It is
// a deterministic formatting step: days follow the spec's split order and
// each catalog excerpt is capped at maxCandidatesPerDay entries.
func BuildPlanPrompt(pinnedFacts string, p profile.Profile, spec profile.SafetySpec, candidates map[string][]catalog.Ranked) (string, error) {
	data := promptData{
		PinnedFacts: pinnedFacts,
		Frequency:   p.Frequency,
		DaySplit:    spec.DaySplit,
		RepRange:    spec.RepRange,
		RestSeconds: spec.RestSeconds,
		Cues:        spec.Cues,
	}
	seen := make(map[string]struct{})
	for _, label := range spec.DaySplit {
		// Repeated labels (e.g. Upper/Lower/Upper/Lower) share one excerpt.
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		rows := candidates[label]
		if len(rows) > maxCandidatesPerDay {
			rows = rows[:maxCandidatesPerDay]
		}
		data.Days = append(data.Days, promptDay{Label: label, Candidates: rows})
	}

	var buf bytes.Buffer
	if err := planPrompt.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
