package planner

import (
	"strings"
	"testing"

	"fitsense-coach/internal/catalog"
	"fitsense-coach/internal/profile"
)

func TestBuildPlanPrompt(t *testing.T) {
	p := profile.Profile{Level: "beginner", Goal: "strength", Environment: "home", Frequency: 4}
	spec := profile.SafetySpec{
		RepRange:    "8-12",
		RestSeconds: 90,
		Cues:        []string{"técnica estricta", "progresión gradual"},
		DaySplit:    []string{"Upper", "Lower", "Upper", "Lower"},
	}
	candidates := map[string][]catalog.Ranked{
		"Upper": {
			{Candidate: catalog.Candidate{Name: "Push Up", Level: "beginner", Equipment: "body only", PrimaryMuscle: "chest", Category: "strength"}, Score: 12},
		},
		"Lower": {
			{Candidate: catalog.Candidate{Name: "Goblet Squat", Level: "beginner", Equipment: "dumbbell", PrimaryMuscle: "quadriceps", Category: "strength"}, Score: 12},
		},
	}

	prompt, err := BuildPlanPrompt("El usuario se llama Ana.", p, spec, candidates)
	if err != nil {
		t.Fatalf("BuildPlanPrompt failed: %v", err)
	}

	for _, want := range []string{
		"El usuario se llama Ana.",
		"EXACTAMENTE 4 días",
		"Día 1: Upper",
		"Día 4: Lower",
		"Rango de repeticiones: 8-12",
		"Descanso entre series: 90s",
		"técnica estricta, progresión gradual",
		"CATÁLOGO UPPER:",
		"CATÁLOGO LOWER:",
		"1. Push Up — músculo: chest | nivel: beginner | equipo: body only | categoría: strength",
		`"Día 1 - Upper", "Día 2 - Lower", "Día 3 - Upper", "Día 4 - Lower"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Upper appears twice in the split but its catalog is listed once.
	if n := strings.Count(prompt, "CATÁLOGO UPPER:"); n != 1 {
		t.Errorf("repeated label listed %d times, want 1", n)
	}
}

func TestBuildPlanPromptCapsCandidates(t *testing.T) {
	rows := make([]catalog.Ranked, 30)
	for i := range rows {
		rows[i] = catalog.Ranked{Candidate: catalog.Candidate{Name: "Exercise " + strings.Repeat("I", i+1)}}
	}
	spec := profile.SafetySpec{RepRange: "8-12", RestSeconds: 90, DaySplit: []string{"Core"}}

	prompt, err := BuildPlanPrompt("", profile.Profile{Frequency: 1}, spec, map[string][]catalog.Ranked{"Core": rows})
	if err != nil {
		t.Fatalf("BuildPlanPrompt failed: %v", err)
	}
	if strings.Contains(prompt, rows[maxCandidatesPerDay].Name) {
		t.Errorf("candidate beyond the cap leaked into the prompt")
	}
	if !strings.Contains(prompt, rows[maxCandidatesPerDay-1].Name) {
		t.Errorf("last in-cap candidate missing from the prompt")
	}
}
