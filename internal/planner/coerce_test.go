package planner

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func weekJSON(number int, dayNames ...string) string {
	var days []string
	for _, name := range dayNames {
		days = append(days, `{"name":"`+name+`","exercises":[{"name":"Push Up","sets":3,"reps":"10","rest_sec":60}]}`)
	}
	return `{"week":` + strconv.Itoa(number) + `,"days":[` + strings.Join(days, ",") + `]}`
}

func TestCoerceConformantInputIsStable(t *testing.T) {
	weeks := []string{
		weekJSON(1, "Día 1 - Upper", "Día 2 - Lower", "Día 3 - Core"),
		weekJSON(2, "Día 1 - Upper", "Día 2 - Lower", "Día 3 - Core"),
		weekJSON(3, "Día 1 - Upper", "Día 2 - Lower", "Día 3 - Core"),
		weekJSON(4, "Día 1 - Upper", "Día 2 - Lower", "Día 3 - Core"),
	}
	raw := `{"weeks":[` + strings.Join(weeks, ",") + `]}`

	plan, err := Coerce(raw, 3)
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if len(plan.Weeks) != 4 {
		t.Fatalf("expected 4 weeks, got %d", len(plan.Weeks))
	}
	for i, w := range plan.Weeks {
		if w.Number != i+1 {
			t.Errorf("week %d numbered %d", i, w.Number)
		}
		if len(w.Days) != 3 {
			t.Errorf("week %d has %d days, want 3", w.Number, len(w.Days))
		}
		if w.Days[0].Name != "Día 1 - Upper" {
			t.Errorf("week %d day 1 name changed to %q", w.Number, w.Days[0].Name)
		}
	}
}

func TestCoerceClonesShortPlanToFourWeeks(t *testing.T) {
	raw := `{"weeks":[` +
		weekJSON(1, "Día 1 - Upper", "Día 2 - Lower", "Día 3 - Core") + "," +
		weekJSON(2, "Día 1 - Upper", "Día 2 - Lower", "Día 3 - Core") +
		`]}`

	plan, err := Coerce(raw, 3)
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if len(plan.Weeks) != 4 {
		t.Fatalf("expected 4 weeks, got %d", len(plan.Weeks))
	}
	for i, w := range plan.Weeks {
		if w.Number != i+1 {
			t.Errorf("week at index %d numbered %d", i, w.Number)
		}
	}

	// Week 3 must be a deep copy of week 1: mutating it must not leak back.
	plan.Weeks[2].Days[0].Exercises[0].Name = "Mutated"
	if plan.Weeks[0].Days[0].Exercises[0].Name == "Mutated" {
		t.Error("cloned week aliases its template week")
	}
}

func TestCoerceSingleOverlongWeek(t *testing.T) {
	raw := `{"weeks":[` +
		weekJSON(1, "Día 1 - Upper", "Día 2 - Lower", "Día 3 - Core", "Día 4 - Upper", "Día 5 - Lower") +
		`]}`

	plan, err := Coerce(raw, 3)
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if len(plan.Weeks) != 4 {
		t.Fatalf("expected 4 weeks, got %d", len(plan.Weeks))
	}
	for _, w := range plan.Weeks {
		if len(w.Days) != 3 {
			t.Errorf("week %d has %d days, want 3", w.Number, len(w.Days))
		}
	}
}

func TestCoerceShortWeekClonesDaysAndRenumbers(t *testing.T) {
	raw := `{"weeks":[` + weekJSON(1, "Día 1 - Upper") + `]}`

	plan, err := Coerce(raw, 3)
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	days := plan.Weeks[0].Days
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if days[1].Name != "Día 2 - Upper" {
		t.Errorf("cloned day 2 named %q", days[1].Name)
	}
	if days[2].Name != "Día 3 - Upper" {
		t.Errorf("cloned day 3 named %q", days[2].Name)
	}

	days[2].Exercises[0].Sets = 99
	if days[0].Exercises[0].Sets == 99 {
		t.Error("cloned day aliases the template day")
	}
}

func TestCoerceSessionsAlias(t *testing.T) {
	raw := `{"weeks":[{"week":1,"sessions":[{"name":"Día 1 - Upper","exercises":[{"name":"Push Up","sets":3,"reps":"10","rest_sec":60}]}]}]}`

	plan, err := Coerce(raw, 2)
	if err != nil {
		t.Fatalf("Coerce failed: %v", err)
	}
	if len(plan.Weeks[0].Days) != 2 {
		t.Fatalf("expected sessions alias to populate days, got %d days", len(plan.Weeks[0].Days))
	}
}

func TestCoerceNoPayload(t *testing.T) {
	_, err := Coerce("Lo siento, no puedo generar un plan hoy.", 3)
	if !errors.Is(err, ErrUngeneratablePlan) {
		t.Fatalf("expected ErrUngeneratablePlan, got %v", err)
	}
}

func TestCoerceEmptyWeeks(t *testing.T) {
	_, err := Coerce(`{"weeks":[]}`, 3)
	if !errors.Is(err, ErrUngeneratablePlan) {
		t.Fatalf("expected ErrUngeneratablePlan, got %v", err)
	}
}

func TestCoerceWeekWithoutDaysIsMalformed(t *testing.T) {
	raw := `{"weeks":[{"week":1,"days":[]}]}`
	_, err := Coerce(raw, 3)
	if !errors.Is(err, ErrMalformedPlan) {
		t.Fatalf("expected ErrMalformedPlan, got %v", err)
	}
}

func TestExtractPayload(t *testing.T) {
	valid := `{"weeks":[{"week":1,"days":[]}]}`

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "fenced block wins",
			text: "Aquí tienes:\n```json\n" + valid + "\n```\ny más texto {\"weeks\":1}",
			want: valid,
		},
		{
			name: "first balanced span",
			text: "El plan es " + valid + " espero que te sirva.",
			want: valid,
		},
		{
			name: "weeks anchor after invalid prefix spans",
			text: `{esto no es JSON} pero ` + valid + ` sí`,
			want: valid,
		},
		{
			name: "braces inside strings are skipped",
			text: `{"weeks":[{"week":1,"days":[{"name":"a {b} c","exercises":[]}]}]}`,
			want: `{"weeks":[{"week":1,"days":[{"name":"a {b} c","exercises":[]}]}]}`,
		},
		{
			name: "nothing parseable",
			text: "sin contenido estructurado",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPayload(tt.text); got != tt.want {
				t.Errorf("extractPayload(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
