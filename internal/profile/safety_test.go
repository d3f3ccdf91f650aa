package profile

import (
	"reflect"
	"testing"
)

func TestDaySplitLengthMatchesFrequency(t *testing.T) {
	for freq := 2; freq <= 6; freq++ {
		split := DaySplitForFrequency(freq)
		if len(split) != freq {
			t.Errorf("DaySplitForFrequency(%d): expected %d labels, got %v", freq, freq, split)
		}
	}
}

func TestDaySplitFallback(t *testing.T) {
	got := DaySplitForFrequency(42)
	want := []string{"Upper", "Lower", "Core"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected fallback split %v, got %v", want, got)
	}
}

func TestDeriveSafetySpecGoalOverrides(t *testing.T) {
	cases := []struct {
		name     string
		p        Profile
		wantReps string
		wantRest int
	}{
		{"AdultDefaultGoal", Profile{AgeBand: AgeBandAdult, Goal: "powerbuilding", Frequency: 3}, "6-12", 90},
		{"AdvancedStrength", Profile{AgeBand: AgeBandAdult, Level: "advanced", Goal: "strength", Frequency: 3}, "5-8", 120},
		{"BeginnerStrength", Profile{AgeBand: AgeBandAdult, Level: "beginner", Goal: "strength", Frequency: 3}, "8-12", 90},
		{"FatLoss", Profile{AgeBand: AgeBandAdult, Goal: "fat_loss", Frequency: 3}, "12-20", 60},
		{"Hypertrophy", Profile{AgeBand: AgeBandSenior60, Goal: "hypertrophy", Frequency: 3}, "8-15", 90},
		{"Olympic", Profile{AgeBand: AgeBandAdult, Goal: "olympic", Frequency: 3}, "3-6", 120},
		{"ChildBase", Profile{AgeBand: AgeBandChild, Goal: "unknown", Frequency: 3}, "10-12", 60},
		{"Older75Base", Profile{AgeBand: AgeBandOlder75, Goal: "unknown", Frequency: 2}, "12-15", 120},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := DeriveSafetySpec(tc.p)
			if spec.RepRange != tc.wantReps {
				t.Errorf("RepRange: expected %q, got %q", tc.wantReps, spec.RepRange)
			}
			if spec.RestSeconds != tc.wantRest {
				t.Errorf("RestSeconds: expected %d, got %d", tc.wantRest, spec.RestSeconds)
			}
		})
	}
}

// Age 70 is senior60, not older75: the senior band starts at 60 and the older
// band only at 75.
func TestDeriveSafetySpecSeniorScenario(t *testing.T) {
	age := 70
	p := Normalize(Raw{Age: age, Level: "beginner", Goal: "fat_loss", Environment: "home", Frequency: 2})
	if p.AgeBand != AgeBandSenior60 {
		t.Fatalf("Expected ageBand senior60 for age 70, got %s", p.AgeBand)
	}

	spec := DeriveSafetySpec(p)
	want := []string{"Upper", "Lower"}
	if !reflect.DeepEqual(spec.DaySplit, want) {
		t.Errorf("Expected day split %v, got %v", want, spec.DaySplit)
	}
	if spec.RepRange != "12-20" || spec.RestSeconds != 60 {
		t.Errorf("Expected fat_loss override 12-20/60s, got %s/%ds", spec.RepRange, spec.RestSeconds)
	}

	// Senior band adds the ballistic exclusion.
	matched := false
	for _, rx := range spec.Contraindications {
		if rx.MatchString("Box Jump") {
			matched = true
		}
	}
	if !matched {
		t.Error("Expected senior contraindications to exclude 'Box Jump'")
	}
}

func TestDeriveSafetySpecConditionRules(t *testing.T) {
	cases := []struct {
		condition string
		blocked   string
	}{
		{"hypertension", "Heavy Overhead Press"},
		{"pregnancy", "Decline Sit-Up"},
		{"knee_pain", "Jump Lunge"},
		{"lower_back_pain", "Rounded Back Deadlift"},
		{"obesity", "Burpee"},
		{"post_surgery", "Max Effort Clean"},
	}
	for _, tc := range cases {
		t.Run(tc.condition, func(t *testing.T) {
			p := Profile{AgeBand: AgeBandAdult, Conditions: []string{tc.condition}, Frequency: 3}
			spec := DeriveSafetySpec(p)
			if len(spec.Contraindications) != 1 {
				t.Fatalf("Expected exactly 1 rule for %s, got %d", tc.condition, len(spec.Contraindications))
			}
			if !spec.Contraindications[0].MatchString(tc.blocked) {
				t.Errorf("Expected rule for %s to match %q", tc.condition, tc.blocked)
			}
		})
	}
}

func TestGoalCategories(t *testing.T) {
	cases := []struct {
		goal string
		want []string
	}{
		{"strength", []string{"strength", "powerlifting", "strongman"}},
		{"hipertrofia", []string{"strength"}},
		{"fat_loss", []string{"cardio", "plyometrics"}},
		{"bajar_peso", []string{"cardio", "plyometrics"}},
		{"rehabilitación", []string{"stretching"}},
		{"something_else", []string{"strength"}},
	}
	for _, tc := range cases {
		if got := GoalCategories(tc.goal); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("GoalCategories(%q): expected %v, got %v", tc.goal, tc.want, got)
		}
	}
}

func TestAllowedEquipment(t *testing.T) {
	t.Run("HomeWithExplicitEquipment", func(t *testing.T) {
		p := Profile{Environment: "home", AgeBand: AgeBandAdult, AvailableEquipment: []string{"dumbbell", "band"}}
		got := AllowedEquipment(p)
		if !reflect.DeepEqual(got, []string{"dumbbell", "band"}) {
			t.Errorf("Expected explicit equipment list, got %v", got)
		}
	})
	t.Run("SeniorGym", func(t *testing.T) {
		p := Profile{Environment: "gym", AgeBand: AgeBandSenior60}
		got := AllowedEquipment(p)
		for _, banned := range []string{"barbell"} {
			for _, e := range got {
				if e == banned {
					t.Errorf("Senior gym set should not include %q: %v", banned, got)
				}
			}
		}
	})
	t.Run("AdultGym", func(t *testing.T) {
		p := Profile{Environment: "gym", AgeBand: AgeBandAdult}
		got := AllowedEquipment(p)
		found := false
		for _, e := range got {
			if e == "barbell" {
				found = true
			}
		}
		if !found {
			t.Errorf("Adult gym set should include barbell: %v", got)
		}
	})
}

func TestTargetMuscles(t *testing.T) {
	if got := TargetMuscles("Día 1 - Upper"); len(got) != 9 {
		t.Errorf("Expected 9 upper targets, got %v", got)
	}
	if got := TargetMuscles("Lower"); len(got) != 6 {
		t.Errorf("Expected 6 lower targets, got %v", got)
	}
	if got := TargetMuscles("Core"); len(got) != 3 {
		t.Errorf("Expected 3 core targets, got %v", got)
	}
	if got := TargetMuscles("FullBody"); got != nil {
		t.Errorf("Expected no muscle filter for unmatched label, got %v", got)
	}
}
