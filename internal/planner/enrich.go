package planner

import (
	"context"
	"math"
	"strings"

	"fitsense-coach/internal/catalog"
)

// defaultBodyWeightKg is assumed when the profile has no recorded weight.
const defaultBodyWeightKg = 70

// estimated minutes spent on one exercise; a deliberate simplification.
const exerciseMinutes = 8

// AttachImages resolves every distinct exercise name through one batched
// catalog lookup and fills each instance's image field if it was unset.
// Idempotent: already-set images are left alone.
func AttachImages(ctx context.Context, store catalog.Store, plan *Plan) error {
	names := plan.ExerciseNames()
	if len(names) == 0 {
		return nil
	}

	images, err := store.FindImagesByNames(ctx, names)
	if err != nil {
		return err
	}

	for _, w := range plan.Weeks {
		for _, d := range w.Days {
			for _, e := range d.Exercises {
				if e.ImageURL != "" {
					continue
				}
				e.ImageURL = images[e.Name]
			}
		}
	}
	return nil
}

// EstimateMET classifies an exercise name into a coarse MET value. The first
// matching keyword category wins.
func EstimateMET(name string) float64 {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "squat"), strings.Contains(n, "lunge"), strings.Contains(n, "deadlift"):
		return 5.5
	case strings.Contains(n, "bench"), strings.Contains(n, "press"):
		return 4.0
	case strings.Contains(n, "row"), strings.Contains(n, "pull"):
		return 4.5
	case strings.Contains(n, "core"), strings.Contains(n, "crunch"), strings.Contains(n, "plank"):
		return 3.3
	case strings.Contains(n, "bike"), strings.Contains(n, "cardio"):
		return 6.0
	default:
		return 4.0
	}
}

// AddCalories stores a calorie estimate on every exercise instance:
// round(MET × bodyweight × hours). Idempotent: re-running recomputes the
// same values.
func AddCalories(plan *Plan, bodyWeightKg float64) {
	if bodyWeightKg <= 0 {
		bodyWeightKg = defaultBodyWeightKg
	}
	hours := float64(exerciseMinutes) / 60.0

	for _, w := range plan.Weeks {
		for _, d := range w.Days {
			for _, e := range d.Exercises {
				met := EstimateMET(e.Name)
				e.CaloriesTotal = int(math.Round(met * bodyWeightKg * hours))
			}
		}
	}
}
