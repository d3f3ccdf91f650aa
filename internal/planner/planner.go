package planner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fitsense-coach/internal/catalog"
	"fitsense-coach/internal/llm"
	"fitsense-coach/internal/profile"
	"fitsense-coach/internal/shared"
)

const candidatesPerDay = 40

// Replies for generation failures. The user always gets a message; a broken
// generation never bubbles up as an error.
const (
	noJSONReply    = "No recibí un JSON válido del generador."
	malformedReply = "Ocurrió un problema al construir el plan. Intenta de nuevo."
)

// PlanStore persists generated plans.
type PlanStore interface {
	Save(ctx context.Context, userID string, plan *Plan) (int64, error)
	GetLatest(ctx context.Context, userID string) (*StoredPlan, error)
	GetLastPlanDate(ctx context.Context, userID string) (*time.Time, error)
}

// UsageStore tracks recently assigned exercises per user.
type UsageStore interface {
	GetRecentlyUsedNames(ctx context.Context, userID string, windowDays int) (map[string]struct{}, error)
	SaveChosenExercises(ctx context.Context, userID string, names []string) error
}

// Planner assembles monthly training plans: it derives the training
// constraints from the profile, picks catalog candidates per session type,
// asks the text generator for a plan and repairs its shape before enriching
// and persisting it.
type Planner struct {
	catalog    catalog.Store
	plans      PlanStore
	usage      UsageStore
	generator  llm.TextGenerator
	windowDays int
}

// NewPlanner creates a Planner. windowDays controls how far back the
// exercise-rotation window reaches.
func NewPlanner(cat catalog.Store, plans PlanStore, usage UsageStore, generator llm.TextGenerator, windowDays int) *Planner {
	return &Planner{
		catalog:    cat,
		plans:      plans,
		usage:      usage,
		generator:  generator,
		windowDays: windowDays,
	}
}

// Request carries everything needed to generate a plan for one user.
type Request struct {
	UserID      string
	Profile     profile.Raw
	PinnedFacts string
	System      string
}

// Result is what a generation attempt produced. Reply is always populated;
// Plan is nil when the generator output could not be repaired into a plan.
type Result struct {
	Reply           string
	Plan            *Plan
	ChosenExercises []string
	Warnings        []string
	Metas           []shared.AgentMeta
}

// GenerateMonthlyPlan runs the full pipeline for one request. It returns an
// error only for invalid profiles (as *profile.ValidationError) and
// infrastructure failures; generation-quality problems come back as a Result
// with a user-facing Reply and a nil Plan, and nothing is persisted.
func (pl *Planner) GenerateMonthlyPlan(ctx context.Context, req Request) (Result, error) {
	prof := profile.Normalize(req.Profile)
	if err := prof.Validate(); err != nil {
		return Result{}, err
	}

	spec := profile.DeriveSafetySpec(prof)
	categories := profile.GoalCategories(prof.Goal)

	exclude, err := pl.usage.GetRecentlyUsedNames(ctx, req.UserID, pl.windowDays)
	if err != nil {
		log.Printf("WARN: could not load exercise history for user %s: %v", req.UserID, err)
		exclude = map[string]struct{}{}
	}

	var result Result

	candidates, warnings, err := pl.selectCandidates(ctx, prof, spec, categories, exclude)
	if err != nil {
		return Result{}, err
	}
	result.Warnings = warnings

	prompt, err := BuildPlanPrompt(req.PinnedFacts, prof, spec, candidates)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	resp, err := pl.generator.GenerateContent(ctx, prompt, req.System)
	result.Metas = append(result.Metas, shared.AgentMeta{
		AgentName: "plan-generator",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	})
	if err != nil {
		log.Printf("WARN: plan generation failed for user %s: %v", req.UserID, err)
		result.Reply = noJSONReply
		return result, nil
	}

	plan, err := Coerce(resp.Content, prof.Frequency)
	if err != nil {
		log.Printf("WARN: plan coercion failed for user %s: %v", req.UserID, err)
		if errors.Is(err, ErrUngeneratablePlan) {
			result.Reply = noJSONReply
		} else {
			result.Reply = malformedReply
		}
		return result, nil
	}

	if err := AttachImages(ctx, pl.catalog, plan); err != nil {
		log.Printf("WARN: could not attach exercise images for user %s: %v", req.UserID, err)
	}
	AddCalories(plan, prof.WeightKg)

	if _, err := pl.plans.Save(ctx, req.UserID, plan); err != nil {
		// The plan is already usable; persistence failures must not eat it.
		log.Printf("WARN: could not save plan for user %s: %v", req.UserID, err)
	}

	chosen := plan.AllExerciseNames()
	if err := pl.usage.SaveChosenExercises(ctx, req.UserID, chosen); err != nil {
		log.Printf("WARN: could not record exercise usage for user %s: %v", req.UserID, err)
	}

	result.Plan = plan
	result.ChosenExercises = chosen
	result.Reply = RenderMarkdown(plan)
	return result, nil
}

// selectCandidates fans out one catalog selection per distinct session label
// in the split. The returned map is complete before the prompt is built.
func (pl *Planner) selectCandidates(ctx context.Context, prof profile.Profile, spec profile.SafetySpec, categories []string, exclude map[string]struct{}) (map[string][]catalog.Ranked, []string, error) {
	labels := make([]string, 0, len(spec.DaySplit))
	seen := map[string]bool{}
	for _, label := range spec.DaySplit {
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}

	var (
		mu         sync.Mutex
		candidates = make(map[string][]catalog.Ranked, len(labels))
		warnings   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, label := range labels {
		g.Go(func() error {
			ranked, err := catalog.SelectForDay(gctx, pl.catalog, prof, label, categories, spec.Contraindications, exclude, candidatesPerDay)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			candidates[label] = ranked
			if len(ranked) < catalog.MinUsableCandidates {
				log.Printf("WARN: catalog starvation for %q: %d candidates", label, len(ranked))
				warnings = append(warnings, "pocos ejercicios disponibles para "+label)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return candidates, warnings, nil
}
