package coach

import (
	"context"
	"time"

	"fitsense-coach/internal/planner"
)

// NextUp describes the session a user should do next, estimated from how
// long ago their plan was created and how often they train.
type NextUp struct {
	HasPlan       bool          `json:"has_plan"`
	PlanCreatedAt time.Time     `json:"plan_created_at"`
	SessionsDone  int           `json:"sessions_done"`
	NextIndex     int           `json:"next_index"`
	NextDay       *planner.Day  `json:"next_day,omitempty"`
	Plan          *planner.Plan `json:"plan,omitempty"`
}

// estimateSessionsDone assumes one session every floor(7/frequency) days.
func estimateSessionsDone(since time.Time, frequency int, now time.Time) int {
	days := int(now.Sub(since).Hours() / 24)
	if days < 0 {
		days = 0
	}
	if frequency < 1 {
		frequency = 1
	}
	perSessionDays := 7 / frequency
	if perSessionDays < 1 {
		perSessionDays = 1
	}
	return days / perSessionDays
}

// NextDay works out which week-1 session comes next for the user, cycling
// through the split. No plan stored means HasPlan false.
func (c *Coach) NextDay(ctx context.Context, userID string) (NextUp, error) {
	latest, err := c.plans.GetLatest(ctx, userID)
	if err != nil {
		return NextUp{}, err
	}
	if latest == nil || latest.Plan == nil || len(latest.Plan.Weeks) == 0 {
		return NextUp{}, nil
	}

	days := latest.Plan.Weeks[0].Days
	if len(days) == 0 {
		return NextUp{HasPlan: true, PlanCreatedAt: latest.CreatedAt}, nil
	}

	frequency := latest.Plan.Frequency
	if frequency == 0 {
		frequency = len(days)
	}
	done := estimateSessionsDone(latest.CreatedAt, frequency, time.Now())
	idx := done % len(days)

	return NextUp{
		HasPlan:       true,
		PlanCreatedAt: latest.CreatedAt,
		SessionsDone:  done,
		NextIndex:     idx,
		NextDay:       days[idx],
		Plan:          latest.Plan,
	}, nil
}
