package planner

import "encoding/json"

// Plan is a four-week training plan. After coercion it always has exactly
// TargetWeeks weeks, each with exactly Frequency days.
type Plan struct {
	Weeks       []*Week `json:"weeks"`
	Frequency   int     `json:"frequency"`
	GlobalNotes string  `json:"global_notes,omitempty"`
}

// Week is one plan week. Number is re-assigned sequentially during coercion;
// whatever the generator put there is ignored.
type Week struct {
	Number int    `json:"week"`
	Days   []*Day `json:"days"`
}

// Day is one workout day, named "Día <n> - <Label>".
type Day struct {
	Name      string      `json:"name"`
	Warmup    string      `json:"warmup,omitempty"`
	Exercises []*Exercise `json:"exercises"`
	Cooldown  string      `json:"cooldown,omitempty"`
}

// Exercise is one prescribed exercise instance. Name must reference a
// catalog entry; ImageURL and CaloriesTotal are filled by enrichment.
type Exercise struct {
	Name          string `json:"name"`
	Sets          int    `json:"sets"`
	Reps          string `json:"reps"`
	RestSeconds   int    `json:"rest_sec"`
	Notes         string `json:"notes,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	CaloriesTotal int    `json:"calories_total,omitempty"`
}

// UnmarshalJSON accepts "sessions" as an alias for "days". Generators use
// either; the variation is resolved here at the parse boundary so nothing
// downstream ever branches on it.
func (w *Week) UnmarshalJSON(data []byte) error {
	var aux struct {
		Number   int    `json:"week"`
		Days     []*Day `json:"days"`
		Sessions []*Day `json:"sessions"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.Number = aux.Number
	w.Days = aux.Days
	if w.Days == nil {
		w.Days = aux.Sessions
	}
	return nil
}

// Clone deep-copies a week so coercion clones never alias the template's
// nested collections.
func (w *Week) Clone() *Week {
	c := &Week{Number: w.Number, Days: make([]*Day, len(w.Days))}
	for i, d := range w.Days {
		c.Days[i] = d.Clone()
	}
	return c
}

// Clone deep-copies a day.
func (d *Day) Clone() *Day {
	c := &Day{Name: d.Name, Warmup: d.Warmup, Cooldown: d.Cooldown, Exercises: make([]*Exercise, len(d.Exercises))}
	for i, e := range d.Exercises {
		copied := *e
		c.Exercises[i] = &copied
	}
	return c
}

// ExerciseNames returns the distinct exercise names across the whole plan,
// in first-seen order.
func (p *Plan) ExerciseNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			for _, e := range d.Exercises {
				if e.Name == "" {
					continue
				}
				if _, ok := seen[e.Name]; ok {
					continue
				}
				seen[e.Name] = struct{}{}
				names = append(names, e.Name)
			}
		}
	}
	return names
}

// AllExerciseNames returns every exercise name in plan order, duplicates
// included (used for the usage history).
func (p *Plan) AllExerciseNames() []string {
	var names []string
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			for _, e := range d.Exercises {
				if e.Name != "" {
					names = append(names, e.Name)
				}
			}
		}
	}
	return names
}
