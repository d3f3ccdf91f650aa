package planner

import (
	"fmt"
	"strings"
)

// FallbackReply is returned to the user when no plan could be built.
const FallbackReply = "No pude construir el plan."

// RenderMarkdown produces the human-readable rendering of a plan. It renders
// whatever structurally-valid plan it is given; no validation, no side
// effects.
func RenderMarkdown(plan *Plan) string {
	if plan == nil || len(plan.Weeks) == 0 {
		return FallbackReply
	}

	var b strings.Builder
	b.WriteString("# Tu plan mensual")

	if notes := strings.TrimSpace(plan.GlobalNotes); notes != "" {
		b.WriteString("\n\n**Notas generales:** " + notes)
	}
	if plan.Frequency > 0 {
		fmt.Fprintf(&b, "\n\n**Frecuencia sugerida:** %d días/semana", plan.Frequency)
	}

	for _, w := range plan.Weeks {
		fmt.Fprintf(&b, "\n\n## Semana %d", w.Number)
		for _, d := range w.Days {
			fmt.Fprintf(&b, "\n\n**%s**", d.Name)
			if d.Warmup != "" {
				b.WriteString("\n• Calentamiento: " + d.Warmup)
			}
			for i, e := range d.Exercises {
				fmt.Fprintf(&b, "\n%d. %s — %d x %s (descanso %ds", i+1, e.Name, e.Sets, e.Reps, e.RestSeconds)
				if e.Notes != "" {
					b.WriteString(", " + e.Notes)
				}
				b.WriteString(")")
			}
			if d.Cooldown != "" {
				b.WriteString("\n• Enfriamiento: " + d.Cooldown)
			}
		}
	}
	return b.String()
}

// RenderDay renders a single day the same way the plan renderer does, for
// "what do I train on week N day M" answers.
func RenderDay(d *Day) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", d.Name)
	if d.Warmup != "" {
		fmt.Fprintf(&b, "Calentamiento: %s\n", d.Warmup)
	}
	for i, e := range d.Exercises {
		fmt.Fprintf(&b, "%d. %s — %d x %s (descanso %ds", i+1, e.Name, e.Sets, e.Reps, e.RestSeconds)
		if e.Notes != "" {
			b.WriteString(", " + e.Notes)
		}
		b.WriteString(")\n")
	}
	if d.Cooldown != "" {
		fmt.Fprintf(&b, "Enfriamiento: %s", d.Cooldown)
	}
	return strings.TrimRight(b.String(), "\n")
}
