package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// TargetWeeks is the fixed number of weeks in every coerced plan.
const TargetWeeks = 4

var (
	// ErrUngeneratablePlan means no parseable structured payload was found
	// in the generator output.
	ErrUngeneratablePlan = errors.New("no parseable plan payload in generator output")

	// ErrMalformedPlan means the payload parsed but is structurally
	// unrecoverable (e.g. a week with no days to clone from).
	ErrMalformedPlan = errors.New("plan payload structurally unrecoverable")
)

var (
	fencedBlockRx = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	dayNumberRx   = regexp.MustCompile(`(?i)d[ií]a\s+\d+`)
)

// Coerce parses raw generator text and force-normalizes it into a Plan with
// exactly TargetWeeks weeks of frequency days each. The generator's output
// is never trusted to already be correct: shape coercion always runs.
func Coerce(raw string, frequency int) (*Plan, error) {
	payload := extractPayload(raw)
	if payload == "" {
		return nil, ErrUngeneratablePlan
	}

	var plan Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUngeneratablePlan, err)
	}
	if len(plan.Weeks) == 0 {
		return nil, fmt.Errorf("%w: no weeks", ErrUngeneratablePlan)
	}

	plan.Frequency = frequency

	// Weeks without a days list cannot be repaired: nothing to clone from.
	for i, w := range plan.Weeks {
		if len(w.Days) == 0 {
			return nil, fmt.Errorf("%w: week %d has no days", ErrMalformedPlan, i+1)
		}
	}

	coerceWeeks(&plan)
	for _, w := range plan.Weeks {
		coerceDays(w, frequency)
	}

	return &plan, nil
}

// coerceWeeks renumbers weeks sequentially and forces exactly TargetWeeks of
// them, cyclically deep-cloning the original weeks when short and truncating
// when long.
func coerceWeeks(plan *Plan) {
	for i, w := range plan.Weeks {
		w.Number = i + 1
	}

	if len(plan.Weeks) > TargetWeeks {
		plan.Weeks = plan.Weeks[:TargetWeeks]
		return
	}

	// Template arena: snapshot the short list, clone by position modulo its
	// length so clones never alias the originals.
	template := make([]*Week, len(plan.Weeks))
	for i, w := range plan.Weeks {
		template[i] = w.Clone()
	}
	for i := 0; len(plan.Weeks) < TargetWeeks; i++ {
		clone := template[i%len(template)].Clone()
		clone.Number = len(plan.Weeks) + 1
		plan.Weeks = append(plan.Weeks, clone)
	}
}

// coerceDays forces exactly frequency days in a week, cloning cyclically and
// rewriting each clone's day-number token to its new position.
func coerceDays(w *Week, frequency int) {
	if len(w.Days) > frequency {
		w.Days = w.Days[:frequency]
		return
	}

	template := make([]*Day, len(w.Days))
	for i, d := range w.Days {
		template[i] = d.Clone()
	}
	for len(w.Days) < frequency {
		clone := template[len(w.Days)%len(template)].Clone()
		clone.Name = renumberDayName(clone.Name, len(w.Days)+1)
		w.Days = append(w.Days, clone)
	}
}

func renumberDayName(name string, position int) string {
	if dayNumberRx.MatchString(name) {
		return dayNumberRx.ReplaceAllString(name, fmt.Sprintf("Día %d", position))
	}
	return name
}

// extractPayload locates a JSON object in raw generator text. First success
// wins: a fenced code block, then the first balanced brace span that parses,
// then the innermost braces enclosing a "weeks" key.
func extractPayload(text string) string {
	if m := fencedBlockRx.FindStringSubmatch(text); m != nil {
		if block := strings.TrimSpace(m[1]); json.Valid([]byte(block)) {
			return block
		}
	}

	if span := firstBalancedSpan(text); span != "" {
		return span
	}

	return weeksAnchoredSpan(text)
}

// firstBalancedSpan scans for the first balanced {...} span that is valid
// JSON, skipping braces inside string literals.
func firstBalancedSpan(text string) string {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end := matchBrace(text, start)
		if end < 0 {
			continue
		}
		span := text[start : end+1]
		if json.Valid([]byte(span)) {
			return span
		}
	}
	return ""
}

// weeksAnchoredSpan walks outward from a "weeks" key, trying each enclosing
// open brace until one balances into valid JSON.
func weeksAnchoredSpan(text string) string {
	anchor := strings.Index(text, `"weeks"`)
	if anchor < 0 {
		return ""
	}
	for start := anchor; start >= 0; start-- {
		if text[start] != '{' {
			continue
		}
		end := matchBrace(text, start)
		if end < 0 {
			continue
		}
		span := text[start : end+1]
		if json.Valid([]byte(span)) && strings.Contains(span, `"weeks"`) {
			return span
		}
	}
	return ""
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
