package coach

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"strings"
	"text/template"
	"time"

	"fitsense-coach/internal/llm"
	"fitsense-coach/internal/planner"
	"fitsense-coach/internal/session"
	"fitsense-coach/internal/shared"
)

//go:embed chat_prompt.tmpl
var chatPromptTemplate string

//go:embed summary_prompt.tmpl
var summaryPromptTemplate string

var (
	chatPrompt    = template.Must(template.New("chat").Parse(chatPromptTemplate))
	summaryPrompt = template.Must(template.New("summary").Parse(summaryPromptTemplate))
)

// systemPrompt frames every conversational reply.
const systemPrompt = "Eres FitSense, un coach de fitness profesional. Solo debes responder preguntas de tu área. " +
	"Si el usuario pide cambiar o agregar una rutina antes de 30 días desde el último plan, NO generes ejercicios nuevos ni un plan adicional. " +
	"Si ya pasaron ≥30 días, puedes proponer cambios o una rutina nueva, clara y segura. " +
	"NO generes plan ni rutina si el usuario no lo pidió explícitamente. " +
	"NO menciones la regla de 30 días salvo que el usuario pida plan/cambio. " +
	"Responde como coach: saluda solo en el primer turno de la sesión; luego continúa con naturalidad, sin presentarte. " +
	"Ofrece 1-2 consejos concretos. No inventes ni infieras datos personales."

// ErrUserNotFound is returned when the referenced user has no stored row.
var ErrUserNotFound = errors.New("user not found")

const recentSummaryCount = 2

// UserStore loads user rows.
type UserStore interface {
	Get(ctx context.Context, id string) (*User, error)
}

// SummaryStore persists and recalls conversation summaries.
type SummaryStore interface {
	Save(ctx context.Context, userID, sessionID, text string) error
	GetRecent(ctx context.Context, userID string, limit int) ([]Summary, error)
}

// PlanGenerator runs the monthly plan pipeline.
type PlanGenerator interface {
	GenerateMonthlyPlan(ctx context.Context, req planner.Request) (planner.Result, error)
}

// Recorder receives execution metrics. May be nil.
type Recorder interface {
	Record(ctx context.Context, meta shared.AgentMeta) error
}

// Coach routes each incoming message: explicit week/day questions are
// answered from the stored plan, plan requests run the generation pipeline
// (subject to the cooldown), everything else becomes a conversational reply.
type Coach struct {
	users        UserStore
	summaries    SummaryStore
	plans        planner.PlanStore
	generator    PlanGenerator
	chat         llm.TextGenerator
	sessions     *session.Store
	recorder     Recorder
	cooldownDays int
}

// New creates a Coach. recorder may be nil to disable metrics.
func New(users UserStore, summaries SummaryStore, plans planner.PlanStore, generator PlanGenerator, chat llm.TextGenerator, sessions *session.Store, recorder Recorder, cooldownDays int) *Coach {
	return &Coach{
		users:        users,
		summaries:    summaries,
		plans:        plans,
		generator:    generator,
		chat:         chat,
		sessions:     sessions,
		recorder:     recorder,
		cooldownDays: cooldownDays,
	}
}

// Reply is the outcome of one message exchange.
type Reply struct {
	Text              string        `json:"reply"`
	Plan              *planner.Plan `json:"plan_json,omitempty"`
	ChosenExercises   []string      `json:"chosen_exercises,omitempty"`
	GeneratedPlan     bool          `json:"generated_plan"`
	CanChange         bool          `json:"can_change"`
	DaysSinceLastPlan int           `json:"days_since_last_plan"`
}

// StartSession opens (or replaces) the user's session, seeded with their
// most recent conversation summaries.
func (c *Coach) StartSession(ctx context.Context, userID string) (string, error) {
	user, err := c.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	snap := c.sessions.Start(userID)
	if memory := c.memoryBlock(ctx, userID); memory != "" {
		c.sessions.Append(userID, "context", "RESUMENES_ANTERIORES:\n"+memory)
	}
	return snap.ID, nil
}

// ResetSession clears the user's conversation window.
func (c *Coach) ResetSession(userID string) {
	c.sessions.Reset(userID)
}

// EndSession closes the session and, when it held any real exchange,
// summarizes the transcript and stores the summary.
func (c *Coach) EndSession(ctx context.Context, userID string) (bool, error) {
	user, err := c.users.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserNotFound
	}

	snap, ok := c.sessions.End(userID)
	if !ok {
		return false, nil
	}

	transcript := transcriptOf(snap.Turns)
	if transcript == "" {
		return false, nil
	}

	var buf bytes.Buffer
	if err := summaryPrompt.Execute(&buf, struct{ Transcript string }{transcript}); err != nil {
		return false, err
	}

	start := time.Now()
	resp, err := c.chat.GenerateContent(ctx, buf.String(), "")
	c.record(ctx, shared.AgentMeta{AgentName: "summarizer", Usage: resp.Usage, Latency: time.Since(start)})
	if err != nil {
		return false, fmt.Errorf("failed to summarize session %s: %w", snap.ID, err)
	}

	if err := c.summaries.Save(ctx, userID, snap.ID, strings.TrimSpace(resp.Content)); err != nil {
		return false, err
	}
	return true, nil
}

// SendMessage handles one user message end to end.
func (c *Coach) SendMessage(ctx context.Context, userID, message string, forcePlan bool) (Reply, error) {
	user, err := c.users.Get(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if user == nil {
		return Reply{}, ErrUserNotFound
	}

	lastPlanDate, err := c.plans.GetLastPlanDate(ctx, userID)
	if err != nil {
		return Reply{}, err
	}

	c.sessions.Append(userID, "user", message)

	days := -1
	canChange := true
	if lastPlanDate != nil {
		days = int(time.Since(*lastPlanDate).Hours() / 24)
		canChange = days >= c.cooldownDays
	}
	base := Reply{CanChange: canChange, DaysSinceLastPlan: days}

	if _, askedDay := ExtractWeekDay(message); askedDay > 0 {
		return c.answerWeekDay(ctx, userID, message, base)
	}
	if AsksWhatToday(message) {
		return c.answerWhatToday(ctx, userID, base)
	}
	if AsksShowRoutine(message) {
		return c.answerShowRoutine(ctx, userID, base)
	}

	if WantsPlan(message, forcePlan) && canChange {
		return c.generatePlan(ctx, userID, user, lastPlanDate, base)
	}

	return c.chatReply(ctx, userID, user, message, lastPlanDate, days, base)
}

// answerWeekDay serves "semana N día M" questions from the stored plan.
// Out-of-range references are rejected with guidance naming the valid
// ranges, never silently clamped.
func (c *Coach) answerWeekDay(ctx context.Context, userID, message string, base Reply) (Reply, error) {
	askedWeek, askedDay := ExtractWeekDay(message)
	if askedWeek == 0 {
		askedWeek = 1
	}

	latest, err := c.plans.GetLatest(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if latest == nil || latest.Plan == nil || len(latest.Plan.Weeks) == 0 {
		return c.reply(userID, base,
			"No encuentro un plan guardado para ese día. ¿Quieres que te muestre tu rutina más reciente o generar una nueva?")
	}

	weeks := latest.Plan.Weeks
	if askedWeek > len(weeks) {
		return c.reply(userID, base, fmt.Sprintf(
			"Tu plan tiene %d semanas, no existe la semana %d. Pídeme un día entre la semana 1 y la %d.",
			len(weeks), askedWeek, len(weeks)))
	}
	week := weeks[askedWeek-1]
	if askedDay > len(week.Days) {
		return c.reply(userID, base, fmt.Sprintf(
			"La semana %d tiene %d días, no existe el día %d. Pídeme un día entre el 1 y el %d.",
			askedWeek, len(week.Days), askedDay, len(week.Days)))
	}

	text := fmt.Sprintf("Tu entrenamiento para Semana %d, Día %d es:\n\n%s",
		askedWeek, askedDay, planner.RenderDay(week.Days[askedDay-1]))
	return c.reply(userID, base, text)
}

func (c *Coach) answerWhatToday(ctx context.Context, userID string, base Reply) (Reply, error) {
	next, err := c.NextDay(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if !next.HasPlan || next.NextDay == nil {
		return c.reply(userID, base,
			"Aún no tienes un plan guardado. Escribe \"quiero un plan\" y armamos uno.")
	}
	return c.reply(userID, base, "Hoy te toca:\n\n"+planner.RenderDay(next.NextDay))
}

func (c *Coach) answerShowRoutine(ctx context.Context, userID string, base Reply) (Reply, error) {
	latest, err := c.plans.GetLatest(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if latest == nil || latest.Plan == nil {
		return c.reply(userID, base,
			"Aún no tienes un plan guardado. Escribe \"quiero un plan\" y armamos uno.")
	}
	return c.reply(userID, base, planner.RenderMarkdown(latest.Plan))
}

func (c *Coach) generatePlan(ctx context.Context, userID string, user *User, lastPlanDate *time.Time, base Reply) (Reply, error) {
	pinned := c.pinnedFacts(ctx, userID, user, lastPlanDate, base.DaysSinceLastPlan)

	result, err := c.generator.GenerateMonthlyPlan(ctx, planner.Request{
		UserID:      userID,
		Profile:     user.ProfileInput(),
		PinnedFacts: pinned,
		System:      systemPrompt,
	})
	if err != nil {
		return Reply{}, err
	}
	for _, meta := range result.Metas {
		c.record(ctx, meta)
	}

	c.sessions.Append(userID, "assistant", result.Reply)
	base.Text = result.Reply
	base.Plan = result.Plan
	base.ChosenExercises = result.ChosenExercises
	base.GeneratedPlan = result.Plan != nil
	return base, nil
}

func (c *Coach) chatReply(ctx context.Context, userID string, user *User, message string, lastPlanDate *time.Time, days int, base Reply) (Reply, error) {
	snap, _ := c.sessions.Get(userID)

	greet := true
	for _, turn := range snap.Turns {
		if turn.Role == "assistant" {
			greet = false
			break
		}
	}

	var buf bytes.Buffer
	err := chatPrompt.Execute(&buf, struct {
		Memory       string
		PinnedFacts  string
		RecentTurns  string
		Message      string
		Greet        bool
		CooldownDays int
	}{
		Memory:       c.memoryBlock(ctx, userID),
		PinnedFacts:  c.pinnedFactsBlock(user, lastPlanDate, days),
		RecentTurns:  transcriptOf(snap.Turns),
		Message:      message,
		Greet:        greet,
		CooldownDays: c.cooldownDays,
	})
	if err != nil {
		return Reply{}, err
	}

	start := time.Now()
	resp, err := c.chat.GenerateContent(ctx, buf.String(), systemPrompt)
	c.record(ctx, shared.AgentMeta{AgentName: "coach-chat", Usage: resp.Usage, Latency: time.Since(start)})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to generate coach reply: %w", err)
	}

	return c.reply(userID, base, strings.TrimSpace(resp.Content))
}

// pinnedFacts is the memory plus profile block handed to the plan prompt.
func (c *Coach) pinnedFacts(ctx context.Context, userID string, user *User, lastPlanDate *time.Time, days int) string {
	var b strings.Builder
	if memory := c.memoryBlock(ctx, userID); memory != "" {
		b.WriteString("Memoria (últimos resúmenes):\n" + memory + "\n\n")
	}
	b.WriteString(c.pinnedFactsBlock(user, lastPlanDate, days))
	return b.String()
}

func (c *Coach) pinnedFactsBlock(user *User, lastPlanDate *time.Time, days int) string {
	lastPlan := "ninguno"
	if lastPlanDate != nil {
		lastPlan = fmt.Sprintf("%s (hace %d días)", lastPlanDate.Format("2006-01-02"), days)
	}

	return strings.TrimSpace(fmt.Sprintf(`Perfil (desde BD):
- UserID: %s
- Nombre: %s
- Edad: %s, Peso: %skg, Altura: %sm
- Nivel: %s
- Objetivo: %s
- Entorno: %s
- Frecuencia: %d días/semana
- Último plan: %s`,
		user.ID,
		orND(user.Name),
		intOrND(user.Age),
		floatOrND(user.WeightKg),
		heightOrND(user.HeightCm),
		orND(user.Level),
		orND(user.Goal),
		orND(user.Environment),
		user.Frequency,
		lastPlan))
}

// memoryBlock joins the user's recent summaries, newest first, dated.
func (c *Coach) memoryBlock(ctx context.Context, userID string) string {
	recents, err := c.summaries.GetRecent(ctx, userID, recentSummaryCount)
	if err != nil {
		log.Printf("WARN: could not load summaries for user %s: %v", userID, err)
		return ""
	}
	if len(recents) == 0 {
		return ""
	}

	parts := make([]string, len(recents))
	for i, s := range recents {
		parts[i] = fmt.Sprintf("(%s) %s", s.CreatedAt.Format("2006-01-02"), s.Text)
	}
	return strings.Join(parts, "\n---\n")
}

// reply records the assistant turn and fills the reply text.
func (c *Coach) reply(userID string, base Reply, text string) (Reply, error) {
	c.sessions.Append(userID, "assistant", text)
	base.Text = text
	return base, nil
}

func (c *Coach) record(ctx context.Context, meta shared.AgentMeta) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, meta); err != nil {
		log.Printf("WARN: could not record metrics for %s: %v", meta.AgentName, err)
	}
}

// transcriptOf renders user/assistant turns as "ROLE: text" lines; context
// seeds are skipped.
func transcriptOf(turns []session.Turn) string {
	var lines []string
	for _, t := range turns {
		if t.Role != "user" && t.Role != "assistant" {
			continue
		}
		lines = append(lines, strings.ToUpper(t.Role)+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

func orND(s string) string {
	if s == "" {
		return "N/D"
	}
	return s
}

func intOrND(v *int) string {
	if v == nil {
		return "N/D"
	}
	return fmt.Sprintf("%d", *v)
}

func floatOrND(v *float64) string {
	if v == nil {
		return "N/D"
	}
	return fmt.Sprintf("%.0f", *v)
}

func heightOrND(cm *float64) string {
	if cm == nil {
		return "N/D"
	}
	return fmt.Sprintf("%.2f", *cm/100)
}
