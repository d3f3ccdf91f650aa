package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fitsense-coach/internal/catalog"
	"fitsense-coach/internal/coach"
	"fitsense-coach/internal/config"
	"fitsense-coach/internal/metrics"
)

// telegramMessageLimit is the hard cap Telegram puts on one message.
const telegramMessageLimit = 4096

// CoachService is the conversational surface the bot forwards messages to.
type CoachService interface {
	SendMessage(ctx context.Context, userID, message string, forcePlan bool) (coach.Reply, error)
}

// IngestService imports an exercise page into the catalog.
type IngestService interface {
	IngestURL(ctx context.Context, url string) (*catalog.Candidate, error)
}

// Bot wraps the Telegram API around the coach: plain messages become coach
// conversations, URLs are ingested into the exercise catalog, and /metrics
// serves the admin usage report.
type Bot struct {
	api          *tgbotapi.BotAPI
	coach        CoachService
	ingestor     IngestService
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the webhook.
func NewBot(cfg *config.Config, coachSvc CoachService, ingestor IngestService, metricsStore *metrics.Store) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		coach:        coachSvc,
		ingestor:     ingestor,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// WebhookHandler returns the HTTP handler Telegram posts updates to.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		update, err := b.api.HandleUpdate(r)
		if err != nil {
			log.Printf("Error parsing update: %v", err)
			return
		}

		if update.Message == nil {
			return
		}

		if !b.isAllowed(update.Message.From.ID) {
			log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)",
				update.Message.From.ID, update.Message.From.UserName)
			return
		}

		go b.processMessage(update.Message)
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	if msg.Text == "/metrics" {
		b.handleMetricsRequest(msg)
		return
	}

	if isURL(msg.Text) {
		b.handleIngestRequest(msg)
		return
	}

	b.handleCoachRequest(msg)
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ Solo el administrador puede ver las métricas.")
		return
	}

	usage, err := b.metricsStore.GetUsageSince(context.Background(), time.Now().AddDate(0, 0, -7))
	if err != nil {
		log.Printf("Error loading metrics: %v", err)
		b.send(msg.Chat.ID, "❌ No pude cargar las métricas.")
		return
	}
	b.send(msg.Chat.ID, metrics.FormatReport(usage))
}

func (b *Bot) handleIngestRequest(msg *tgbotapi.Message) {
	statusMsg, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "✂️ Importando ejercicio..."))
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	exercise, err := b.ingestor.IngestURL(context.Background(), msg.Text)
	var finalText string
	if err != nil {
		log.Printf("Error ingesting exercise: %v", err)
		finalText = "❌ No pude extraer un ejercicio de esa página."
	} else {
		finalText = fmt.Sprintf("✅ Ejercicio guardado: %s (%s, %s)",
			exercise.Name, exercise.PrimaryMuscle, exercise.Level)
	}

	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, statusMsg.MessageID, finalText)
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to edit reply: %v", err)
	}
}

func (b *Bot) handleCoachRequest(msg *tgbotapi.Message) {
	userID := fmt.Sprintf("%d", msg.From.ID)

	reply, err := b.coach.SendMessage(context.Background(), userID, msg.Text, false)
	if err != nil {
		log.Printf("Error handling message for user %s: %v", userID, err)
		b.send(msg.Chat.ID, "❌ Algo salió mal, intenta de nuevo.")
		return
	}

	for _, chunk := range splitMessage(reply.Text, telegramMessageLimit) {
		b.send(msg.Chat.ID, chunk)
	}
}

func (b *Bot) send(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = "Markdown"
	if _, err := b.api.Send(out); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func isURL(text string) bool {
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

// splitMessage cuts text into chunks under limit, preferring newline
// boundaries so plan weeks stay intact.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text = strings.TrimRight(text, "\n"); text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
