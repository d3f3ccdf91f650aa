package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitsense-coach/internal/catalog"
	"fitsense-coach/internal/coach"
	"fitsense-coach/internal/config"
	"fitsense-coach/internal/database"
	"fitsense-coach/internal/ingest"
	"fitsense-coach/internal/llm"
	"fitsense-coach/internal/metrics"
	"fitsense-coach/internal/planner"
	"fitsense-coach/internal/session"
	"fitsense-coach/internal/telegram"
)

const groqChatModel = "llama-3.3-70b-versatile"

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramWebhookURL == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN and TELEGRAM_WEBHOOK_URL are required")
	}

	ctx := context.Background()

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer geminiClient.Close()

	groqClient := llm.NewGroqClient(cfg, groqChatModel, 0.6)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	catalogRepo := catalog.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	historyRepo := planner.NewHistoryRepository(db.SQL)
	userRepo := coach.NewUserRepository(db.SQL)
	summaryRepo := coach.NewSummaryRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	planGenerator := planner.NewPlanner(catalogRepo, planRepo, historyRepo, geminiClient, cfg.RecentExerciseWindowDays)
	fitnessCoach := coach.New(userRepo, summaryRepo, planRepo, planGenerator, groqClient, session.NewStore(), metricsStore, cfg.PlanCooldownDays)
	ingestor := ingest.NewIngestor(catalogRepo, groqClient)

	bot, err := telegram.NewBot(cfg, fitnessCoach, ingestor, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", bot.WebhookHandler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
