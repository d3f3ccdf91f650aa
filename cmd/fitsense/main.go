package main

import (
	"context"
	"errors"
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
	"fitsense-coach/internal/server"
	"fitsense-coach/internal/session"
)

const groqChatModel = "llama-3.3-70b-versatile"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
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

	if n, err := catalogRepo.Count(ctx); err != nil {
		log.Fatalf("Failed to check exercise catalog: %v", err)
	} else if n == 0 {
		log.Printf("WARN: exercise catalog is empty; ingest exercises before requesting plans")
	}

	planGenerator := planner.NewPlanner(catalogRepo, planRepo, historyRepo, geminiClient, cfg.RecentExerciseWindowDays)
	fitnessCoach := coach.New(userRepo, summaryRepo, planRepo, planGenerator, groqClient, session.NewStore(), metricsStore, cfg.PlanCooldownDays)
	ingestor := ingest.NewIngestor(catalogRepo, groqClient)

	handler := server.NewHandler(server.Deps{
		Coach:   fitnessCoach,
		Ingest:  ingestor,
		Metrics: metricsStore,
		DB:      db.SQL,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("fitsense-coach listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: shutdown incomplete: %v", err)
	}
}
