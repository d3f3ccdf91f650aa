package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fitsense-coach/internal/catalog"
	"fitsense-coach/internal/coach"
	"fitsense-coach/internal/metrics"
	"fitsense-coach/internal/profile"
)

const maxBodySize = 1 << 20 // 1MB

// metricsWindow is how far back the usage report reaches.
const metricsWindow = 7 * 24 * time.Hour

// CoachService is the conversational surface the HTTP layer exposes.
type CoachService interface {
	StartSession(ctx context.Context, userID string) (string, error)
	ResetSession(userID string)
	EndSession(ctx context.Context, userID string) (bool, error)
	SendMessage(ctx context.Context, userID, message string, forcePlan bool) (coach.Reply, error)
	NextDay(ctx context.Context, userID string) (coach.NextUp, error)
}

// IngestService imports an exercise page into the catalog.
type IngestService interface {
	IngestURL(ctx context.Context, url string) (*catalog.Candidate, error)
}

// MetricsService reports aggregated model usage.
type MetricsService interface {
	GetUsageSince(ctx context.Context, since time.Time) ([]metrics.AgentUsage, error)
}

// Deps carries everything the handler needs.
type Deps struct {
	Coach   CoachService
	Ingest  IngestService
	Metrics MetricsService
	DB      *sql.DB
}

// NewHandler builds the HTTP API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/session/start", handleSessionStart(deps))
	r.Post("/session/reset", handleSessionReset(deps))
	r.Post("/session/end", handleSessionEnd(deps))
	r.Post("/chat/send", handleChatSend(deps))
	r.Get("/routine/current", handleRoutineCurrent(deps))
	r.Get("/metrics", handleMetrics(deps))
	r.Post("/exercises/ingest", handleExerciseIngest(deps))
	r.Get("/health", handleHealth(deps))

	return r
}

type sessionRequest struct {
	UserID string `json:"user_id"`
}

func handleSessionStart(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if !decodeBody(w, r, &req) || !requireUser(w, req.UserID) {
			return
		}

		sid, err := deps.Coach.StartSession(r.Context(), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "session_id": sid})
	}
}

func handleSessionReset(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if !decodeBody(w, r, &req) || !requireUser(w, req.UserID) {
			return
		}

		deps.Coach.ResetSession(req.UserID)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func handleSessionEnd(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if !decodeBody(w, r, &req) || !requireUser(w, req.UserID) {
			return
		}

		saved, err := deps.Coach.EndSession(r.Context(), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "saved": saved})
	}
}

type chatRequest struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	ForcePlan bool   `json:"force_plan"`
}

func handleChatSend(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeBody(w, r, &req) || !requireUser(w, req.UserID) {
			return
		}
		if req.Message == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "faltan parámetros"})
			return
		}

		reply, err := deps.Coach.SendMessage(r.Context(), req.UserID, req.Message, req.ForcePlan)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

func handleRoutineCurrent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if !requireUser(w, userID) {
			return
		}

		next, err := deps.Coach.NextDay(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, next)
	}
}

func handleMetrics(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usage, err := deps.Metrics.GetUsageSince(r.Context(), time.Now().Add(-metricsWindow))
		if err != nil {
			writeError(w, err)
			return
		}
		if usage == nil {
			usage = []metrics.AgentUsage{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"usage": usage})
	}
}

type ingestRequest struct {
	URL string `json:"url"`
}

func handleExerciseIngest(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingestRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "faltan parámetros"})
			return
		}

		exercise, err := deps.Ingest.IngestURL(r.Context(), req.URL)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "exercise": exercise})
	}
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "faltan parámetros"})
		return false
	}
	return true
}

func requireUser(w http.ResponseWriter, userID string) bool {
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "faltan parámetros"})
		return false
	}
	return true
}

// writeError maps the error taxonomy onto HTTP statuses: unknown users are
// 404, invalid profiles 400 with the violations listed, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, coach.ErrUserNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "user_not_found"})
		return
	}

	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_profile", "violations": verr.Violations})
		return
	}

	log.Printf("ERROR: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal_error"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("WARN: could not encode response: %v", err)
	}
}
