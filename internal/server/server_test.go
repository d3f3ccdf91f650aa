package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fitsense-coach/internal/catalog"
	"fitsense-coach/internal/coach"
	"fitsense-coach/internal/database"
	"fitsense-coach/internal/metrics"
	"fitsense-coach/internal/profile"
)

type fakeCoach struct {
	reply     coach.Reply
	replyErr  error
	nextUp    coach.NextUp
	saved     bool
	lastUser  string
	lastForce bool
}

func (f *fakeCoach) StartSession(ctx context.Context, userID string) (string, error) {
	if userID == "nadie" {
		return "", coach.ErrUserNotFound
	}
	f.lastUser = userID
	return "sess-1", nil
}

func (f *fakeCoach) ResetSession(userID string) { f.lastUser = userID }

func (f *fakeCoach) EndSession(ctx context.Context, userID string) (bool, error) {
	return f.saved, nil
}

func (f *fakeCoach) SendMessage(ctx context.Context, userID, message string, forcePlan bool) (coach.Reply, error) {
	f.lastUser, f.lastForce = userID, forcePlan
	return f.reply, f.replyErr
}

func (f *fakeCoach) NextDay(ctx context.Context, userID string) (coach.NextUp, error) {
	return f.nextUp, nil
}

type fakeIngest struct {
	exercise *catalog.Candidate
	err      error
}

func (f *fakeIngest) IngestURL(ctx context.Context, url string) (*catalog.Candidate, error) {
	return f.exercise, f.err
}

type fakeMetrics struct {
	usage []metrics.AgentUsage
}

func (f *fakeMetrics) GetUsageSince(ctx context.Context, since time.Time) ([]metrics.AgentUsage, error) {
	return f.usage, nil
}

func newTestHandler(t *testing.T, fc *fakeCoach) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewHandler(Deps{
		Coach:   fc,
		Ingest:  &fakeIngest{exercise: &catalog.Candidate{Name: "Goblet Squat"}},
		Metrics: &fakeMetrics{},
		DB:      db.SQL,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionStart(t *testing.T) {
	h := newTestHandler(t, &fakeCoach{})

	rec := doJSON(t, h, http.MethodPost, "/session/start", `{"user_id":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp["session_id"] != "sess-1" {
		t.Errorf("response = %v", resp)
	}
}

func TestSessionStartUnknownUser(t *testing.T) {
	h := newTestHandler(t, &fakeCoach{})

	rec := doJSON(t, h, http.MethodPost, "/session/start", `{"user_id":"nadie"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "user_not_found") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestSessionStartMissingUser(t *testing.T) {
	h := newTestHandler(t, &fakeCoach{})

	rec := doJSON(t, h, http.MethodPost, "/session/start", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatSend(t *testing.T) {
	fc := &fakeCoach{reply: coach.Reply{Text: "# Tu plan mensual", GeneratedPlan: true, CanChange: true}}
	h := newTestHandler(t, fc)

	rec := doJSON(t, h, http.MethodPost, "/chat/send", `{"user_id":"u1","message":"quiero un plan","force_plan":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if fc.lastUser != "u1" || !fc.lastForce {
		t.Errorf("coach called with user=%q force=%v", fc.lastUser, fc.lastForce)
	}

	var reply coach.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if reply.Text != "# Tu plan mensual" || !reply.GeneratedPlan {
		t.Errorf("reply = %+v", reply)
	}
}

func TestChatSendMissingMessage(t *testing.T) {
	h := newTestHandler(t, &fakeCoach{})

	rec := doJSON(t, h, http.MethodPost, "/chat/send", `{"user_id":"u1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatSendInvalidProfile(t *testing.T) {
	fc := &fakeCoach{replyErr: &profile.ValidationError{Violations: []string{"level inválido"}}}
	h := newTestHandler(t, fc)

	rec := doJSON(t, h, http.MethodPost, "/chat/send", `{"user_id":"u1","message":"quiero un plan"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "level inválido") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestChatSendInternalError(t *testing.T) {
	fc := &fakeCoach{replyErr: errors.New("db exploded")}
	h := newTestHandler(t, fc)

	rec := doJSON(t, h, http.MethodPost, "/chat/send", `{"user_id":"u1","message":"hola"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db exploded") {
		t.Error("internal error detail leaked to the client")
	}
}

func TestRoutineCurrent(t *testing.T) {
	fc := &fakeCoach{nextUp: coach.NextUp{HasPlan: true, SessionsDone: 3, NextIndex: 1}}
	h := newTestHandler(t, fc)

	rec := doJSON(t, h, http.MethodGet, "/routine/current?user_id=u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var next coach.NextUp
	if err := json.Unmarshal(rec.Body.Bytes(), &next); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !next.HasPlan || next.NextIndex != 1 {
		t.Errorf("next = %+v", next)
	}
}

func TestExerciseIngest(t *testing.T) {
	h := newTestHandler(t, &fakeCoach{})

	rec := doJSON(t, h, http.MethodPost, "/exercises/ingest", `{"url":"https://example.com/goblet-squat"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "Goblet Squat") {
		t.Errorf("body = %s", rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/exercises/ingest", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing url status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeCoach{})

	rec := doJSON(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "usage") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, &fakeCoach{})

	rec := doJSON(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body)
	}
}
