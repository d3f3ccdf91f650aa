package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fitsense-coach/internal/catalog"
	"fitsense-coach/internal/llm"
)

type fakeUpserter struct {
	saved []catalog.Candidate
}

func (f *fakeUpserter) Upsert(ctx context.Context, c catalog.Candidate) error {
	f.saved = append(f.saved, c)
	return nil
}

type fakeGenerator struct {
	response string
	prompts  []string
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, prompt, system string) (llm.ContentResponse, error) {
	f.prompts = append(f.prompts, prompt)
	return llm.ContentResponse{Content: f.response}, nil
}

const exercisePage = `<!DOCTYPE html>
<html>
<head>
  <meta property="og:image" content="https://example.com/goblet-squat.png">
  <script>analytics.track("view")</script>
  <style>.hero { color: red }</style>
</head>
<body>
  <nav>Inicio | Ejercicios</nav>
  <h1>Goblet Squat</h1>
  <p>Un ejercicio de piernas con mancuerna, ideal para principiantes.</p>
  <footer>© FitPages</footer>
</body>
</html>`

func TestIngestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(exercisePage))
	}))
	defer srv.Close()

	store := &fakeUpserter{}
	gen := &fakeGenerator{response: `Aquí está: {"name":"Goblet Squat","level":"Beginner","equipment":"Dumbbell","primary_muscle":"Quadriceps","secondary_muscle":"","category":"Strength","image_url":""}`}
	ingestor := NewIngestor(store, gen)

	got, err := ingestor.IngestURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("IngestURL failed: %v", err)
	}

	if got.Name != "Goblet Squat" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Level != "beginner" || got.Equipment != "dumbbell" || got.Category != "strength" {
		t.Errorf("fields not normalized: %+v", got)
	}
	if got.ImageURL != "https://example.com/goblet-squat.png" {
		t.Errorf("og:image fallback not applied: %q", got.ImageURL)
	}

	if len(store.saved) != 1 || store.saved[0].Name != "Goblet Squat" {
		t.Errorf("catalog upsert = %+v", store.saved)
	}

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "Goblet Squat") {
		t.Error("prompt missing page content")
	}
	if strings.Contains(prompt, "analytics.track") || strings.Contains(prompt, ".hero") {
		t.Error("script/style noise leaked into the prompt")
	}
}

func TestIngestURLInvalidLevelDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(exercisePage))
	}))
	defer srv.Close()

	gen := &fakeGenerator{response: `{"name":"Goblet Squat","level":"experto","equipment":"dumbbell","primary_muscle":"quadriceps","category":"strength"}`}
	ingestor := NewIngestor(&fakeUpserter{}, gen)

	got, err := ingestor.IngestURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("IngestURL failed: %v", err)
	}
	if got.Level != "beginner" {
		t.Errorf("unknown level = %q, want beginner default", got.Level)
	}
}

func TestIngestURLNoName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(exercisePage))
	}))
	defer srv.Close()

	store := &fakeUpserter{}
	gen := &fakeGenerator{response: `{"name":"","level":"beginner"}`}
	ingestor := NewIngestor(store, gen)

	if _, err := ingestor.IngestURL(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a nameless extraction")
	}
	if len(store.saved) != 0 {
		t.Error("nameless exercise must not be saved")
	}
}

func TestIngestURLFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ingestor := NewIngestor(&fakeUpserter{}, &fakeGenerator{})
	if _, err := ingestor.IngestURL(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a 404 page")
	}
}
