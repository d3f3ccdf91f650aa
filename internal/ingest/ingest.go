package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"fitsense-coach/internal/catalog"
	"fitsense-coach/internal/llm"
)

// maxPageChars caps how much page text goes into the extraction prompt.
const maxPageChars = 12000

// Upserter saves extracted exercises into the catalog.
type Upserter interface {
	Upsert(ctx context.Context, c catalog.Candidate) error
}

// Ingestor turns an exercise web page into a catalog row: fetch, strip the
// page down to text, have the model structure it, then upsert.
type Ingestor struct {
	store      Upserter
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// NewIngestor creates a new Ingestor.
func NewIngestor(store Upserter, textGen llm.TextGenerator) *Ingestor {
	return &Ingestor{
		store:      store,
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

var validLevels = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}

// IngestURL fetches the page, extracts one exercise and stores it.
func (in *Ingestor) IngestURL(ctx context.Context, url string) (*catalog.Candidate, error) {
	text, ogImage, err := in.fetchPageText(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	extracted, err := in.extract(ctx, text)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(extracted.Name) == "" {
		return nil, fmt.Errorf("page at %s yielded no exercise name", url)
	}
	extracted.Level = strings.ToLower(extracted.Level)
	if !validLevels[extracted.Level] {
		extracted.Level = "beginner"
	}
	extracted.Equipment = strings.ToLower(extracted.Equipment)
	extracted.PrimaryMuscle = strings.ToLower(extracted.PrimaryMuscle)
	extracted.SecondaryMuscle = strings.ToLower(extracted.SecondaryMuscle)
	extracted.Category = strings.ToLower(extracted.Category)
	if extracted.ImageURL == "" {
		extracted.ImageURL = ogImage
	}

	if err := in.store.Upsert(ctx, *extracted); err != nil {
		return nil, fmt.Errorf("failed to save exercise: %w", err)
	}
	return extracted, nil
}

// fetchPageText downloads the page and reduces it to plain text, dropping
// the chrome that would only waste model tokens. It also captures the
// og:image URL as an image fallback.
func (in *Ingestor) fetchPageText(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := in.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", err
	}

	ogImage, _ := doc.Find(`meta[property="og:image"]`).Attr("content")

	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	if len(text) > maxPageChars {
		text = text[:maxPageChars]
	}
	return text, ogImage, nil
}

func (in *Ingestor) extract(ctx context.Context, pageText string) (*catalog.Candidate, error) {
	prompt := fmt.Sprintf(`
Eres un experto en extraer fichas de ejercicios. Extrae UN ejercicio del siguiente contenido.
Devuelve estrictamente un objeto JSON con esta estructura:
{
  "name": "Nombre del ejercicio (en inglés si la página lo da así)",
  "level": "beginner|intermediate|advanced",
  "equipment": "p. ej. dumbbell, barbell, body only, band, machine",
  "primary_muscle": "p. ej. chest, quadriceps, abdominals",
  "secondary_muscle": "músculo secundario o cadena vacía",
  "category": "strength|cardio|stretching|plyometrics|powerlifting|olympic weightlifting|strongman",
  "image_url": "URL de imagen si aparece, o cadena vacía"
}

Contenido de la página:
%s
`, pageText)

	resp, err := in.textGen.GenerateContent(ctx, prompt, "")
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	payload := resp.Content
	if start := strings.Index(payload, "{"); start >= 0 {
		if end := strings.LastIndex(payload, "}"); end > start {
			payload = payload[start : end+1]
		}
	}

	var extracted catalog.Candidate
	if err := json.Unmarshal([]byte(payload), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}
	return &extracted, nil
}
