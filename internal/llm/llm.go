package llm

import (
	"context"

	"fitsense-coach/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
// The system text frames the model's role; output is untrusted free text.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt, system string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
