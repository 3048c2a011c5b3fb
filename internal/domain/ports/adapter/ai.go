package adapter

import "context"

// Message is one turn of provider-side history.
type Message struct {
	Role    string `json:"role"` // "user" | "model"
	Content string `json:"content"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// URLExtraction is the structured bundle returned by URL analysis.
type URLExtraction struct {
	ExtractedText string   `json:"extractedText"`
	Summary       string   `json:"summary"`
	Persona       string   `json:"persona"`
	SampleQueries []string `json:"sampleQueries"`
}

// ChatHandle is the stateful conversational context held by the provider:
// seeded once with a system instruction and prior history, then fed one
// message at a time. One reply per call, no streaming.
type ChatHandle interface {
	SendMessage(ctx context.Context, text string) (string, error)
}

// AIServiceAdapter is the port for the hosted language-model API.
type AIServiceAdapter interface {
	// CreateSession builds a fresh handle. Callers rebuild the handle
	// whenever the system instruction or history must change; a handle's
	// internal history only ever grows through SendMessage.
	CreateSession(ctx context.Context, model, systemInstruction string, history []Message) (ChatHandle, error)

	// ExtractTextFromImage combines scene description and OCR into one
	// text blob in a single round trip.
	ExtractTextFromImage(ctx context.Context, data []byte, mimeType string) (string, error)

	// ExtractFromURL returns the structured extraction bundle. A fetch
	// or provider failure maps to domain.ErrExtraction; a reply that is
	// not parseable maps to domain.ErrExtractionParse.
	ExtractFromURL(ctx context.Context, url string) (*URLExtraction, error)

	// CountTokens is best-effort when the provider has no exact count.
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	ListModels(ctx context.Context) ([]string, error)
}
