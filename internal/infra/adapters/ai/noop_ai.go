package ai

import (
	"context"
	"fmt"
	"time"

	"chatbot-studio/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements the AI port for local/dev testing. It returns
// canned replies instead of calling a provider.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

type noopHandle struct{}

func (noopHandle) SendMessage(ctx context.Context, text string) (string, error) {
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("[noop] reply to: %s", text), nil
}

func (a *NoopAIAdapter) CreateSession(ctx context.Context, model, systemInstruction string, history []adapter.Message) (adapter.ChatHandle, error) {
	return noopHandle{}, nil
}

func (a *NoopAIAdapter) ExtractTextFromImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	return fmt.Sprintf("[noop] description of a %s image (%d bytes)", mimeType, len(data)), nil
}

func (a *NoopAIAdapter) ExtractFromURL(ctx context.Context, url string) (*adapter.URLExtraction, error) {
	return &adapter.URLExtraction{
		ExtractedText: fmt.Sprintf("[noop] extracted text for %s, padded to satisfy the minimum length.", url),
		Summary:       "A placeholder summary.",
		Persona:       "A helpful expert on placeholders.",
		SampleQueries: []string{"What is this?", "Why noop?", "How do I configure a real provider?"},
	}, nil
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(m.Content) / 4
	}
	return n, nil
}

func (a *NoopAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop-model"}, nil
}
