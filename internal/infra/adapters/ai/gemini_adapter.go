package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/ports/adapter"
	"chatbot-studio/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter implements the AI port using the official SDK. Sessions
// map onto the SDK's stateful Chats; extraction runs one-shot
// GenerateContent calls.
type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
	maxOut       int
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string, maxOut int) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel, maxOut: maxOut}, nil
}

type geminiHandle struct {
	chat  *genai.Chat
	model string
}

func (h *geminiHandle) SendMessage(ctx context.Context, text string) (string, error) {
	start := time.Now()
	resp, err := h.chat.SendMessage(ctx, genai.Part{Text: text})
	metrics.ObserveAICall("gemini", h.model, int(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return "", err
	}
	reply := firstCandidateText(resp)
	if reply == "" {
		return "", errors.New("gemini: empty reply")
	}
	return reply, nil
}

func (g *GeminiAdapter) CreateSession(ctx context.Context, model, systemInstruction string, history []adapter.Message) (adapter.ChatHandle, error) {
	m := modelOrDefault(model, g.defaultModel)
	chat, err := g.client.Chats.Create(
		ctx,
		m,
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(g.maxOut),
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: systemInstruction}},
			},
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: genai.Ptr[int32](0),
			},
		},
		toGenAIHistory(history),
	)
	if err != nil {
		return nil, err
	}
	return &geminiHandle{chat: chat, model: m}, nil
}

func (g *GeminiAdapter) ExtractTextFromImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: imageExtractionPrompt},
		},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.defaultModel, contents, nil)
	if err != nil {
		metrics.IncExtraction("image", false)
		return "", fmt.Errorf("%w: failed to analyze image: %v", domain.ErrExtraction, err)
	}
	text := firstCandidateText(resp)
	if text == "" {
		metrics.IncExtraction("image", false)
		return "", fmt.Errorf("%w: the image analysis returned no text", domain.ErrExtraction)
	}
	metrics.IncExtraction("image", true)
	return text, nil
}

func (g *GeminiAdapter) ExtractFromURL(ctx context.Context, url string) (*adapter.URLExtraction, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   urlExtractionSchema,
	}
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: urlExtractionPrompt(url)}},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.defaultModel, contents, cfg)
	if err != nil {
		metrics.IncExtraction("link", false)
		return nil, fmt.Errorf("%w: failed to analyze URL, please ensure the link is public and accessible: %v", domain.ErrExtraction, err)
	}
	raw := strings.TrimSpace(firstCandidateText(resp))
	if raw == "" {
		metrics.IncExtraction("link", false)
		return nil, fmt.Errorf("%w: the model returned an empty response for the URL", domain.ErrExtraction)
	}
	out, err := decodeURLExtraction(raw)
	if err != nil {
		metrics.IncExtraction("link", false)
		return nil, err
	}
	metrics.IncExtraction("link", true)
	return out, nil
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	contents := toGenAIHistory(messages)
	m := modelOrDefault(model, g.defaultModel)
	resp, err := g.client.Models.CountTokens(ctx, m, contents, nil)
	if err != nil {
		return 0, err
	}
	metrics.AddTokens("gemini", m, int(resp.TotalTokens))
	return int(resp.TotalTokens), nil
}

func (g *GeminiAdapter) ListModels(ctx context.Context) ([]string, error) {
	models := g.client.Models.All(ctx)
	var out []string
	for m := range models {
		if m.Name != "" {
			out = append(out, m.Name)
		}
	}
	if len(out) == 0 && g.defaultModel != "" {
		out = []string{g.defaultModel}
	}
	return out, nil
}

// --- internal ---

var urlExtractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"extractedText": {Type: genai.TypeString, Description: "The full, unabridged text from the URL."},
		"summary":       {Type: genai.TypeString, Description: "A concise summary of the extracted text."},
		"persona":       {Type: genai.TypeString, Description: "A one-sentence chatbot persona."},
		"sampleQueries": {
			Type:        genai.TypeArray,
			Description: "An array of 3 sample user questions.",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"extractedText", "summary", "persona", "sampleQueries"},
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		return resp.Candidates[0].Content.Parts[0].Text
	}
	return ""
}

func toGenAIHistory(msgs []adapter.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if strings.ToLower(m.Role) == adapter.RoleModel {
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
