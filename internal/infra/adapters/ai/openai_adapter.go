package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/ports/adapter"
	"chatbot-studio/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements the AI port over the Chat Completions API.
// The API is stateless, so each handle carries its own history: system
// instruction first, then the running transcript.
type OpenAIAdapter struct {
	client       openai.Client
	defaultModel string
	maxOut       int
}

func NewOpenAIAdapter(apiKey, defaultModel string, maxOut int) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	return &OpenAIAdapter{
		client:       openai.NewClient(option.WithAPIKey(apiKey)),
		defaultModel: defaultModel,
		maxOut:       maxOut,
	}, nil
}

type openAIHandle struct {
	mu       sync.Mutex
	adapter  *OpenAIAdapter
	model    string
	messages []openai.ChatCompletionMessageParamUnion
}

func (h *openAIHandle) SendMessage(ctx context.Context, text string) (string, error) {
	h.mu.Lock()
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(h.model),
		Messages:            append(append([]openai.ChatCompletionMessageParamUnion{}, h.messages...), openai.UserMessage(text)),
		MaxCompletionTokens: openai.Int(int64(h.adapter.maxOut)),
	}
	h.mu.Unlock()

	start := time.Now()
	resp, err := h.adapter.client.Chat.Completions.New(ctx, params)
	metrics.ObserveAICall("openai", h.model, int(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai: no choice content")
	}
	reply := resp.Choices[0].Message.Content

	h.mu.Lock()
	h.messages = append(h.messages, openai.UserMessage(text), openai.AssistantMessage(reply))
	h.mu.Unlock()
	return reply, nil
}

func (o *OpenAIAdapter) CreateSession(ctx context.Context, model, systemInstruction string, history []adapter.Message) (adapter.ChatHandle, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(systemInstruction))
	for _, m := range history {
		if m.Role == adapter.RoleUser {
			msgs = append(msgs, openai.UserMessage(m.Content))
		} else {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		}
	}
	return &openAIHandle{
		adapter:  o,
		model:    modelOrDefault(model, o.defaultModel),
		messages: msgs,
	}, nil
}

func (o *OpenAIAdapter) ExtractTextFromImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.defaultModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
				openai.TextContentPart(imageExtractionPrompt),
			}),
		},
	})
	if err != nil {
		metrics.IncExtraction("image", false)
		return "", fmt.Errorf("%w: failed to analyze image: %v", domain.ErrExtraction, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.IncExtraction("image", false)
		return "", fmt.Errorf("%w: the image analysis returned no text", domain.ErrExtraction)
	}
	metrics.IncExtraction("image", true)
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIAdapter) ExtractFromURL(ctx context.Context, url string) (*adapter.URLExtraction, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.defaultModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(urlExtractionPrompt(url)),
		},
	})
	if err != nil {
		metrics.IncExtraction("link", false)
		return nil, fmt.Errorf("%w: failed to analyze URL, please ensure the link is public and accessible: %v", domain.ErrExtraction, err)
	}
	if len(resp.Choices) == 0 {
		metrics.IncExtraction("link", false)
		return nil, fmt.Errorf("%w: the model returned an empty response for the URL", domain.ErrExtraction)
	}
	out, err := decodeURLExtraction(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		metrics.IncExtraction("link", false)
		return nil, err
	}
	metrics.IncExtraction("link", true)
	return out, nil
}

// CountTokens counts locally with tiktoken; the Completions API has no
// counting endpoint.
func (o *OpenAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	m := modelOrDefault(model, o.defaultModel)
	enc, err := tiktoken.EncodingForModel(m)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, err
		}
	}
	total := 0
	for _, msg := range messages {
		total += len(enc.Encode(msg.Content, nil, nil))
	}
	metrics.AddTokens("openai", m, total)
	return total, nil
}

func (o *OpenAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{o.defaultModel}, nil
}
