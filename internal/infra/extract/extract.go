// Package extract turns raw knowledge sources (images, URLs, uploaded
// files, pasted text, voice transcripts) into the context text a chatbot
// is built from.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/domain/ports/adapter"
	"chatbot-studio/internal/infra/metrics"
)

// Service resolves each source type to extracted text. Image and URL
// sources need a model round trip; file, text and voice are local.
type Service struct {
	ai  adapter.AIServiceAdapter
	log *zerolog.Logger
}

func NewService(ai adapter.AIServiceAdapter, logger *zerolog.Logger) *Service {
	return &Service{ai: ai, log: logger}
}

// FromImage describes the image and OCRs any visible text in one call.
func (s *Service) FromImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image payload", domain.ErrInvalidArgument)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: file is not an image", domain.ErrInvalidArgument)
	}
	text, err := s.ai.ExtractTextFromImage(ctx, data, mimeType)
	if err != nil {
		return "", err
	}
	s.log.Debug().Int("bytes", len(data)).Str("mime", mimeType).Msg("image extracted")
	return text, nil
}

// FromURL fetches structured knowledge for a link: the full page text
// plus a summary, a persona and sample queries.
func (s *Service) FromURL(ctx context.Context, rawURL string) (*adapter.URLExtraction, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: please enter a valid http(s) link", domain.ErrInvalidArgument)
	}
	out, err := s.ai.ExtractFromURL(ctx, u.String())
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("url", u.String()).Int("chars", len(out.ExtractedText)).Msg("url extracted")
	return out, nil
}

// FromFile reads an uploaded document. Only plain text and markdown are
// accepted, matched by MIME type with a filename-extension fallback for
// clients that send application/octet-stream.
func (s *Service) FromFile(filename, mimeType string, data []byte) (string, error) {
	if !textLike(filename, mimeType) {
		metrics.IncExtraction("file", false)
		return "", fmt.Errorf("%w: unsupported file type, please upload a .txt or .md file", domain.ErrInvalidArgument)
	}
	if !utf8.Valid(data) {
		metrics.IncExtraction("file", false)
		return "", fmt.Errorf("%w: the file does not contain readable text", domain.ErrInvalidArgument)
	}
	metrics.IncExtraction("file", true)
	return string(data), nil
}

// FromText passes pasted text through unchanged. Length is enforced at
// chatbot creation, not here, so the client can keep a draft below the
// minimum.
func (s *Service) FromText(raw string) string {
	return raw
}

// FromVoiceTranscript validates a speech-recognition transcript. Short
// recordings make useless knowledge bases, so the minimum context length
// applies up front.
func (s *Service) FromVoiceTranscript(transcript string) (string, error) {
	if !model.ValidContextText(transcript) {
		metrics.IncExtraction("voice", false)
		return "", fmt.Errorf("%w: the transcribed text is too short, please record at least %d characters", domain.ErrValidation, model.MinContextChars)
	}
	metrics.IncExtraction("voice", true)
	return transcript, nil
}

func textLike(filename, mimeType string) bool {
	mt := mimeType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	switch strings.TrimSpace(strings.ToLower(mt)) {
	case "text/plain", "text/markdown", "text/x-markdown":
		return true
	}
	ext := strings.ToLower(filename)
	return strings.HasSuffix(ext, ".txt") || strings.HasSuffix(ext, ".md") || strings.HasSuffix(ext, ".markdown")
}
