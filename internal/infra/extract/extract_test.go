package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/ports/adapter"
)

type stubAI struct {
	adapter.AIServiceAdapter

	imageText string
	imageErr  error
	urlOut    *adapter.URLExtraction
	urlErr    error
	lastURL   string
}

func (s *stubAI) ExtractTextFromImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	return s.imageText, s.imageErr
}

func (s *stubAI) ExtractFromURL(ctx context.Context, url string) (*adapter.URLExtraction, error) {
	s.lastURL = url
	return s.urlOut, s.urlErr
}

func newService(ai *stubAI) *Service {
	l := zerolog.Nop()
	return NewService(ai, &l)
}

func TestFromImage(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates to the model", func(t *testing.T) {
		svc := newService(&stubAI{imageText: "a cat on a mat"})
		got, err := svc.FromImage(ctx, []byte{0xFF, 0xD8}, "image/jpeg")
		if err != nil {
			t.Fatalf("image: %v", err)
		}
		if got != "a cat on a mat" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("rejects non-image mime", func(t *testing.T) {
		svc := newService(&stubAI{})
		if _, err := svc.FromImage(ctx, []byte("pdf"), "application/pdf"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		svc := newService(&stubAI{})
		if _, err := svc.FromImage(ctx, nil, "image/png"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})
}

func TestFromURL(t *testing.T) {
	ctx := context.Background()

	t.Run("valid link", func(t *testing.T) {
		stub := &stubAI{urlOut: &adapter.URLExtraction{ExtractedText: "page text"}}
		svc := newService(stub)
		out, err := svc.FromURL(ctx, "  https://example.com/article ")
		if err != nil {
			t.Fatalf("url: %v", err)
		}
		if out.ExtractedText != "page text" {
			t.Fatalf("got %+v", out)
		}
		if stub.lastURL != "https://example.com/article" {
			t.Fatalf("url not trimmed: %q", stub.lastURL)
		}
	})

	for _, bad := range []string{"", "notaurl", "ftp://example.com/x", "https://"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			svc := newService(&stubAI{})
			if _, err := svc.FromURL(ctx, bad); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("want ErrInvalidArgument for %q, got %v", bad, err)
			}
		})
	}
}

func TestFromFile(t *testing.T) {
	svc := newService(&stubAI{})

	t.Run("plain text accepted", func(t *testing.T) {
		got, err := svc.FromFile("notes.txt", "text/plain", []byte("hello file"))
		if err != nil {
			t.Fatalf("file: %v", err)
		}
		if got != "hello file" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("markdown accepted", func(t *testing.T) {
		if _, err := svc.FromFile("readme.md", "text/markdown", []byte("# title")); err != nil {
			t.Fatalf("markdown: %v", err)
		}
	})

	t.Run("mime with charset parameter accepted", func(t *testing.T) {
		if _, err := svc.FromFile("notes.txt", "text/plain; charset=utf-8", []byte("x")); err != nil {
			t.Fatalf("charset param: %v", err)
		}
	})

	t.Run("octet-stream falls back to extension", func(t *testing.T) {
		if _, err := svc.FromFile("NOTES.MD", "application/octet-stream", []byte("x")); err != nil {
			t.Fatalf("extension fallback: %v", err)
		}
	})

	t.Run("unsupported type rejected", func(t *testing.T) {
		_, err := svc.FromFile("report.pdf", "application/pdf", []byte("%PDF"))
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
		if !strings.Contains(err.Error(), ".txt or .md") {
			t.Fatalf("error should name the supported types: %v", err)
		}
	})

	t.Run("binary content rejected", func(t *testing.T) {
		if _, err := svc.FromFile("fake.txt", "text/plain", []byte{0xFF, 0xFE, 0x00}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})
}

func TestFromVoiceTranscript(t *testing.T) {
	svc := newService(&stubAI{})

	t.Run("short transcript rejected", func(t *testing.T) {
		if _, err := svc.FromVoiceTranscript("too short"); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want ErrValidation, got %v", err)
		}
	})

	t.Run("long transcript passes through", func(t *testing.T) {
		in := "this transcript is comfortably long enough"
		got, err := svc.FromVoiceTranscript(in)
		if err != nil {
			t.Fatalf("voice: %v", err)
		}
		if got != in {
			t.Fatalf("transcript mutated: %q", got)
		}
	})
}
