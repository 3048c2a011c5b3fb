package ai

import (
	"errors"
	"testing"

	"chatbot-studio/internal/domain"
)

func TestDecodeURLExtraction(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		out, err := decodeURLExtraction(`{"extractedText":"the full article","summary":"s","persona":"p","sampleQueries":["a?","b?","c?"]}`)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.ExtractedText != "the full article" || len(out.SampleQueries) != 3 {
			t.Fatalf("payload mangled: %+v", out)
		}
	})

	t.Run("non-JSON reply is a parse failure", func(t *testing.T) {
		_, err := decodeURLExtraction("I could not access that page, sorry.")
		if !errors.Is(err, domain.ErrExtractionParse) {
			t.Fatalf("want ErrExtractionParse, got %v", err)
		}
		// A reply that parses badly must never look like a fetch failure.
		if errors.Is(err, domain.ErrExtraction) {
			t.Fatalf("parse failure conflated with fetch failure: %v", err)
		}
	})

	t.Run("missing extractedText is a parse failure", func(t *testing.T) {
		_, err := decodeURLExtraction(`{"summary":"s","persona":"p","sampleQueries":[]}`)
		if !errors.Is(err, domain.ErrExtractionParse) {
			t.Fatalf("want ErrExtractionParse, got %v", err)
		}
	})

	t.Run("truncated JSON is a parse failure", func(t *testing.T) {
		_, err := decodeURLExtraction(`{"extractedText":"cut off`)
		if !errors.Is(err, domain.ErrExtractionParse) {
			t.Fatalf("want ErrExtractionParse, got %v", err)
		}
	})
}
