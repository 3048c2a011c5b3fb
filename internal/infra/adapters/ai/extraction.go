package ai

import (
	"encoding/json"
	"fmt"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/ports/adapter"
)

// imageExtractionPrompt asks for scene description and OCR in one round
// trip; the resulting blob becomes the chatbot's only knowledge source.
const imageExtractionPrompt = "You are an expert visual analyst. Your task is to create a rich knowledge base from this image for a chatbot.\n\n" +
	"1. **Identify & Describe:** First, identify any specific objects, people, landmarks, or items in the image. For example, if you see food, try to name the dish (e.g., 'a plate of spaghetti bolognese'). Then, provide a detailed overall description of the scene, including colors, textures, and the general atmosphere.\n\n" +
	"2. **Extract Text:** Second, meticulously extract any and all text visible in the image.\n\n" +
	"3. **Synthesize:** Finally, combine the identification, description, and extracted text into a single, comprehensive text. This text will be the ONLY source of information for the chatbot. Be as detailed as possible to create a powerful and knowledgeable chatbot."

func urlExtractionPrompt(url string) string {
	return fmt.Sprintf(`You are a specialized data extractor. Your primary and most critical mission is to process the content of the provided URL and return a valid JSON object.

URL: %s

**CRITICAL INSTRUCTION: Text Extraction**
The 'extractedText' field in your JSON output MUST contain the complete, full, and unabridged text of the main content from the URL. Do not summarize, shorten, or omit any information. Treat this as a high-fidelity data scraping task. If the article is long, you must include all of it. This is your most important directive.

After you have completed the full text extraction, populate the following fields in the JSON object:
- 'summary': A concise summary of the key themes from the full text you extracted.
- 'persona': A one-sentence description for a chatbot based on the content (e.g., "A helpful expert on [topic]").
- 'sampleQueries': An array of 3 sample questions a user might ask.
`, url)
}

// decodeURLExtraction parses the structured reply. A reply that cannot be
// parsed is a distinct failure from a fetch failure, so callers can tell
// "unreachable" apart from "unsuitable content".
func decodeURLExtraction(raw string) (*adapter.URLExtraction, error) {
	var out adapter.URLExtraction
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: the content from the URL may not be suitable for analysis", domain.ErrExtractionParse)
	}
	if out.ExtractedText == "" {
		return nil, fmt.Errorf("%w: the response did not contain the expected text content", domain.ErrExtractionParse)
	}
	return &out, nil
}
