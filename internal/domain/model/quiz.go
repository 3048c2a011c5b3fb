package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// QuizData is the payload of a quiz message. Produced only by the quiz
// special action, and only after the reply survived schema validation.
type QuizData struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

var errMalformedQuiz = errors.New("malformed quiz payload")

// ParseQuizReply scans a model reply for the first top-level JSON object
// and validates it against the quiz shape. Malformed output must never be
// stored as a quiz payload, so the failure modes degrade to plain text:
// the returned message either carries a Quiz or is an explanatory notice.
func ParseQuizReply(reply string) ChatMessage {
	raw, ok := firstJSONObject(reply)
	if !ok {
		return NewBotMessage("I couldn't generate a quiz question in the right format. Sorry about that!")
	}
	quiz, err := decodeQuiz(raw)
	if err != nil {
		return NewBotMessage("I had trouble creating a quiz question. Let's try a regular chat instead.")
	}
	msg := NewBotMessage("Here's a question for you:")
	msg.Quiz = quiz
	return msg
}

func decodeQuiz(raw string) (*QuizData, error) {
	var q QuizData
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.Question) == "" || len(q.Options) == 0 {
		return nil, errMalformedQuiz
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return nil, errMalformedQuiz
	}
	return &q, nil
}

// firstJSONObject returns the first balanced top-level {...} substring.
// Brace counting ignores braces inside JSON strings.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
