package model

import (
	"strings"
	"time"
)

type KnowledgeScope string

const (
	ScopeStrict  KnowledgeScope = "strict"
	ScopeGeneral KnowledgeScope = "general"
)

type SourceType string

const (
	SourceImage SourceType = "image"
	SourceFile  SourceType = "file"
	SourceText  SourceType = "text"
	SourceLink  SourceType = "link"
)

const (
	// MinContextChars is the minimum trimmed length of a knowledge source.
	MinContextChars = 20
	// HistoryLimit caps a chatbot's persisted log; older turns are dropped.
	HistoryLimit = 12
)

type SampleQuery struct {
	Question string `json:"question"`
}

// SavedChatbot is a user-created chatbot: a name, the context text its
// answers are grounded in, and a bounded conversation history.
type SavedChatbot struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	ContextText    string         `json:"contextText"`
	CreatedAt      time.Time      `json:"createdAt"`
	KnowledgeScope KnowledgeScope `json:"knowledgeScope"`
	SourceType     SourceType     `json:"sourceType,omitempty"`
	Summary        string         `json:"summary,omitempty"`
	Persona        string         `json:"persona,omitempty"`
	SampleQueries  []SampleQuery  `json:"sampleQueries,omitempty"`
	History        []ChatMessage  `json:"history"`
}

func NewSavedChatbot(id, name, contextText string, scope KnowledgeScope) *SavedChatbot {
	return &SavedChatbot{
		ID:             id,
		Name:           name,
		ContextText:    contextText,
		CreatedAt:      time.Now(),
		KnowledgeScope: scope,
		History:        []ChatMessage{},
	}
}

// ValidContextText reports whether text carries enough content to seed a
// chatbot.
func ValidContextText(text string) bool {
	return len(strings.TrimSpace(text)) >= MinContextChars
}

// SetHistory replaces the log, keeping only the most recent HistoryLimit
// entries in original order.
func (b *SavedChatbot) SetHistory(msgs []ChatMessage) {
	b.History = TrimHistory(msgs, HistoryLimit)
}

// TrimHistory returns the last limit entries of msgs. The result is a copy
// so callers can keep appending to msgs without aliasing the stored log.
func TrimHistory(msgs []ChatMessage, limit int) []ChatMessage {
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

func ValidScope(s KnowledgeScope) bool {
	return s == ScopeStrict || s == ScopeGeneral
}

func ValidSourceType(s SourceType) bool {
	switch s {
	case SourceImage, SourceFile, SourceText, SourceLink, "":
		return true
	}
	return false
}
