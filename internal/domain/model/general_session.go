package model

import (
	"time"
)

type Personality string

const (
	PersonalityProfessional Personality = "professional"
	PersonalityFriend       Personality = "friend"
	PersonalityLover        Personality = "lover"
	PersonalityLogic        Personality = "logic"
	PersonalityGenZ         Personality = "genz"
)

func ValidPersonality(p Personality) bool {
	switch p {
	case PersonalityProfessional, PersonalityFriend, PersonalityLover, PersonalityLogic, PersonalityGenZ:
		return true
	}
	return false
}

const (
	// GreetingMessageID marks the canned greeting seeded into every new
	// session. Messages with this ID never reach the provider history.
	GreetingMessageID = "greeting-1"

	GreetingText = "Hello! I'm Aldin, your personal AI assistant. ✨ You can ask me anything. How can I help you today?"

	DefaultSessionTitle = "New Chat"

	// TitleMaxChars bounds the title derived from the first user message.
	TitleMaxChars = 40
)

// GeneralChatSession is one thread of the always-available assistant.
// Unlike SavedChatbot logs, its message list is unbounded.
type GeneralChatSession struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	CreatedAt   time.Time     `json:"createdAt"`
	Messages    []ChatMessage `json:"messages"`
	Personality Personality   `json:"personality"`
}

// NewGeneralChatSession seeds exactly one greeting message.
func NewGeneralChatSession(id string) *GeneralChatSession {
	return &GeneralChatSession{
		ID:        id,
		Title:     DefaultSessionTitle,
		CreatedAt: time.Now(),
		Messages: []ChatMessage{
			{ID: GreetingMessageID, Text: GreetingText, Sender: SenderBot},
		},
		Personality: PersonalityFriend,
	}
}

// DeriveTitle truncates the first user message to TitleMaxChars runes.
func DeriveTitle(firstUserMessage string) string {
	runes := []rune(firstUserMessage)
	if len(runes) > TitleMaxChars {
		runes = runes[:TitleMaxChars]
	}
	return string(runes)
}

// HistoryForModel returns the messages that belong in the provider-side
// history, excluding the synthetic greeting.
func (s *GeneralChatSession) HistoryForModel() []ChatMessage {
	out := make([]ChatMessage, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.ID == GreetingMessageID {
			continue
		}
		out = append(out, m)
	}
	return out
}
