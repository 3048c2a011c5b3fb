package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry in a conversation log. Immutable once appended;
// slice order is conversation order.
type ChatMessage struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Sender Sender    `json:"sender"`
	Quiz   *QuizData `json:"quiz,omitempty"`
}

// NewMessageID returns a ULID: unique and ordered by creation time, so a
// log's IDs sort the same way the log does.
func NewMessageID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func NewUserMessage(text string) ChatMessage {
	return ChatMessage{ID: NewMessageID(), Text: text, Sender: SenderUser}
}

func NewBotMessage(text string) ChatMessage {
	return ChatMessage{ID: NewMessageID(), Text: text, Sender: SenderBot}
}
