package export

import (
	"bytes"
	"strings"
	"testing"

	"chatbot-studio/internal/domain/model"
)

func TestRender(t *testing.T) {
	bot := model.NewSavedChatbot("b1", "Study Buddy", "a context body that is long enough", model.ScopeStrict)
	bot.History = []model.ChatMessage{model.NewUserMessage("secret question")}

	var buf bytes.Buffer
	if err := Render(&buf, bot, "test-key", "gemini-2.5-flash"); err != nil {
		t.Fatalf("render: %v", err)
	}
	doc := buf.String()

	if !strings.Contains(doc, "<!DOCTYPE html>") {
		t.Fatalf("not a full document")
	}
	if !strings.Contains(doc, "Study Buddy") {
		t.Fatalf("bot name missing")
	}
	if !strings.Contains(doc, "gemini-2.5-flash") {
		t.Fatalf("model name missing")
	}
	// The artifact embeds configuration, never the conversation log.
	if strings.Contains(doc, "secret question") {
		t.Fatalf("history leaked into the export")
	}
	// The embedded instruction matches what the live server would use.
	if !strings.Contains(doc, "STRICTLY and ABSOLUTELY limited") {
		t.Fatalf("system instruction missing")
	}
}

func TestRender_EscapesHostileNames(t *testing.T) {
	bot := model.NewSavedChatbot("b1", `<script>alert(1)</script>`, "a context body that is long enough", model.ScopeGeneral)

	var buf bytes.Buffer
	if err := Render(&buf, bot, "k", "m"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Fatalf("name not escaped in markup")
	}
}
