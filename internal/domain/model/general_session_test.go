package model

import (
	"strings"
	"testing"
)

func TestNewGeneralChatSession(t *testing.T) {
	s := NewGeneralChatSession("s1")
	if s.Title != DefaultSessionTitle {
		t.Fatalf("want default title, got %q", s.Title)
	}
	if s.Personality != PersonalityFriend {
		t.Fatalf("want friend personality, got %q", s.Personality)
	}
	if len(s.Messages) != 1 || s.Messages[0].ID != GreetingMessageID {
		t.Fatalf("session must seed exactly the greeting, got %+v", s.Messages)
	}
	if s.Messages[0].Sender != SenderBot {
		t.Fatalf("greeting must come from the bot")
	}
}

func TestDeriveTitle(t *testing.T) {
	t.Run("short message kept whole", func(t *testing.T) {
		if got := DeriveTitle("hello there"); got != "hello there" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("long message truncated to the rune limit", func(t *testing.T) {
		long := strings.Repeat("x", 100)
		got := DeriveTitle(long)
		if len([]rune(got)) != TitleMaxChars {
			t.Fatalf("want %d runes, got %d", TitleMaxChars, len([]rune(got)))
		}
	})

	t.Run("multibyte runes are not split", func(t *testing.T) {
		long := strings.Repeat("日", 50)
		got := DeriveTitle(long)
		if len([]rune(got)) != TitleMaxChars {
			t.Fatalf("want %d runes, got %d", TitleMaxChars, len([]rune(got)))
		}
		if !strings.HasPrefix(long, got) {
			t.Fatalf("truncation corrupted runes: %q", got)
		}
	})
}

func TestHistoryForModel_ExcludesGreeting(t *testing.T) {
	s := NewGeneralChatSession("s1")
	s.Messages = append(s.Messages, NewUserMessage("hi"), NewBotMessage("hello"))

	hist := s.HistoryForModel()
	if len(hist) != 2 {
		t.Fatalf("want 2 messages, got %d", len(hist))
	}
	for _, m := range hist {
		if m.ID == GreetingMessageID {
			t.Fatalf("greeting leaked into provider history")
		}
	}
}

func TestValidPersonality(t *testing.T) {
	for _, p := range []Personality{PersonalityProfessional, PersonalityFriend, PersonalityLover, PersonalityLogic, PersonalityGenZ} {
		if !ValidPersonality(p) {
			t.Fatalf("%q rejected", p)
		}
	}
	if ValidPersonality("pirate") {
		t.Fatalf("unknown personality accepted")
	}
}

func TestNewMessageID_UniqueAndOrdered(t *testing.T) {
	a := NewMessageID()
	b := NewMessageID()
	if a == b {
		t.Fatalf("consecutive IDs collided: %s", a)
	}
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("unexpected ID length: %s", a)
	}
}
