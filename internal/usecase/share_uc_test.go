package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
)

func TestShare_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemBotRepo()
	uc := NewShareUseCase(repo, newLogger())

	bot := seedBot(repo, "b1")
	bot.History = []model.ChatMessage{model.NewUserMessage("private"), model.NewBotMessage("stuff")}
	_ = repo.Save(ctx, bot)

	token, err := uc.ExportToken(ctx, "b1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	// The share payload carries configuration only, never the log.
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token not URL-safe base64: %v", err)
	}
	var payload model.SavedChatbot
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("token payload not JSON: %v", err)
	}
	if len(payload.History) != 0 {
		t.Fatalf("history leaked into share token")
	}

	// Import into an empty registry creates the bot.
	fresh := newMemBotRepo()
	uc2 := NewShareUseCase(fresh, newLogger())
	got, imported, err := uc2.ImportToken(ctx, token)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !imported {
		t.Fatalf("expected a fresh import")
	}
	if got.ID != bot.ID || got.Name != bot.Name || got.ContextText != bot.ContextText {
		t.Fatalf("imported bot differs: %+v", got)
	}
}

func TestShare_DuplicateImportIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := newMemBotRepo()
	uc := NewShareUseCase(repo, newLogger())
	bot := seedBot(repo, "b1")
	bot.History = []model.ChatMessage{model.NewUserMessage("kept")}
	_ = repo.Save(ctx, bot)

	token, err := uc.ExportToken(ctx, "b1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	savesBefore := repo.saves
	got, imported, err := uc.ImportToken(ctx, token)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported {
		t.Fatalf("duplicate import must be a no-op")
	}
	if repo.saves != savesBefore {
		t.Fatalf("duplicate import wrote to the registry")
	}
	if len(got.History) != 1 || got.History[0].Text != "kept" {
		t.Fatalf("existing bot state must be returned untouched: %+v", got.History)
	}
}

func TestShare_LegacyStdBase64Accepted(t *testing.T) {
	ctx := context.Background()
	repo := newMemBotRepo()
	uc := NewShareUseCase(repo, newLogger())

	bot := model.NewSavedChatbot("legacy-1", "Old Bot", "context text long enough for import", model.ScopeGeneral)
	raw, _ := json.Marshal(bot)
	token := base64.StdEncoding.EncodeToString(raw)

	_, imported, err := uc.ImportToken(ctx, token)
	if err != nil {
		t.Fatalf("legacy import: %v", err)
	}
	if !imported {
		t.Fatalf("legacy token should import")
	}
}

func TestShare_BadTokens(t *testing.T) {
	ctx := context.Background()
	repo := newMemBotRepo()
	uc := NewShareUseCase(repo, newLogger())

	t.Run("not base64", func(t *testing.T) {
		if _, _, err := uc.ImportToken(ctx, "%%%not-base64%%%"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("not JSON", func(t *testing.T) {
		token := base64.RawURLEncoding.EncodeToString([]byte("plain text"))
		if _, _, err := uc.ImportToken(ctx, token); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("incomplete bot", func(t *testing.T) {
		raw, _ := json.Marshal(map[string]string{"id": "x", "name": "Nameless"})
		token := base64.RawURLEncoding.EncodeToString(raw)
		if _, _, err := uc.ImportToken(ctx, token); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})
}
