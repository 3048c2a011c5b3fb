//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
)

func TestChatbotRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	// We pass nil for the Redis cache, as we are only testing the database layer.
	repo := NewPostgresChatbotRepo(testPool, nil)

	t.Run("should save and find a chatbot with its history", func(t *testing.T) {
		cleanup(t)

		bot := model.NewSavedChatbot(uuid.NewString(), "History Tutor", "the french revolution began in 1789", model.ScopeStrict)
		bot.SourceType = model.SourceText
		bot.Summary = "a short recap of 1789"
		bot.Persona = "a patient history teacher"
		bot.SampleQueries = []model.SampleQuery{{Question: "When did it start?"}}
		bot.History = []model.ChatMessage{
			model.NewUserMessage("when did it start?"),
			model.NewBotMessage("In 1789."),
		}

		if err := repo.Save(ctx, bot); err != nil {
			t.Fatalf("failed to save chatbot: %v", err)
		}

		found, err := repo.FindByID(ctx, bot.ID)
		if err != nil {
			t.Fatalf("failed to find chatbot: %v", err)
		}
		if found.Name != bot.Name || found.ContextText != bot.ContextText {
			t.Errorf("round trip mismatch: got %q/%q", found.Name, found.ContextText)
		}
		if found.KnowledgeScope != model.ScopeStrict || found.SourceType != model.SourceText {
			t.Errorf("scope/source mismatch: %q/%q", found.KnowledgeScope, found.SourceType)
		}
		if len(found.SampleQueries) != 1 || found.SampleQueries[0].Question != "When did it start?" {
			t.Errorf("sample queries mismatch: %+v", found.SampleQueries)
		}
		if len(found.History) != 2 || found.History[1].Text != "In 1789." {
			t.Errorf("history mismatch: %+v", found.History)
		}
	})

	t.Run("save is an upsert", func(t *testing.T) {
		cleanup(t)

		bot := model.NewSavedChatbot(uuid.NewString(), "Draft", "twenty characters of context", model.ScopeGeneral)
		if err := repo.Save(ctx, bot); err != nil {
			t.Fatalf("first save: %v", err)
		}

		bot.Name = "Renamed"
		bot.History = append(bot.History, model.NewUserMessage("hello"))
		if err := repo.Save(ctx, bot); err != nil {
			t.Fatalf("second save: %v", err)
		}

		found, err := repo.FindByID(ctx, bot.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found.Name != "Renamed" || len(found.History) != 1 {
			t.Errorf("upsert not applied: %q, %d messages", found.Name, len(found.History))
		}
	})

	t.Run("find all lists oldest first", func(t *testing.T) {
		cleanup(t)

		first := model.NewSavedChatbot(uuid.NewString(), "First", "twenty characters of context", model.ScopeStrict)
		second := model.NewSavedChatbot(uuid.NewString(), "Second", "twenty characters of context", model.ScopeStrict)
		second.CreatedAt = first.CreatedAt.Add(time.Second)
		if err := repo.Save(ctx, first); err != nil {
			t.Fatalf("save first: %v", err)
		}
		if err := repo.Save(ctx, second); err != nil {
			t.Fatalf("save second: %v", err)
		}

		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("find all: %v", err)
		}
		if len(all) != 2 || all[0].Name != "First" || all[1].Name != "Second" {
			t.Errorf("wrong order: %+v", all)
		}
	})

	t.Run("missing chatbot maps to ErrNotFound", func(t *testing.T) {
		cleanup(t)

		if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("want ErrNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("delete: want ErrNotFound, got %v", err)
		}
	})

	t.Run("delete removes the row", func(t *testing.T) {
		cleanup(t)

		bot := model.NewSavedChatbot(uuid.NewString(), "Ephemeral", "twenty characters of context", model.ScopeStrict)
		if err := repo.Save(ctx, bot); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := repo.Delete(ctx, bot.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.FindByID(ctx, bot.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("want ErrNotFound after delete, got %v", err)
		}
	})
}
