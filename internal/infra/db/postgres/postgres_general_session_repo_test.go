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

func TestGeneralSessionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewPostgresGeneralSessionRepo(testPool)

	t.Run("should save and find a session with its greeting", func(t *testing.T) {
		cleanup(t)

		s := model.NewGeneralChatSession(uuid.NewString())
		s.Messages = append(s.Messages, model.NewUserMessage("hi there"))
		s.Title = model.DeriveTitle("hi there")

		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		found, err := repo.FindByID(ctx, s.ID)
		if err != nil {
			t.Fatalf("failed to find session: %v", err)
		}
		if found.Title != "hi there" || found.Personality != model.PersonalityFriend {
			t.Errorf("round trip mismatch: %q/%q", found.Title, found.Personality)
		}
		if len(found.Messages) != 2 || found.Messages[0].ID != model.GreetingMessageID {
			t.Errorf("messages mismatch: %+v", found.Messages)
		}
	})

	t.Run("save updates personality and messages in place", func(t *testing.T) {
		cleanup(t)

		s := model.NewGeneralChatSession(uuid.NewString())
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("first save: %v", err)
		}

		s.Personality = model.PersonalityLogic
		s.Messages = append(s.Messages, model.NewUserMessage("prove it"))
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("second save: %v", err)
		}

		found, err := repo.FindByID(ctx, s.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found.Personality != model.PersonalityLogic || len(found.Messages) != 2 {
			t.Errorf("update not applied: %q, %d messages", found.Personality, len(found.Messages))
		}
	})

	t.Run("find all lists newest first", func(t *testing.T) {
		cleanup(t)

		older := model.NewGeneralChatSession(uuid.NewString())
		older.Title = "older"
		newer := model.NewGeneralChatSession(uuid.NewString())
		newer.Title = "newer"
		newer.CreatedAt = older.CreatedAt.Add(time.Second)
		if err := repo.Save(ctx, older); err != nil {
			t.Fatalf("save older: %v", err)
		}
		if err := repo.Save(ctx, newer); err != nil {
			t.Fatalf("save newer: %v", err)
		}

		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("find all: %v", err)
		}
		if len(all) != 2 || all[0].Title != "newer" || all[1].Title != "older" {
			t.Errorf("wrong order: %+v", all)
		}
	})

	t.Run("missing session maps to ErrNotFound", func(t *testing.T) {
		cleanup(t)

		if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("want ErrNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("delete: want ErrNotFound, got %v", err)
		}
	})
}
