package repository

import (
	"context"

	"chatbot-studio/internal/domain/model"
)

// GeneralSessionRepository persists the general-assistant registry.
type GeneralSessionRepository interface {
	Save(ctx context.Context, s *model.GeneralChatSession) error
	FindByID(ctx context.Context, id string) (*model.GeneralChatSession, error)
	// FindAll returns sessions newest-first.
	FindAll(ctx context.Context) ([]*model.GeneralChatSession, error)
	Delete(ctx context.Context, id string) error
}
