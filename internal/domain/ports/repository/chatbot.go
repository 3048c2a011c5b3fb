package repository

import (
	"context"

	"chatbot-studio/internal/domain/model"
)

// ChatbotRepository persists the chatbot registry. Save upserts the whole
// aggregate, history included, so every mutation flushes a consistent row.
type ChatbotRepository interface {
	Save(ctx context.Context, bot *model.SavedChatbot) error
	FindByID(ctx context.Context, id string) (*model.SavedChatbot, error)
	FindAll(ctx context.Context) ([]*model.SavedChatbot, error)
	Delete(ctx context.Context, id string) error
}
