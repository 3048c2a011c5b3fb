package repository

import (
	"context"

	"chatbot-studio/internal/domain/model"
)

// PreferencesRepository round-trips presentation settings as one record.
type PreferencesRepository interface {
	Save(ctx context.Context, p *model.Preferences) error
	// Load returns defaults (not ErrNotFound) when nothing is stored yet.
	Load(ctx context.Context) (*model.Preferences, error)
}
