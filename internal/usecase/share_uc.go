package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/domain/ports/repository"
)

// Compile-time check
var _ ShareUseCase = (*shareUC)(nil)

// ShareUseCase encodes a chatbot as a URL-safe token for link sharing and
// merges incoming tokens into the registry.
type ShareUseCase interface {
	ExportToken(ctx context.Context, botID string) (string, error)
	// ImportToken decodes and merges a shared chatbot. When the id is
	// already present the registry is unchanged and the existing bot is
	// returned with imported=false.
	ImportToken(ctx context.Context, token string) (bot *model.SavedChatbot, imported bool, err error)
}

type shareUC struct {
	bots repository.ChatbotRepository
	log  *zerolog.Logger
}

func NewShareUseCase(bots repository.ChatbotRepository, logger *zerolog.Logger) *shareUC {
	return &shareUC{bots: bots, log: logger}
}

func (u *shareUC) ExportToken(ctx context.Context, botID string) (string, error) {
	bot, err := u.bots.FindByID(ctx, botID)
	if err != nil {
		return "", err
	}
	// History is local to the owner; a share carries configuration only.
	shared := *bot
	shared.History = []model.ChatMessage{}
	b, err := json.Marshal(&shared)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (u *shareUC) ImportToken(ctx context.Context, token string) (*model.SavedChatbot, bool, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		// Legacy links used standard base64.
		raw, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return nil, false, fmt.Errorf("%w: could not decode the shared chatbot link", domain.ErrInvalidArgument)
		}
	}
	var bot model.SavedChatbot
	if err := json.Unmarshal(raw, &bot); err != nil {
		return nil, false, fmt.Errorf("%w: the shared chatbot link looks corrupted", domain.ErrInvalidArgument)
	}
	if bot.ID == "" || bot.Name == "" || !model.ValidContextText(bot.ContextText) || !model.ValidScope(bot.KnowledgeScope) {
		return nil, false, fmt.Errorf("%w: the shared chatbot is incomplete", domain.ErrInvalidArgument)
	}

	if existing, err := u.bots.FindByID(ctx, bot.ID); err == nil {
		return existing, false, nil
	}

	if bot.History == nil {
		bot.History = []model.ChatMessage{}
	}
	bot.SetHistory(bot.History)
	if err := u.bots.Save(ctx, &bot); err != nil {
		return nil, false, err
	}
	u.log.Info().Str("bot_id", bot.ID).Msg("shared chatbot imported")
	return &bot, true, nil
}
