package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/domain/ports/repository"
	"chatbot-studio/internal/infra/logging"
	"chatbot-studio/internal/infra/metrics"
)

// Compile-time check
var _ ChatbotUseCase = (*chatbotUC)(nil)

// CreateChatbotParams is the confirmed configuration after extraction.
type CreateChatbotParams struct {
	Name           string
	ContextText    string
	KnowledgeScope model.KnowledgeScope
	SourceType     model.SourceType
	Summary        string
	Persona        string
	SampleQueries  []model.SampleQuery
}

// UpdateChatbotParams carries partial edits; nil fields are left alone.
type UpdateChatbotParams struct {
	Name           *string
	Persona        *string
	KnowledgeScope *model.KnowledgeScope
	ContextText    *string
}

type ChatbotUseCase interface {
	Create(ctx context.Context, p CreateChatbotParams) (*model.SavedChatbot, error)
	Update(ctx context.Context, id string, p UpdateChatbotParams) (*model.SavedChatbot, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.SavedChatbot, error)
	List(ctx context.Context) ([]*model.SavedChatbot, error)
}

type chatbotUC struct {
	bots repository.ChatbotRepository
	conv ConversationUseCase
	log  *zerolog.Logger
}

func NewChatbotUseCase(bots repository.ChatbotRepository, conv ConversationUseCase, logger *zerolog.Logger) *chatbotUC {
	return &chatbotUC{bots: bots, conv: conv, log: logger}
}

// Create validates the context text before anything is persisted or any
// model call is made.
func (u *chatbotUC) Create(ctx context.Context, p CreateChatbotParams) (*model.SavedChatbot, error) {
	defer logging.TraceDuration(u.log, "ChatbotUC.Create")()
	if !model.ValidContextText(p.ContextText) {
		return nil, fmt.Errorf("%w: the provided source did not contain enough text to create a chatbot", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !model.ValidScope(p.KnowledgeScope) {
		return nil, fmt.Errorf("%w: knowledge scope must be strict or general", domain.ErrInvalidArgument)
	}
	if !model.ValidSourceType(p.SourceType) {
		return nil, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidArgument, p.SourceType)
	}

	bot := model.NewSavedChatbot(uuid.NewString(), strings.TrimSpace(p.Name), p.ContextText, p.KnowledgeScope)
	bot.SourceType = p.SourceType
	bot.Summary = p.Summary
	bot.Persona = p.Persona
	bot.SampleQueries = p.SampleQueries

	if err := u.bots.Save(ctx, bot); err != nil {
		return nil, err
	}
	metrics.IncChatbotCreated()
	u.log.Info().Str("bot_id", bot.ID).Str("source", string(bot.SourceType)).Msg("chatbot created")
	return bot, nil
}

// Update merges fields and persists. Changes to persona, scope or context
// invalidate the live handle, so the conversation is deselected; the next
// interaction rebuilds it against the new configuration.
func (u *chatbotUC) Update(ctx context.Context, id string, p UpdateChatbotParams) (*model.SavedChatbot, error) {
	bot, err := u.bots.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rebuild := false
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		bot.Name = strings.TrimSpace(*p.Name)
		rebuild = true
	}
	if p.Persona != nil {
		bot.Persona = *p.Persona
		rebuild = true
	}
	if p.KnowledgeScope != nil {
		if !model.ValidScope(*p.KnowledgeScope) {
			return nil, fmt.Errorf("%w: knowledge scope must be strict or general", domain.ErrInvalidArgument)
		}
		bot.KnowledgeScope = *p.KnowledgeScope
		rebuild = true
	}
	if p.ContextText != nil {
		if !model.ValidContextText(*p.ContextText) {
			return nil, fmt.Errorf("%w: context text must be at least %d characters", domain.ErrValidation, model.MinContextChars)
		}
		bot.ContextText = *p.ContextText
		rebuild = true
	}

	if err := u.bots.Save(ctx, bot); err != nil {
		return nil, err
	}
	if rebuild {
		u.conv.Deselect(id)
	}
	return bot, nil
}

func (u *chatbotUC) Delete(ctx context.Context, id string) error {
	if err := u.bots.Delete(ctx, id); err != nil {
		return err
	}
	u.conv.Deselect(id)
	u.log.Info().Str("bot_id", id).Msg("chatbot deleted")
	return nil
}

func (u *chatbotUC) Get(ctx context.Context, id string) (*model.SavedChatbot, error) {
	return u.bots.FindByID(ctx, id)
}

func (u *chatbotUC) List(ctx context.Context) ([]*model.SavedChatbot, error) {
	return u.bots.FindAll(ctx)
}
