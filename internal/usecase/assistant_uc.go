package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/domain/ports/adapter"
	"chatbot-studio/internal/domain/ports/repository"
	"chatbot-studio/internal/infra/logging"
	"chatbot-studio/internal/prompt"
)

// Compile-time check
var _ AssistantUseCase = (*assistantUC)(nil)

// AssistantUseCase manages the always-available general assistant: a
// non-empty set of sessions, each with its own personality and handle.
type AssistantUseCase interface {
	// Bootstrap loads the registry and guarantees at least one session.
	Bootstrap(ctx context.Context) ([]*model.GeneralChatSession, error)
	List(ctx context.Context) ([]*model.GeneralChatSession, error)
	Get(ctx context.Context, id string) (*model.GeneralChatSession, error)
	NewSession(ctx context.Context) (*model.GeneralChatSession, error)
	// DeleteSession removes a session; deleting the last one synthesizes
	// a fresh default session so the registry never goes empty.
	DeleteSession(ctx context.Context, id string) (*model.GeneralChatSession, error)
	SetPersonality(ctx context.Context, id string, p model.Personality) (*model.GeneralChatSession, error)
	Send(ctx context.Context, id, text string) (*model.ChatMessage, error)
	Regenerate(ctx context.Context, id string) (*model.ChatMessage, error)
}

type assistantUC struct {
	mu       sync.Mutex
	sessions repository.GeneralSessionRepository
	ai       adapter.AIServiceAdapter
	model    string
	log      *zerolog.Logger
	handles  map[string]adapter.ChatHandle
	busy     map[string]bool
}

func NewAssistantUseCase(sessions repository.GeneralSessionRepository, ai adapter.AIServiceAdapter, modelName string, logger *zerolog.Logger) *assistantUC {
	return &assistantUC{
		sessions: sessions,
		ai:       ai,
		model:    modelName,
		log:      logger,
		handles:  map[string]adapter.ChatHandle{},
		busy:     map[string]bool{},
	}
}

func (u *assistantUC) Bootstrap(ctx context.Context) ([]*model.GeneralChatSession, error) {
	all, err := u.sessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		return all, nil
	}
	s, err := u.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	return []*model.GeneralChatSession{s}, nil
}

func (u *assistantUC) List(ctx context.Context) ([]*model.GeneralChatSession, error) {
	return u.sessions.FindAll(ctx)
}

func (u *assistantUC) Get(ctx context.Context, id string) (*model.GeneralChatSession, error) {
	return u.sessions.FindByID(ctx, id)
}

func (u *assistantUC) NewSession(ctx context.Context) (*model.GeneralChatSession, error) {
	s := model.NewGeneralChatSession(uuid.NewString())
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	u.log.Debug().Str("session_id", s.ID).Msg("assistant session created")
	return s, nil
}

func (u *assistantUC) DeleteSession(ctx context.Context, id string) (*model.GeneralChatSession, error) {
	if err := u.sessions.Delete(ctx, id); err != nil {
		return nil, err
	}
	u.mu.Lock()
	delete(u.handles, id)
	delete(u.busy, id)
	u.mu.Unlock()

	remaining, err := u.sessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(remaining) > 0 {
		return remaining[0], nil
	}
	return u.NewSession(ctx)
}

// SetPersonality mutates the session and drops its cached handle; the
// system instruction depends on the personality, so the next interaction
// rebuilds the handle.
func (u *assistantUC) SetPersonality(ctx context.Context, id string, p model.Personality) (*model.GeneralChatSession, error) {
	if !model.ValidPersonality(p) {
		return nil, fmt.Errorf("%w: unknown personality %q", domain.ErrInvalidArgument, p)
	}
	s, err := u.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Personality = p
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	u.mu.Lock()
	delete(u.handles, id)
	u.mu.Unlock()
	return s, nil
}

func (u *assistantUC) Send(ctx context.Context, id, text string) (*model.ChatMessage, error) {
	defer logging.TraceDuration(u.log, "AssistantUC.Send")()
	ctx = logging.WithSessID(ctx, id)
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrInvalidArgument
	}
	s, handle, err := u.acquire(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	defer u.release(id)

	// First user message names the thread.
	if len(s.Messages) <= 1 {
		s.Title = model.DeriveTitle(text)
	}
	s.Messages = append(s.Messages, model.NewUserMessage(text))

	reply, err := handle.SendMessage(ctx, text)
	if err != nil {
		// Keep the user message visible; flush it so a reload shows the
		// same log the user saw.
		u.persist(ctx, s)
		return nil, normalizeModelErr(err)
	}

	botMsg := model.NewBotMessage(reply)
	s.Messages = append(s.Messages, botMsg)
	u.persist(ctx, s)
	return &botMsg, nil
}

func (u *assistantUC) Regenerate(ctx context.Context, id string) (*model.ChatMessage, error) {
	defer logging.TraceDuration(u.log, "AssistantUC.Regenerate")()
	ctx = logging.WithSessID(ctx, id)
	s, err := u.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n := len(s.Messages)
	if n < 2 || s.Messages[n-1].Sender != model.SenderBot || s.Messages[n-2].Sender != model.SenderUser {
		return nil, nil
	}

	truncated := s.Messages[:n-1]
	lastUser := s.Messages[n-2]
	s.Messages = truncated

	// Rebuild the handle over the truncated history so its internal state
	// matches the restored log before the user turn is replayed.
	_, handle, err := u.acquire(ctx, id, s)
	if err != nil {
		return nil, err
	}
	defer u.release(id)

	reply, err := handle.SendMessage(ctx, lastUser.Text)
	if err != nil {
		u.mu.Lock()
		delete(u.handles, id)
		u.mu.Unlock()
		return nil, normalizeModelErr(err)
	}

	botMsg := model.NewBotMessage(reply)
	s.Messages = append(s.Messages, botMsg)
	u.persist(ctx, s)
	return &botMsg, nil
}

// --- internal ---

// acquire loads the session (unless provided), flips its busy flag, and
// returns a handle, building one when none is cached. forceFrom rebuilds
// the handle from the given session's current messages.
func (u *assistantUC) acquire(ctx context.Context, id string, forceFrom *model.GeneralChatSession) (*model.GeneralChatSession, adapter.ChatHandle, error) {
	if u.ai == nil {
		return nil, nil, domain.ErrAINotInitialized
	}
	s := forceFrom
	if s == nil {
		var err error
		s, err = u.sessions.FindByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
	}

	u.mu.Lock()
	if u.busy[id] {
		u.mu.Unlock()
		return nil, nil, domain.ErrBusy
	}
	u.busy[id] = true
	handle, ok := u.handles[id]
	if forceFrom != nil {
		ok = false
	}
	u.mu.Unlock()

	if !ok {
		instruction := prompt.ForPersonality(s.Personality)
		var err error
		handle, err = u.ai.CreateSession(ctx, u.model, instruction, toAdapterHistory(s.HistoryForModel()))
		if err != nil {
			u.release(id)
			return nil, nil, normalizeModelErr(err)
		}
		u.mu.Lock()
		u.handles[id] = handle
		u.mu.Unlock()
	}
	return s, handle, nil
}

func (u *assistantUC) release(id string) {
	u.mu.Lock()
	delete(u.busy, id)
	u.mu.Unlock()
}

func (u *assistantUC) persist(ctx context.Context, s *model.GeneralChatSession) {
	if err := u.sessions.Save(ctx, s); err != nil {
		logging.With(ctx, u.log).Error().Err(err).Msg("persist session")
	}
}
