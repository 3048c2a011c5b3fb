package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/domain/ports/adapter"
	"chatbot-studio/internal/domain/ports/repository"
	"chatbot-studio/internal/infra/logging"
	"chatbot-studio/internal/infra/metrics"
	"chatbot-studio/internal/prompt"
)

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

// ConversationUseCase drives the chat thread of the selected chatbot.
// At most one chatbot conversation is live at a time; selecting another
// bot tears the old handle down and rebuilds from persisted history.
type ConversationUseCase interface {
	Select(ctx context.Context, botID string) (*model.SavedChatbot, error)
	Deselect(botID string)
	Messages(ctx context.Context, botID string) ([]model.ChatMessage, error)
	Send(ctx context.Context, botID, text string) (*model.ChatMessage, error)
	Regenerate(ctx context.Context, botID string) (*model.ChatMessage, error)
	SpecialAction(ctx context.Context, botID string, action prompt.SpecialAction) (*model.ChatMessage, error)
}

// conversation is the in-memory state of the live thread: the provider
// handle plus the visible log it must stay consistent with.
type conversation struct {
	botID             string
	systemInstruction string
	handle            adapter.ChatHandle
	messages          []model.ChatMessage
	busy              bool
}

type conversationUC struct {
	mu     sync.Mutex
	bots   repository.ChatbotRepository
	ai     adapter.AIServiceAdapter
	model  string
	log    *zerolog.Logger
	active *conversation
}

func NewConversationUseCase(bots repository.ChatbotRepository, ai adapter.AIServiceAdapter, modelName string, logger *zerolog.Logger) *conversationUC {
	return &conversationUC{bots: bots, ai: ai, model: modelName, log: logger}
}

// Select rebuilds the model handle for botID from the bot's persisted,
// trimmed history and makes it the live conversation.
func (c *conversationUC) Select(ctx context.Context, botID string) (*model.SavedChatbot, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.Select")()
	if c.ai == nil {
		return nil, domain.ErrAINotInitialized
	}
	bot, err := c.bots.FindByID(ctx, botID)
	if err != nil {
		return nil, err
	}

	conv, err := c.buildConversation(ctx, bot, bot.History)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.active != nil {
		metrics.HandleClosed()
	}
	c.active = conv
	metrics.HandleOpened()
	c.mu.Unlock()

	c.log.Debug().Str("bot_id", botID).Int("history", len(bot.History)).Msg("conversation selected")
	return bot, nil
}

// Deselect drops the live conversation if it belongs to botID.
func (c *conversationUC) Deselect(botID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.botID == botID {
		c.active = nil
		metrics.HandleClosed()
	}
}

func (c *conversationUC) Messages(ctx context.Context, botID string) ([]model.ChatMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.botID == botID {
		out := make([]model.ChatMessage, len(c.active.messages))
		copy(out, c.active.messages)
		return out, nil
	}
	bot, err := c.bots.FindByID(ctx, botID)
	if err != nil {
		return nil, err
	}
	return bot.History, nil
}

// Send appends the user message, issues exactly one provider call, and on
// success appends the reply and persists the trimmed log. On failure the
// user message stays visible and no bot message is appended.
func (c *conversationUC) Send(ctx context.Context, botID, text string) (*model.ChatMessage, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.Send")()
	ctx = logging.WithBotID(ctx, botID)
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrInvalidArgument
	}

	conv, err := c.acquire(ctx, botID)
	if err != nil {
		return nil, err
	}

	userMsg := model.NewUserMessage(text)
	c.mu.Lock()
	conv.messages = append(conv.messages, userMsg)
	c.mu.Unlock()

	reply, err := conv.handle.SendMessage(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	conv.busy = false
	if err != nil {
		return nil, normalizeModelErr(err)
	}

	botMsg := model.NewBotMessage(reply)
	conv.messages = append(conv.messages, botMsg)
	c.persistLocked(ctx, conv)
	return &botMsg, nil
}

// Regenerate is only valid when the log ends with a bot message directly
// following a user message; anywhere else it is a no-op. It drops the last
// bot message, rebuilds the handle from the truncated history, and
// resubmits the preceding user message. On failure the log is restored and
// the handle rebuilt from scratch so handle and log never diverge.
func (c *conversationUC) Regenerate(ctx context.Context, botID string) (*model.ChatMessage, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.Regenerate")()
	ctx = logging.WithBotID(ctx, botID)
	conv, err := c.acquire(ctx, botID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	n := len(conv.messages)
	if n < 2 || conv.messages[n-1].Sender != model.SenderBot || conv.messages[n-2].Sender != model.SenderUser {
		conv.busy = false
		c.mu.Unlock()
		return nil, nil
	}
	original := make([]model.ChatMessage, n)
	copy(original, conv.messages)
	truncated := conv.messages[:n-1]
	lastUser := conv.messages[n-2]
	conv.messages = truncated
	c.mu.Unlock()

	botMsg, err := c.resubmit(ctx, conv, truncated, lastUser.Text)

	c.mu.Lock()
	defer c.mu.Unlock()
	conv.busy = false
	if err != nil {
		// Restore first, then rebuild the handle against the restored
		// log; a failed rebuild leaves no handle and the next Select
		// starts clean.
		conv.messages = original
		if rebuilt, rerr := c.rebuildHandle(ctx, conv, original); rerr == nil {
			conv.handle = rebuilt
		} else {
			c.dropActiveLocked(conv)
		}
		return nil, normalizeModelErr(err)
	}

	conv.messages = append(conv.messages, *botMsg)
	c.persistLocked(ctx, conv)
	return botMsg, nil
}

// SpecialAction appends a transient placeholder bot message, issues the
// action's fixed prompt, and on success replaces the placeholder in place.
// On failure the placeholder is removed.
func (c *conversationUC) SpecialAction(ctx context.Context, botID string, action prompt.SpecialAction) (*model.ChatMessage, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.SpecialAction")()
	if !prompt.ValidAction(action) {
		return nil, domain.ErrInvalidArgument
	}
	ctx = logging.WithBotID(ctx, botID)
	conv, err := c.acquire(ctx, botID)
	if err != nil {
		return nil, err
	}

	placeholder := model.NewBotMessage(fmt.Sprintf("Generating %s...", action))
	c.mu.Lock()
	conv.messages = append(conv.messages, placeholder)
	idx := len(conv.messages) - 1
	c.mu.Unlock()

	reply, err := conv.handle.SendMessage(ctx, prompt.ForAction(action))

	c.mu.Lock()
	defer c.mu.Unlock()
	conv.busy = false
	if err != nil {
		conv.messages = removeMessage(conv.messages, placeholder.ID)
		return nil, normalizeModelErr(err)
	}

	var result model.ChatMessage
	if action == prompt.ActionQuiz {
		result = model.ParseQuizReply(strings.TrimSpace(reply))
	} else {
		result = model.NewBotMessage(strings.TrimSpace(reply))
	}
	if idx < len(conv.messages) && conv.messages[idx].ID == placeholder.ID {
		conv.messages[idx] = result
	} else {
		conv.messages = append(removeMessage(conv.messages, placeholder.ID), result)
	}
	c.persistLocked(ctx, conv)
	return &result, nil
}

// --- internal ---

// acquire resolves the live conversation for botID, selecting it first if
// needed, and flips the busy flag. A second send while one call is in
// flight fails with ErrBusy and changes nothing.
func (c *conversationUC) acquire(ctx context.Context, botID string) (*conversation, error) {
	if c.ai == nil {
		return nil, domain.ErrAINotInitialized
	}
	c.mu.Lock()
	if c.active != nil && c.active.botID == botID {
		if c.active.busy {
			c.mu.Unlock()
			return nil, domain.ErrBusy
		}
		c.active.busy = true
		conv := c.active
		c.mu.Unlock()
		return conv, nil
	}
	c.mu.Unlock()

	if _, err := c.Select(ctx, botID); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.botID != botID {
		return nil, domain.ErrNoActiveBot
	}
	c.active.busy = true
	return c.active, nil
}

func (c *conversationUC) buildConversation(ctx context.Context, bot *model.SavedChatbot, history []model.ChatMessage) (*conversation, error) {
	instruction := prompt.ForChatbot(bot.Name, bot.Persona, bot.KnowledgeScope, bot.ContextText)
	handle, err := c.ai.CreateSession(ctx, c.model, instruction, toAdapterHistory(history))
	if err != nil {
		return nil, normalizeModelErr(err)
	}
	msgs := make([]model.ChatMessage, len(history))
	copy(msgs, history)
	return &conversation{
		botID:             bot.ID,
		systemInstruction: instruction,
		handle:            handle,
		messages:          msgs,
	}, nil
}

// resubmit rebuilds the handle over the truncated history and replays the
// last user message against it.
func (c *conversationUC) resubmit(ctx context.Context, conv *conversation, history []model.ChatMessage, userText string) (*model.ChatMessage, error) {
	handle, err := c.rebuildHandle(ctx, conv, history)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	conv.handle = handle
	c.mu.Unlock()

	reply, err := handle.SendMessage(ctx, userText)
	if err != nil {
		return nil, err
	}
	msg := model.NewBotMessage(reply)
	return &msg, nil
}

func (c *conversationUC) rebuildHandle(ctx context.Context, conv *conversation, history []model.ChatMessage) (adapter.ChatHandle, error) {
	// On a regenerate the history still ends with the user turn that is
	// about to be resubmitted; repeating it through SendMessage is what
	// asks for a fresh answer to the same question.
	return c.ai.CreateSession(ctx, c.model, conv.systemInstruction, toAdapterHistory(history))
}

// persistLocked trims the log to the sliding window and flushes it,
// guarding against resurrecting a bot deleted while a call was in flight.
// Callers hold c.mu.
func (c *conversationUC) persistLocked(ctx context.Context, conv *conversation) {
	if c.active == nil || c.active.botID != conv.botID {
		return
	}
	log := logging.With(ctx, c.log)
	bot, err := c.bots.FindByID(ctx, conv.botID)
	if err != nil {
		log.Warn().Err(err).Msg("skip history persist: bot gone")
		return
	}
	bot.SetHistory(conv.messages)
	if err := c.bots.Save(ctx, bot); err != nil {
		log.Error().Err(err).Msg("persist history")
	}
}

func (c *conversationUC) dropActiveLocked(conv *conversation) {
	conv.handle = nil
	if c.active == conv {
		c.active = nil
		metrics.HandleClosed()
	}
}

func toAdapterHistory(msgs []model.ChatMessage) []adapter.Message {
	out := make([]adapter.Message, 0, len(msgs))
	for _, m := range msgs {
		role := adapter.RoleModel
		if m.Sender == model.SenderUser {
			role = adapter.RoleUser
		}
		out = append(out, adapter.Message{Role: role, Content: m.Text})
	}
	return out
}

func removeMessage(msgs []model.ChatMessage, id string) []model.ChatMessage {
	out := msgs[:0]
	for _, m := range msgs {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

// normalizeModelErr maps provider failures onto the domain taxonomy,
// rewriting invalid-credential noise into a friendlier message.
func normalizeModelErr(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "API key not valid") || strings.Contains(msg, "API_KEY_INVALID") || strings.Contains(msg, "invalid api key") {
		return fmt.Errorf("%w: your API key is invalid or has expired", domain.ErrModelCall)
	}
	return fmt.Errorf("%w: %s", domain.ErrModelCall, msg)
}
