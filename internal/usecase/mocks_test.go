package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/domain/ports/adapter"
)

//
// ---------------- in-memory repos ----------------
//

type memBotRepo struct {
	mu   sync.Mutex
	byID map[string]*model.SavedChatbot

	errSave error
	errFind error
	saves   int
}

func newMemBotRepo() *memBotRepo {
	return &memBotRepo{byID: map[string]*model.SavedChatbot{}}
}

func (m *memBotRepo) Save(ctx context.Context, bot *model.SavedChatbot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errSave != nil {
		return m.errSave
	}
	cp := *bot
	m.byID[bot.ID] = &cp
	m.saves++
	return nil
}

func (m *memBotRepo) FindByID(ctx context.Context, id string) (*model.SavedChatbot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errFind != nil {
		return nil, m.errFind
	}
	b, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBotRepo) FindAll(ctx context.Context) ([]*model.SavedChatbot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.SavedChatbot, 0, len(m.byID))
	for _, b := range m.byID {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memBotRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memSessionRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.GeneralChatSession
	order []string

	errSave error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byID: map[string]*model.GeneralChatSession{}}
}

func (m *memSessionRepo) Save(ctx context.Context, s *model.GeneralChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errSave != nil {
		return m.errSave
	}
	if _, ok := m.byID[s.ID]; !ok {
		m.order = append(m.order, s.ID)
	}
	cp := *s
	cp.Messages = append([]model.ChatMessage(nil), s.Messages...)
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSessionRepo) FindByID(ctx context.Context, id string) (*model.GeneralChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	cp.Messages = append([]model.ChatMessage(nil), s.Messages...)
	return &cp, nil
}

// FindAll returns newest-first, matching the repository contract.
func (m *memSessionRepo) FindAll(ctx context.Context) ([]*model.GeneralChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.GeneralChatSession, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if s, ok := m.byID[m.order[i]]; ok {
			cp := *s
			cp.Messages = append([]model.ChatMessage(nil), s.Messages...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

//
// ---------------- fake AI adapter ----------------
//

type fakeHandle struct {
	mu      sync.Mutex
	reply   func(text string) (string, error)
	sent    []string
	barrier chan struct{} // when set, SendMessage blocks until it closes
}

func (h *fakeHandle) SendMessage(ctx context.Context, text string) (string, error) {
	h.mu.Lock()
	h.sent = append(h.sent, text)
	barrier := h.barrier
	h.mu.Unlock()
	if barrier != nil {
		<-barrier
	}
	if h.reply != nil {
		return h.reply(text)
	}
	return "echo: " + text, nil
}

func (h *fakeHandle) sentTexts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.sent...)
}

type fakeAI struct {
	mu        sync.Mutex
	sessions  int
	lastInstr string
	lastHist  []adapter.Message
	errCreate error
	handle    *fakeHandle
}

func newFakeAI() *fakeAI {
	return &fakeAI{handle: &fakeHandle{}}
}

func (f *fakeAI) CreateSession(ctx context.Context, model, systemInstruction string, history []adapter.Message) (adapter.ChatHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errCreate != nil {
		return nil, f.errCreate
	}
	f.sessions++
	f.lastInstr = systemInstruction
	f.lastHist = append([]adapter.Message(nil), history...)
	return f.handle, nil
}

func (f *fakeAI) ExtractTextFromImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	return fmt.Sprintf("image text (%d bytes)", len(data)), nil
}

func (f *fakeAI) ExtractFromURL(ctx context.Context, url string) (*adapter.URLExtraction, error) {
	return &adapter.URLExtraction{ExtractedText: "extracted from " + url}, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n, nil
}

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}

func (f *fakeAI) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions
}

//
// ---------------- helpers ----------------
//

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func seedBot(repo *memBotRepo, id string) *model.SavedChatbot {
	bot := model.NewSavedChatbot(id, "Aldin", "plenty of context text to chat about", model.ScopeStrict)
	_ = repo.Save(context.Background(), bot)
	return bot
}
