package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/domain/ports/adapter"
	"chatbot-studio/internal/infra/export"
	"chatbot-studio/internal/prompt"
	"chatbot-studio/internal/usecase"
)

const maxUploadBytes = 20 << 20

// ===== helpers =====

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainErr maps the domain taxonomy onto HTTP statuses.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrExtractionParse):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoActiveBot):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAINotInitialized):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, domain.ErrModelCall), errors.Is(err, domain.ErrExtraction):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: missing request body", domain.ErrInvalidArgument)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidArgument)
	}
	return nil
}

// ===== auth =====

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("server api key is not configured")
		writeError(w, http.StatusForbidden, "login is not configured")
		return
	}
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDomainErr(w, err)
		return
	}
	if req.APIKey != s.apiKey {
		writeError(w, http.StatusForbidden, "wrong api key")
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ===== chatbots =====

func (s *Server) handleListChatbots(w http.ResponseWriter, r *http.Request) {
	bots, err := s.bots.List(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if bots == nil {
		bots = []*model.SavedChatbot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": bots})
}

type createChatbotRequest struct {
	Name           string              `json:"name"`
	ContextText    string              `json:"contextText"`
	KnowledgeScope string              `json:"knowledgeScope"`
	SourceType     string              `json:"sourceType"`
	Summary        string              `json:"summary"`
	Persona        string              `json:"persona"`
	SampleQueries  []model.SampleQuery `json:"sampleQueries"`
}

func (s *Server) handleCreateChatbot(w http.ResponseWriter, r *http.Request) {
	var req createChatbotRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainErr(w, err)
		return
	}
	bot, err := s.bots.Create(r.Context(), usecase.CreateChatbotParams{
		Name:           req.Name,
		ContextText:    req.ContextText,
		KnowledgeScope: model.KnowledgeScope(req.KnowledgeScope),
		SourceType:     model.SourceType(req.SourceType),
		Summary:        req.Summary,
		Persona:        req.Persona,
		SampleQueries:  req.SampleQueries,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bot)
}

func (s *Server) handleGetChatbot(w http.ResponseWriter, r *http.Request) {
	bot, err := s.bots.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bot)
}

type updateChatbotRequest struct {
	Name           *string `json:"name"`
	Persona        *string `json:"persona"`
	KnowledgeScope *string `json:"knowledgeScope"`
	ContextText    *string `json:"contextText"`
}

func (s *Server) handleUpdateChatbot(w http.ResponseWriter, r *http.Request) {
	var req updateChatbotRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainErr(w, err)
		return
	}
	params := usecase.UpdateChatbotParams{
		Name:        req.Name,
		Persona:     req.Persona,
		ContextText: req.ContextText,
	}
	if req.KnowledgeScope != nil {
		scope := model.KnowledgeScope(*req.KnowledgeScope)
		params.KnowledgeScope = &scope
	}
	bot, err := s.bots.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bot)
}

func (s *Server) handleDeleteChatbot(w http.ResponseWriter, r *http.Request) {
	if err := s.bots.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== conversation =====

func (s *Server) handleSelectChatbot(w http.ResponseWriter, r *http.Request) {
	bot, err := s.conv.Select(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bot)
}

func (s *Server) handleDeselectChatbot(w http.ResponseWriter, r *http.Request) {
	s.conv.Deselect(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChatbotMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.conv.Messages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": msgs})
}

func (s *Server) handleChatbotSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDomainErr(w, err)
		return
	}
	msg, err := s.conv.Send(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleChatbotRegenerate(w http.ResponseWriter, r *http.Request) {
	msg, err := s.conv.Regenerate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if msg == nil {
		// Log does not end with a regenerable reply.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleChatbotAction(w http.ResponseWriter, r *http.Request) {
	action := prompt.SpecialAction(chi.URLParam(r, "action"))
	msg, err := s.conv.SpecialAction(r.Context(), chi.URLParam(r, "id"), action)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleContextSize(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		writeDomainErr(w, domain.ErrAINotInitialized)
		return
	}
	bot, err := s.bots.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	tokens, err := s.ai.CountTokens(r.Context(), s.modelName, []adapter.Message{
		{Role: adapter.RoleUser, Content: bot.ContextText},
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens, "chars": len(bot.ContextText)})
}

// ===== share / export =====

func (s *Server) handleShareChatbot(w http.ResponseWriter, r *http.Request) {
	token, err := s.share.ExportToken(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleImportChatbot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDomainErr(w, err)
		return
	}
	bot, imported, err := s.share.ImportToken(r.Context(), req.Token)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	status := http.StatusOK
	if imported {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"chatbot": bot, "imported": imported})
}

func (s *Server) handleExportChatbot(w http.ResponseWriter, r *http.Request) {
	bot, err := s.bots.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", safeFilename(bot.Name)+".html"))
	if err := export.Render(w, bot, s.geminiKey, s.modelName); err != nil {
		s.log.Error().Err(err).Str("bot_id", bot.ID).Msg("render export")
	}
}

func safeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "chatbot"
	}
	return b.String()
}

// ===== extraction =====

func (s *Server) handleExtractImage(w http.ResponseWriter, r *http.Request) {
	data, mimeType, _, err := readUpload(r, "image")
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	text, err := s.extractor.FromImage(r.Context(), data, mimeType)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"extractedText": text})
}

func (s *Server) handleExtractURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDomainErr(w, err)
		return
	}
	out, err := s.extractor.FromURL(r.Context(), req.URL)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExtractFile(w http.ResponseWriter, r *http.Request) {
	data, mimeType, filename, err := readUpload(r, "file")
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	text, err := s.extractor.FromFile(filename, mimeType, data)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"extractedText": text})
}

func (s *Server) handleExtractVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript string `json:"transcript"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDomainErr(w, err)
		return
	}
	text, err := s.extractor.FromVoiceTranscript(req.Transcript)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"extractedText": text})
}

func readUpload(r *http.Request, field string) (data []byte, mimeType, filename string, err error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", "", fmt.Errorf("%w: expected a multipart upload", domain.ErrInvalidArgument)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: missing %q file field", domain.ErrInvalidArgument, field)
	}
	defer file.Close()
	data, err = io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, "", "", err
	}
	if len(data) > maxUploadBytes {
		return nil, "", "", fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrInvalidArgument, maxUploadBytes)
	}
	return data, header.Header.Get("Content-Type"), header.Filename, nil
}

// ===== assistant =====

func (s *Server) handleAssistantBootstrap(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.assistant.Bootstrap(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sessions})
}

func (s *Server) handleAssistantNewSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.assistant.NewSession(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleAssistantGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.assistant.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleAssistantDeleteSession(w http.ResponseWriter, r *http.Request) {
	// Deleting the last session hands back a freshly synthesized one.
	next, err := s.assistant.DeleteSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activeSession": next})
}

func (s *Server) handleAssistantSetPersonality(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Personality string `json:"personality"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDomainErr(w, err)
		return
	}
	session, err := s.assistant.SetPersonality(r.Context(), chi.URLParam(r, "id"), model.Personality(req.Personality))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleAssistantSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDomainErr(w, err)
		return
	}
	msg, err := s.assistant.Send(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleAssistantRegenerate(w http.ResponseWriter, r *http.Request) {
	msg, err := s.assistant.Regenerate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if msg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// ===== preferences / models =====

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.prefs.Load(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var p model.Preferences
	if err := decodeBody(r, &p); err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.prefs.Save(r.Context(), &p); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &p)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		writeDomainErr(w, domain.ErrAINotInitialized)
		return
	}
	models, err := s.ai.ListModels(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": models, "default": s.modelName})
}
