// Package web exposes the application over HTTP/JSON for the browser UI.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chatbot-studio/internal/domain/ports/adapter"
	"chatbot-studio/internal/domain/ports/repository"
	"chatbot-studio/internal/infra/extract"
	"chatbot-studio/internal/infra/logging"
	"chatbot-studio/internal/usecase"
)

type Server struct {
	bots      usecase.ChatbotUseCase
	conv      usecase.ConversationUseCase
	assistant usecase.AssistantUseCase
	share     usecase.ShareUseCase
	extractor *extract.Service
	prefs     repository.PreferencesRepository
	ai        adapter.AIServiceAdapter

	auth      *AuthManager
	apiKey    string
	geminiKey string
	modelName string
	devMode   bool
	log       *zerolog.Logger
}

type ServerOptions struct {
	// APIKey is exchanged for a session token at /api/v1/auth/session.
	APIKey string
	// GeminiKey is embedded into exported standalone chatbots.
	GeminiKey string
	ModelName string
	DevMode   bool
}

func NewServer(
	bots usecase.ChatbotUseCase,
	conv usecase.ConversationUseCase,
	assistant usecase.AssistantUseCase,
	share usecase.ShareUseCase,
	extractor *extract.Service,
	prefs repository.PreferencesRepository,
	ai adapter.AIServiceAdapter,
	auth *AuthManager,
	opts ServerOptions,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		bots:      bots,
		conv:      conv,
		assistant: assistant,
		share:     share,
		extractor: extractor,
		prefs:     prefs,
		ai:        ai,
		auth:      auth,
		apiKey:    opts.APIKey,
		geminiKey: opts.GeminiKey,
		modelName: opts.ModelName,
		devMode:   opts.DevMode,
		log:       logger,
	}
}

// Router builds the chi mux: open health/metrics/auth endpoints, and the
// session-guarded API under /api/v1.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/session", s.handleLogin)
		r.Delete("/auth/session", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/chatbots", func(r chi.Router) {
				r.Get("/", s.handleListChatbots)
				r.Post("/", s.handleCreateChatbot)
				r.Post("/import", s.handleImportChatbot)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetChatbot)
					r.Put("/", s.handleUpdateChatbot)
					r.Delete("/", s.handleDeleteChatbot)
					r.Post("/select", s.handleSelectChatbot)
					r.Delete("/select", s.handleDeselectChatbot)
					r.Get("/messages", s.handleChatbotMessages)
					r.Post("/messages", s.handleChatbotSend)
					r.Post("/regenerate", s.handleChatbotRegenerate)
					r.Post("/actions/{action}", s.handleChatbotAction)
					r.Get("/share", s.handleShareChatbot)
					r.Get("/export", s.handleExportChatbot)
					r.Get("/context-size", s.handleContextSize)
				})
			})

			r.Route("/extract", func(r chi.Router) {
				r.Post("/image", s.handleExtractImage)
				r.Post("/url", s.handleExtractURL)
				r.Post("/file", s.handleExtractFile)
				r.Post("/voice", s.handleExtractVoice)
			})

			r.Route("/assistant/sessions", func(r chi.Router) {
				r.Get("/", s.handleAssistantBootstrap)
				r.Post("/", s.handleAssistantNewSession)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleAssistantGetSession)
					r.Delete("/", s.handleAssistantDeleteSession)
					r.Put("/personality", s.handleAssistantSetPersonality)
					r.Post("/messages", s.handleAssistantSend)
					r.Post("/regenerate", s.handleAssistantRegenerate)
				})
			})

			r.Get("/preferences", s.handleGetPreferences)
			r.Put("/preferences", s.handlePutPreferences)
			r.Get("/models", s.handleListModels)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := logging.WithRequestID(r.Context(), reqID)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.With(ctx, s.log).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// authMiddleware guards the API with the minted session token. Dev mode
// runs without auth so the UI can be developed against a local server.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.devMode {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeError(w, http.StatusUnauthorized, "a valid session is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
