// Package api exposes the study service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kotoba-study/kotoba/internal/ai"
	"github.com/kotoba-study/kotoba/internal/auth"
	"github.com/kotoba-study/kotoba/internal/core"
	"github.com/kotoba-study/kotoba/internal/db"
	"github.com/kotoba-study/kotoba/internal/quiz"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

// Handler contains all HTTP handlers.
type Handler struct {
	Core      *core.Service
	Auth      *auth.Service
	Sessions  *Sessions
	Sentences *RateLimiter

	logger *slog.Logger
}

// NewHandler creates a handler. sessions and limiter may be nil for defaults.
func NewHandler(svc *core.Service, authSvc *auth.Service, sessions *Sessions, limiter *RateLimiter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = NewSessions(0)
	}
	if limiter == nil {
		limiter = NewRateLimiter(0, 0)
	}
	return &Handler{Core: svc, Auth: authSvc, Sessions: sessions, Sentences: limiter, logger: logger}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Routes registers every endpoint. Everything under /api except sign-up and
// sign-in requires authentication.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	protect := func(fn http.HandlerFunc) http.Handler { return h.Auth.Middleware(fn) }

	mux.HandleFunc("POST /api/auth/signup", h.SignUp)
	mux.HandleFunc("POST /api/auth/signin", h.SignIn)
	mux.HandleFunc("POST /api/auth/signout", h.SignOut)
	mux.Handle("GET /api/me", protect(h.Me))

	mux.Handle("GET /api/words", protect(h.ListWords))
	mux.Handle("POST /api/words", protect(h.CreateWord))
	mux.Handle("GET /api/words/stream", protect(h.StreamWords))
	mux.Handle("GET /api/words/{id}", protect(h.GetWord))
	mux.Handle("PUT /api/words/{id}", protect(h.UpdateWord))
	mux.Handle("DELETE /api/words/{id}", protect(h.DeleteWord))
	mux.Handle("POST /api/words/{id}/learned", protect(h.ToggleLearned))
	mux.Handle("POST /api/sentences", protect(h.GenerateSentences))

	mux.Handle("GET /api/kanji", protect(h.ListKanji))
	mux.Handle("POST /api/kanji", protect(h.CreateKanji))
	mux.Handle("PUT /api/kanji/{id}", protect(h.UpdateKanji))
	mux.Handle("DELETE /api/kanji/{id}", protect(h.DeleteKanji))

	mux.Handle("POST /api/quiz/flashcards", protect(h.StartFlashcards))
	mux.Handle("GET /api/quiz/flashcards/{sid}", protect(h.FlashcardState))
	mux.Handle("POST /api/quiz/flashcards/{sid}/flip", protect(h.FlipFlashcard))
	mux.Handle("POST /api/quiz/flashcards/{sid}/answer", protect(h.AnswerFlashcard))
	mux.Handle("POST /api/quiz/flashcards/{sid}/restart", protect(h.RestartFlashcards))
	mux.Handle("POST /api/quiz/flashcards/{sid}/begin", protect(h.BeginFlashcards))
	mux.Handle("POST /api/quiz/fill", protect(h.StartFill))
	mux.Handle("GET /api/quiz/fill/{sid}", protect(h.FillState))
	mux.Handle("POST /api/quiz/fill/{sid}/answer", protect(h.AnswerFill))
	mux.Handle("POST /api/quiz/fill/{sid}/next", protect(h.NextFill))

	mux.Handle("GET /api/progress", protect(h.GetProgress))
	mux.Handle("GET /api/settings", protect(h.GetSettings))
	mux.Handle("PUT /api/settings", protect(h.UpdateSettings))
	mux.Handle("POST /api/import", protect(h.ImportDocument))
	mux.Handle("POST /api/import/url", protect(h.ImportURL))
	mux.Handle("POST /api/export", protect(h.ExportWords))

	mux.HandleFunc("GET /health", h.Health)
	return mux
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Core.DB.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// owner returns the authenticated user's ID. The auth middleware guarantees it exists.
func owner(r *http.Request) string {
	id, _ := auth.CurrentUser(r.Context())
	return id.ID
}

// decodeJSON reads a JSON request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondError sends an error JSON response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondErr maps a service error onto a status code. Unexpected errors are
// logged and reported without detail.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation     *core.ValidationError
		authValidation *auth.ValidationError
		aiErr          *ai.AIError
	)
	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: validation.Message, Field: validation.Field})
	case errors.As(err, &authValidation):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: authValidation.Message, Field: authValidation.Field})
	case errors.Is(err, db.ErrNotFound), errors.Is(err, errSessionNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, quiz.ErrWrongPhase):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		respondError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, ai.ErrDisabled):
		respondError(w, http.StatusServiceUnavailable, "AI features are disabled")
	case errors.As(err, &aiErr):
		h.logger.Warn("AI request failed", "path", r.URL.Path, "status", aiErr.StatusCode, "error", err)
		respondError(w, http.StatusBadGateway, "AI provider request failed")
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
