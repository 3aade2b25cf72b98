package api

import (
	"net/http"

	"github.com/kotoba-study/kotoba/internal/quiz"
)

type startFlashcardsRequest struct {
	Scope quiz.Scope `json:"scope"`
}

type flashcardResponse struct {
	ID     string              `json:"id"`
	State  quiz.FlashcardState `json:"state"`
	Answer *quiz.AnswerResult  `json:"answer,omitempty"`
}

type fillResponse struct {
	ID               string         `json:"id"`
	InsufficientData bool           `json:"insufficientData,omitempty"`
	Reason           string         `json:"reason,omitempty"`
	State            quiz.FillState `json:"state"`
	Feedback         *quiz.Feedback `json:"feedback,omitempty"`
}

type answerFlashcardRequest struct {
	KnewIt bool `json:"knewIt"`
}

type answerFillRequest struct {
	Option string `json:"option"`
}

// StartFlashcards handles POST /api/quiz/flashcards. An empty scope still
// creates a session; its state carries the reason.
func (h *Handler) StartFlashcards(w http.ResponseWriter, r *http.Request) {
	var req startFlashcardsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Scope.Kind == "" {
		req.Scope.Kind = quiz.ScopeAll
	}

	session, err := h.Core.StartFlashcards(r.Context(), owner(r), req.Scope)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	id, err := h.Sessions.AddFlashcards(owner(r), session)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, flashcardResponse{ID: id, State: session.State()})
}

// flashcardAction runs fn on the session named in the path and responds with its state.
func (h *Handler) flashcardAction(w http.ResponseWriter, r *http.Request, fn func(*quiz.FlashcardSession) (*quiz.AnswerResult, error)) {
	id := r.PathValue("sid")
	var resp flashcardResponse
	err := h.Sessions.WithFlashcards(owner(r), id, func(s *quiz.FlashcardSession) error {
		answer, err := fn(s)
		if err != nil {
			return err
		}
		resp = flashcardResponse{ID: id, State: s.State(), Answer: answer}
		return nil
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// FlashcardState handles GET /api/quiz/flashcards/{sid}.
func (h *Handler) FlashcardState(w http.ResponseWriter, r *http.Request) {
	h.flashcardAction(w, r, func(*quiz.FlashcardSession) (*quiz.AnswerResult, error) {
		return nil, nil
	})
}

// FlipFlashcard handles POST /api/quiz/flashcards/{sid}/flip.
func (h *Handler) FlipFlashcard(w http.ResponseWriter, r *http.Request) {
	h.flashcardAction(w, r, func(s *quiz.FlashcardSession) (*quiz.AnswerResult, error) {
		return nil, s.Flip()
	})
}

// AnswerFlashcard handles POST /api/quiz/flashcards/{sid}/answer.
func (h *Handler) AnswerFlashcard(w http.ResponseWriter, r *http.Request) {
	var req answerFlashcardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.flashcardAction(w, r, func(s *quiz.FlashcardSession) (*quiz.AnswerResult, error) {
		res, err := s.Answer(r.Context(), req.KnewIt)
		if err != nil {
			return nil, err
		}
		return &res, nil
	})
}

// RestartFlashcards handles POST /api/quiz/flashcards/{sid}/restart.
func (h *Handler) RestartFlashcards(w http.ResponseWriter, r *http.Request) {
	h.flashcardAction(w, r, func(s *quiz.FlashcardSession) (*quiz.AnswerResult, error) {
		return nil, s.Restart()
	})
}

// BeginFlashcards handles POST /api/quiz/flashcards/{sid}/begin. It starts a
// restarted or empty session over the requested scope.
func (h *Handler) BeginFlashcards(w http.ResponseWriter, r *http.Request) {
	var req startFlashcardsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Scope.Kind == "" {
		req.Scope.Kind = quiz.ScopeAll
	}
	h.flashcardAction(w, r, func(s *quiz.FlashcardSession) (*quiz.AnswerResult, error) {
		return nil, h.Core.BeginFlashcards(r.Context(), owner(r), s, req.Scope)
	})
}

// StartFill handles POST /api/quiz/fill.
func (h *Handler) StartFill(w http.ResponseWriter, r *http.Request) {
	fq, err := h.Core.BuildFillQuiz(r.Context(), owner(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	session := quiz.NewFillSession(fq)
	id, err := h.Sessions.AddFill(owner(r), session)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, fillResponse{
		ID:               id,
		InsufficientData: fq.InsufficientData,
		Reason:           fq.Reason,
		State:            session.State(),
	})
}

func (h *Handler) fillAction(w http.ResponseWriter, r *http.Request, fn func(*quiz.FillSession) (*quiz.Feedback, error)) {
	id := r.PathValue("sid")
	var resp fillResponse
	err := h.Sessions.WithFill(owner(r), id, func(s *quiz.FillSession) error {
		fb, err := fn(s)
		if err != nil {
			return err
		}
		resp = fillResponse{ID: id, State: s.State(), Feedback: fb}
		return nil
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// FillState handles GET /api/quiz/fill/{sid}.
func (h *Handler) FillState(w http.ResponseWriter, r *http.Request) {
	h.fillAction(w, r, func(*quiz.FillSession) (*quiz.Feedback, error) {
		return nil, nil
	})
}

// AnswerFill handles POST /api/quiz/fill/{sid}/answer.
func (h *Handler) AnswerFill(w http.ResponseWriter, r *http.Request) {
	var req answerFillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.fillAction(w, r, func(s *quiz.FillSession) (*quiz.Feedback, error) {
		fb, err := s.Submit(req.Option)
		if err != nil {
			return nil, err
		}
		return &fb, nil
	})
}

// NextFill handles POST /api/quiz/fill/{sid}/next.
func (h *Handler) NextFill(w http.ResponseWriter, r *http.Request) {
	h.fillAction(w, r, func(s *quiz.FillSession) (*quiz.Feedback, error) {
		return nil, s.Next()
	})
}
