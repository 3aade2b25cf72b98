package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/kotoba-study/kotoba/internal/core"
	"github.com/kotoba-study/kotoba/internal/db"
	"github.com/kotoba-study/kotoba/internal/parser"
)

// ListWords handles GET /api/words.
func (h *Handler) ListWords(w http.ResponseWriter, r *http.Request) {
	words, err := h.Core.ListWords(r.Context(), owner(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, words)
}

// CreateWord handles POST /api/words.
func (h *Handler) CreateWord(w http.ResponseWriter, r *http.Request) {
	var in core.WordInput
	if !decodeJSON(w, r, &in) {
		return
	}
	word, err := h.Core.AddWord(r.Context(), owner(r), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, word)
}

// GetWord handles GET /api/words/{id}.
func (h *Handler) GetWord(w http.ResponseWriter, r *http.Request) {
	word, err := h.Core.GetWord(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, word)
}

// UpdateWord handles PUT /api/words/{id}.
func (h *Handler) UpdateWord(w http.ResponseWriter, r *http.Request) {
	var in core.WordInput
	if !decodeJSON(w, r, &in) {
		return
	}
	word, err := h.Core.UpdateWord(r.Context(), owner(r), r.PathValue("id"), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, word)
}

// DeleteWord handles DELETE /api/words/{id}.
func (h *Handler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	if err := h.Core.DeleteWord(r.Context(), owner(r), r.PathValue("id")); err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Word deleted successfully"})
}

// ToggleLearned handles POST /api/words/{id}/learned.
func (h *Handler) ToggleLearned(w http.ResponseWriter, r *http.Request) {
	word, err := h.Core.ToggleLearned(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, word)
}

type sentencesRequest struct {
	Headword string `json:"headword"`
}

type sentencesResponse struct {
	Sentences []string `json:"sentences"`
}

// GenerateSentences handles POST /api/sentences.
func (h *Handler) GenerateSentences(w http.ResponseWriter, r *http.Request) {
	if !h.Sentences.Allow(owner(r)) {
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusTooManyRequests, "Too many sentence requests, slow down")
		return
	}
	var req sentencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sentences, err := h.Core.GenerateSentences(r.Context(), req.Headword)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sentencesResponse{Sentences: sentences})
}

// ListKanji handles GET /api/kanji.
func (h *Handler) ListKanji(w http.ResponseWriter, r *http.Request) {
	kanji, err := h.Core.ListKanji(r.Context(), owner(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, kanji)
}

// CreateKanji handles POST /api/kanji.
func (h *Handler) CreateKanji(w http.ResponseWriter, r *http.Request) {
	var in core.KanjiInput
	if !decodeJSON(w, r, &in) {
		return
	}
	k, err := h.Core.AddKanji(r.Context(), owner(r), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, k)
}

// UpdateKanji handles PUT /api/kanji/{id}.
func (h *Handler) UpdateKanji(w http.ResponseWriter, r *http.Request) {
	var in core.KanjiInput
	if !decodeJSON(w, r, &in) {
		return
	}
	k, err := h.Core.UpdateKanji(r.Context(), owner(r), r.PathValue("id"), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, k)
}

// DeleteKanji handles DELETE /api/kanji/{id}.
func (h *Handler) DeleteKanji(w http.ResponseWriter, r *http.Request) {
	if err := h.Core.DeleteKanji(r.Context(), owner(r), r.PathValue("id")); err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Kanji deleted successfully"})
}

// GetProgress handles GET /api/progress.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Core.Progress(r.Context(), owner(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Core.Settings(r.Context(), owner(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in db.Settings
	if !decodeJSON(w, r, &in) {
		return
	}
	settings, err := h.Core.SaveSettings(r.Context(), owner(r), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// ImportDocument handles POST /api/import with a multipart "file" field.
func (h *Handler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, parser.MaxFileSize+(1<<20))
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if err := parser.ValidateFilename(header.Filename); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid filename: %v", err))
		return
	}
	if header.Size > parser.MaxFileSize {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("File too large (max %d bytes)", parser.MaxFileSize))
		return
	}

	result, err := h.Core.ImportDocument(r.Context(), owner(r), file, header.Filename)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type importURLRequest struct {
	URL string `json:"url"`
}

// ImportURL handles POST /api/import/url.
func (h *Handler) ImportURL(w http.ResponseWriter, r *http.Request) {
	var req importURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "is required", Field: "url"})
		return
	}
	result, err := h.Core.ImportURL(r.Context(), owner(r), req.URL)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ExportWords handles POST /api/export.
func (h *Handler) ExportWords(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Core.WriteWords(r.Context(), owner(r), &buf); err != nil {
		h.respondErr(w, r, err)
		return
	}

	filename := fmt.Sprintf("kotoba_words_%s.json", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Write(buf.Bytes())
}
