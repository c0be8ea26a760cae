package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"

	"github.com/calderos/moodlens/internal/models"
	"github.com/calderos/moodlens/internal/pipeline"
)

const maxImageUploadBytes = 10 << 20

// Analyzer is the slice of the pipeline the HTTP boundary needs.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (models.SentimentResult, error)
	AnalyzeImageFrom(ctx context.Context, r io.Reader) (models.SentimentResult, error)
	Latest() (models.SentimentResult, bool)
}

type Handler struct {
	analyzer Analyzer
	healthy  *atomic.Bool
}

func NewHandler(analyzer Analyzer, healthy *atomic.Bool) *Handler {
	return &Handler{
		analyzer: analyzer,
		healthy:  healthy,
	}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/analyze/text", h.AnalyzeText).Methods(http.MethodPost)
	r.HandleFunc("/analyze/image", h.AnalyzeImage).Methods(http.MethodPost)
	r.HandleFunc("/analyze/latest", h.Latest).Methods(http.MethodGet)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.healthy != nil && !h.healthy.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type analyzeTextRequest struct {
	Text string `json:"text"`
}

func (h *Handler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyzeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	result, err := h.analyzer.AnalyzeText(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to parse form"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no image file provided, use 'image' as the form field name"})
		return
	}
	defer file.Close()

	slog.Info("[Handler] Received image upload",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	result, err := h.analyzer.AnalyzeImageFrom(r.Context(), file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	result, ok := h.analyzer.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no analysis results yet"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeError maps the pipeline's error kinds onto HTTP statuses: bad input is
// the client's problem, everything else is ours.
func writeError(w http.ResponseWriter, err error) {
	slog.Error("[Handler] Analysis failed",
		slog.String("error", err.Error()))

	var preprocessErr *pipeline.PreprocessError
	if errors.As(err, &preprocessErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "analysis failed"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("[Handler] Failed to encode response",
			slog.String("error", err.Error()))
	}
}
