package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/careercopilot/internal/auth"
	"github.com/Lllllllleong/careercopilot/internal/models"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	gen  Generator
	docs Documents
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeGenerationRequest(w, r)
	if !ok {
		return
	}
	res, err := h.gen.Generate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) generateStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeGenerationRequest(w, r)
	if !ok {
		return
	}
	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, err)
		return
	}
	for frame := range h.gen.Stream(r.Context(), req) {
		if err := sse.send(frame); err != nil {
			slog.Warn("Stream client went away.", "error", err, "userId", req.UserID)
			return
		}
	}
}

func (h *handlers) feedback(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.docs.SubmitFeedback(r.Context(), mustUserID(r), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

func (h *handlers) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *handlers) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentId")
	if err := h.docs.Delete(r.Context(), mustUserID(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "deleted"})
}

func decodeGenerationRequest(w http.ResponseWriter, r *http.Request) (models.GenerationRequest, bool) {
	var req models.GenerationRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	req.UserID = mustUserID(r)
	return req, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body: %w", models.ErrInvalidRequest, err))
		return false
	}
	return true
}

// mustUserID reads the id set by auth.Middleware, which guards every route that calls it.
func mustUserID(r *http.Request) string {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrInvalidPath), errors.Is(err, models.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		slog.Error("Request failed.", "error", err, "kind", models.ErrorKind(err))
	}
	writeJSON(w, code, models.ErrorPayload{Error: err.Error(), Kind: models.ErrorKind(err)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response.", "error", err)
	}
}
