package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to status codes. Internal errors carry no description.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entities.ErrEntryNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Description: err.Error()})
	case errors.Is(err, entities.ErrAlreadyReversed):
		writeJSON(w, http.StatusConflict, errorBody{Error: "already_reversed", Description: err.Error()})
	case errors.Is(err, entities.ErrNotReversible):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "not_reversible", Description: err.Error()})
	case errors.Is(err, entities.ErrUnknownEntityType):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown_entity_type", Description: err.Error()})
	default:
		s.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}
