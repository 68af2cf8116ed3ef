package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aquila-docs/aquila/internal/common"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("http.encode_failed", "error", err)
	}
}

// writeError maps component error kinds onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidationRule):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrDuplicateIdentifier):
		status = http.StatusConflict
	case errors.Is(err, common.ErrProviderUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, common.ErrProviderInvalidResponse):
		status = http.StatusBadGateway
	case errors.Is(err, common.ErrExtractionFailed):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.log.Error("http.internal_error", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body: " + err.Error()})
		return false
	}
	return true
}
