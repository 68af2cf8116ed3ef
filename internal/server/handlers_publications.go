package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
)

func (s *Server) handleCreatePublication(w http.ResponseWriter, r *http.Request) {
	var pm entity.PublicationModule
	if !s.decodeJSON(w, r, &pm) {
		return
	}
	if pm.PMCode == "" || pm.Title == "" {
		s.writeError(w, fmt.Errorf("pm_code and title are required: %w", common.ErrInvalidInput))
		return
	}

	for _, dmc := range pm.DMList {
		ok, err := s.modules.Exists(r.Context(), dmc)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if !ok {
			s.writeError(w, fmt.Errorf("dm_list references unknown module %s: %w", dmc, common.ErrInvalidInput))
			return
		}
	}

	if err := s.pubs.Create(r.Context(), &pm); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, pm)
}

func (s *Server) handleListPublications(w http.ResponseWriter, r *http.Request) {
	pms, err := s.pubs.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pms)
}

func (s *Server) handleGetPublication(w http.ResponseWriter, r *http.Request) {
	pm, err := s.pubs.GetByCode(r.Context(), chi.URLParam(r, "pmCode"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pm)
}

func (s *Server) handleUpdatePublication(w http.ResponseWriter, r *http.Request) {
	pmCode := chi.URLParam(r, "pmCode")
	var pm entity.PublicationModule
	if !s.decodeJSON(w, r, &pm) {
		return
	}
	pm.PMCode = pmCode

	if err := s.pubs.Update(r.Context(), &pm); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pm)
}

func (s *Server) handleDeletePublication(w http.ResponseWriter, r *http.Request) {
	if err := s.pubs.Delete(r.Context(), chi.URLParam(r, "pmCode")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePublish marks the publication published and returns a canned package
// descriptor. Real package assembly is an external concern; this endpoint
// only transitions status.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	pmCode := chi.URLParam(r, "pmCode")
	pm, err := s.pubs.GetByCode(r.Context(), pmCode)
	if err != nil {
		s.writeError(w, err)
		return
	}

	pm.Status = constants.PublicationPublished
	if err := s.pubs.Update(r.Context(), pm); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"pm_code":      pm.PMCode,
		"status":       pm.Status,
		"published_at": time.Now().UTC().Format(time.RFC3339),
		"package":      fmt.Sprintf("%s.zip", pm.PMCode),
		"modules":      len(pm.DMList),
	})
}
