package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aquila-docs/aquila/internal/brex"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/s1000d"
)

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := s.modules.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, modules)
}

func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	dm, err := s.modules.GetByDMC(r.Context(), chi.URLParam(r, "dmc"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dm)
}

func (s *Server) handleValidateModule(w http.ResponseWriter, r *http.Request) {
	dmc := chi.URLParam(r, "dmc")
	dm, err := s.modules.GetByDMC(r.Context(), dmc)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status, findings, err := s.validator.Validate(r.Context(), dm)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.modules.SetValidation(r.Context(), dmc, status, findings); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"dmc":               dmc,
		"validation_status": status,
		"validation_errors": findings,
	})
}

func (s *Server) handleApplyCorrections(w http.ResponseWriter, r *http.Request) {
	dmcCode := chi.URLParam(r, "dmc")
	dm, err := s.modules.GetByDMC(r.Context(), dmcCode)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req struct {
		Corrections []brex.Correction `json:"corrections"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Corrections) == 0 {
		s.writeError(w, fmt.Errorf("no corrections given: %w", common.ErrInvalidInput))
		return
	}

	logsBefore := len(dm.ProcessingLogs)
	status, findings, err := s.validator.ApplyCorrections(r.Context(), dm, req.Corrections, s.registry.Text())
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.persistCorrected(r, dm, logsBefore); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"dmc":               dmcCode,
		"validation_status": status,
		"validation_errors": findings,
		"content":           dm.Content,
	})
}

// persistCorrected writes the corrected content, re-rendered artifacts,
// validation outcome, and the log entries this request added back to the
// store.
func (s *Server) persistCorrected(r *http.Request, dm *entity.DataModule, logsBefore int) error {
	xml, err := s1000d.RenderXML(dm)
	if err != nil {
		return err
	}
	dm.XMLContent = xml
	dm.HTMLContent = s1000d.RenderHTML(dm)

	if err := s.modules.UpdateContent(r.Context(), dm.DMC, dm.Content, dm.HTMLContent, dm.XMLContent); err != nil {
		return err
	}
	if err := s.modules.SetValidation(r.Context(), dm.DMC, dm.ValidationStatus, dm.ValidationErrors); err != nil {
		return err
	}
	for _, entry := range dm.ProcessingLogs[logsBefore:] {
		if err := s.modules.AppendLog(r.Context(), dm.DMC, entry.Message); err != nil {
			s.log.Warn("correction.log_append_failed", "dmc", dm.DMC, "error", err)
		}
	}
	return nil
}

func (s *Server) handleListICNs(w http.ResponseWriter, r *http.Request) {
	icns, err := s.icns.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, icns)
}

func (s *Server) handleGetICN(w http.ResponseWriter, r *http.Request) {
	icn, err := s.icns.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, icn)
}

func (s *Server) handleUpdateICNAnnotations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Caption  string           `json:"caption"`
		Objects  []string         `json:"objects"`
		Hotspots []entity.Hotspot `json:"hotspots"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.icns.UpdateAnnotations(r.Context(), id, req.Caption, req.Objects, req.Hotspots); err != nil {
		s.writeError(w, err)
		return
	}
	icn, err := s.icns.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, icn)
}

func (s *Server) handleExportModules(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.ExportModulesXLSX(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="data-modules.xlsx"`)
	_, _ = w.Write(data)
}
