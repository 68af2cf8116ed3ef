package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/dmc"
	"github.com/aquila-docs/aquila/internal/entity"
)

const maxUploadBytes = 100 << 20

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, fmt.Errorf("parse upload: %v: %w", err, common.ErrInvalidInput))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, fmt.Errorf("missing file field: %w", common.ErrInvalidInput))
		return
	}
	defer file.Close()

	if constants.MapExtToFormat(filepath.Ext(header.Filename)) == "" {
		s.writeError(w, fmt.Errorf("unsupported file type %q: %w", header.Filename, common.ErrInvalidInput))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sum := sha256.Sum256(data)

	id := uuid.New()
	storagePath := filepath.Join(s.cfg.Upload.Dir, id.String()+filepath.Ext(header.Filename))
	if err := os.WriteFile(storagePath, data, 0o644); err != nil {
		s.writeError(w, fmt.Errorf("store upload: %w", err))
		return
	}

	doc := &entity.Document{
		ID:               id,
		Filename:         header.Filename,
		MimeType:         header.Header.Get("Content-Type"),
		FileSize:         len(data),
		SHA256Hash:       hex.EncodeToString(sum[:]),
		StoragePath:      storagePath,
		ProcessingStatus: constants.ProcessingPending,
	}
	if err := s.docs.Create(r.Context(), doc); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("document.uploaded", "id", id, "filename", doc.Filename, "bytes", doc.FileSize)
	s.writeJSON(w, http.StatusCreated, doc)
}

// handleProcessDocument kicks off the pipeline fire-and-forget; the caller
// polls processing_status.
func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, fmt.Errorf("bad document id: %w", common.ErrInvalidInput))
		return
	}
	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if doc.ProcessingStatus == constants.ProcessingRunning {
		s.writeError(w, fmt.Errorf("document is already processing: %w", common.ErrInvalidInput))
		return
	}

	defaults := dmc.PresetByName(r.URL.Query().Get("preset"))

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		// Detached from the request context: the run outlives the response.
		if err := s.processor.ProcessDocument(context.Background(), id, defaults); err != nil {
			s.log.Error("pipeline.background_failed", "document_id", id, "error", err)
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     id.String(),
		"status": string(constants.ProcessingRunning),
		"preset": defaults.Name,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, fmt.Errorf("bad document id: %w", common.ErrInvalidInput))
		return
	}
	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListDocumentModules(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, fmt.Errorf("bad document id: %w", common.ErrInvalidInput))
		return
	}
	modules, err := s.modules.ListBySourceDocument(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, modules)
}
