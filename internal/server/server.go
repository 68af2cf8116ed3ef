// Package server is the thin HTTP shim over the conversion components:
// decode request, call the component, encode the outcome.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aquila-docs/aquila/internal/brex"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/export"
	"github.com/aquila-docs/aquila/internal/pipeline"
	"github.com/aquila-docs/aquila/internal/provider"
	"github.com/aquila-docs/aquila/internal/repository"
)

// Server wires the HTTP surface to the components.
type Server struct {
	cfg       *common.Config
	docs      repository.DocumentRepository
	modules   repository.DataModuleRepository
	icns      repository.ICNRepository
	pubs      repository.PublicationRepository
	registry  *provider.Registry
	validator *brex.Engine
	processor *pipeline.Processor
	exporter  *export.Service
	log       *slog.Logger

	// rulesMu guards the served copy of the active rule set; the engine holds
	// its own compiled copy.
	rulesMu sync.RWMutex
	rules   brex.RuleSet

	// background tracks fire-and-forget pipeline runs for clean shutdown.
	background sync.WaitGroup
}

func New(
	cfg *common.Config,
	docs repository.DocumentRepository,
	modules repository.DataModuleRepository,
	icns repository.ICNRepository,
	pubs repository.PublicationRepository,
	registry *provider.Registry,
	validator *brex.Engine,
	processor *pipeline.Processor,
	exporter *export.Service,
	rules brex.RuleSet,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		docs:      docs,
		modules:   modules,
		icns:      icns,
		pubs:      pubs,
		registry:  registry,
		validator: validator,
		processor: processor,
		exporter:  exporter,
		rules:     rules,
		log:       logger,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/documents/upload", s.handleUploadDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Post("/documents/{id}/process", s.handleProcessDocument)
		r.Get("/documents/{id}/data-modules", s.handleListDocumentModules)

		r.Get("/data-modules", s.handleListModules)
		r.Get("/data-modules/{dmc}", s.handleGetModule)
		r.Post("/data-modules/{dmc}/validate", s.handleValidateModule)
		r.Post("/data-modules/{dmc}/corrections", s.handleApplyCorrections)

		r.Get("/icns", s.handleListICNs)
		r.Get("/icns/{id}", s.handleGetICN)
		r.Put("/icns/{id}/annotations", s.handleUpdateICNAnnotations)

		r.Get("/providers", s.handleGetProviders)
		r.Post("/providers", s.handleSetProviders)

		r.Get("/brex", s.handleGetRules)
		r.Get("/brex-default", s.handleGetDefaultRules)
		r.Post("/brex", s.handleSwapRules)

		r.Post("/publications", s.handleCreatePublication)
		r.Get("/publications", s.handleListPublications)
		r.Get("/publications/{pmCode}", s.handleGetPublication)
		r.Put("/publications/{pmCode}", s.handleUpdatePublication)
		r.Delete("/publications/{pmCode}", s.handleDeletePublication)
		r.Post("/publications/{pmCode}/publish", s.handlePublish)

		r.Get("/export/data-modules.xlsx", s.handleExportModules)
	})
	return r
}

// Start serves until ctx is cancelled, then drains in-flight requests and
// background pipeline runs.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http.listen", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.background.Wait()
	s.log.Info("http.stopped")
	return nil
}
