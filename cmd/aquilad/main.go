package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/aquila-docs/aquila/internal/brex"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/export"
	"github.com/aquila-docs/aquila/internal/extract"
	"github.com/aquila-docs/aquila/internal/pipeline"
	"github.com/aquila-docs/aquila/internal/provider/factory"
	"github.com/aquila-docs/aquila/internal/repository"
	"github.com/aquila-docs/aquila/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, dir := range []string{cfg.Upload.Dir, cfg.Upload.ICNDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create storage directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	docs := repository.NewDocumentRepository(db, logger)
	modules := repository.NewDataModuleRepository(db, logger)
	icns := repository.NewICNRepository(db, logger)
	pubs := repository.NewPublicationRepository(db, logger)

	registry, err := factory.NewRegistry(cfg.Provider, logger)
	if err != nil {
		logger.Error("failed to build provider registry", "error", err)
		os.Exit(1)
	}

	rules := brex.DefaultRules()
	if cfg.BREX.RulesPath != "" {
		rules, err = brex.LoadRules(cfg.BREX.RulesPath)
		if err != nil {
			logger.Error("failed to load brex rules", "path", cfg.BREX.RulesPath, "error", err)
			os.Exit(1)
		}
	}
	validator, err := brex.NewEngine(rules, repository.NewReferenceChecker(icns, modules), logger)
	if err != nil {
		logger.Error("failed to compile brex rules", "error", err)
		os.Exit(1)
	}

	extractor := extract.NewService(logger)
	linker := pipeline.NewLinker(icns, cfg.Upload.ICNDir, logger)
	processor := pipeline.NewProcessor(docs, modules, extractor, registry, validator, linker, logger)
	exporter := export.NewService(modules, logger)

	srv := server.New(cfg, docs, modules, icns, pubs, registry, validator, processor, exporter, rules, logger)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
