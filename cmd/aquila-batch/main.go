// aquila-batch converts a directory of source documents into data modules
// in one pass and writes the module listing as XLSX.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/brex"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/dmc"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/export"
	"github.com/aquila-docs/aquila/internal/extract"
	"github.com/aquila-docs/aquila/internal/pipeline"
	"github.com/aquila-docs/aquila/internal/provider/factory"
	"github.com/aquila-docs/aquila/internal/repository"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir    = flag.String("dir", "", "directory of source documents to convert (required)")
		out    = flag.String("out", "", "output XLSX path (defaults to <dir>/../data-modules.xlsx)")
		preset = flag.String("preset", "other", "operational-structure preset: water, air, land, other")
		inmem  = flag.Bool("inmem", false, "use an in-memory SQLite database")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "data-modules.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *inmem {
		cfg.Database.DSN = ":memory:"
	}

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.Upload.ICNDir, 0o755); err != nil {
		logger.Error("failed to create icn directory", "error", err)
		os.Exit(1)
	}

	docs := repository.NewDocumentRepository(db, logger)
	modules := repository.NewDataModuleRepository(db, logger)
	icns := repository.NewICNRepository(db, logger)

	registry, err := factory.NewRegistry(cfg.Provider, logger)
	if err != nil {
		logger.Error("failed to build provider registry", "error", err)
		os.Exit(1)
	}

	rules := brex.DefaultRules()
	if cfg.BREX.RulesPath != "" {
		if rules, err = brex.LoadRules(cfg.BREX.RulesPath); err != nil {
			logger.Error("failed to load brex rules", "error", err)
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
	defaults := dmc.PresetByName(*preset)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("failed to read input directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	processed := 0
	failures := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(*dir, entry.Name())
		if constants.MapExtToFormat(filepath.Ext(path)) == "" {
			logger.Warn("skipping unsupported file", "file", entry.Name())
			continue
		}

		doc, err := registerDocument(ctx, docs, path)
		if err != nil {
			logger.Error("failed to register document", "file", entry.Name(), "error", err)
			failures++
			continue
		}

		// Batch runs inline; fire-and-forget is the server's concern.
		if err := processor.ProcessDocument(ctx, doc.ID, defaults); err != nil {
			logger.Error("document failed", "file", entry.Name(), "error", err)
			failures++
			continue
		}
		processed++
	}

	exporter := export.NewService(modules, logger)
	xlsxBytes, err := exporter.ExportModulesXLSX(ctx)
	if err != nil {
		logger.Error("failed to export module listing", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch conversion complete",
		"documents_processed", processed,
		"failures", failures,
		"output_file", *out)

	fmt.Printf("Batch conversion complete!\n")
	fmt.Printf("- Documents processed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}

func registerDocument(ctx context.Context, docs repository.DocumentRepository, path string) (*entity.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)

	doc := &entity.Document{
		ID:               uuid.New(),
		Filename:         filepath.Base(path),
		MimeType:         mime.TypeByExtension(filepath.Ext(path)),
		FileSize:         len(data),
		SHA256Hash:       hex.EncodeToString(sum[:]),
		StoragePath:      path,
		ProcessingStatus: constants.ProcessingPending,
	}
	if err := docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
