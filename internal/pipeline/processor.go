// Package pipeline orchestrates the conversion of an uploaded document into
// S1000D data modules: extract, classify, assign codes, persist the verbatim
// variant, attempt the simplified rewrite, link illustrations, validate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/brex"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/dmc"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/extract"
	"github.com/aquila-docs/aquila/internal/provider"
	"github.com/aquila-docs/aquila/internal/repository"
	"github.com/aquila-docs/aquila/internal/s1000d"
)

// maxConcurrentLinks bounds per-document vision fan-out.
const maxConcurrentLinks = 4

// Processor runs one document's conversion as an independent unit of work.
// Multiple documents may be processed concurrently; within a run the text
// steps are sequential and only image linking fans out.
type Processor struct {
	docs      repository.DocumentRepository
	modules   repository.DataModuleRepository
	extractor *extract.Service
	registry  *provider.Registry
	validator *brex.Engine
	linker    *Linker
	log       *slog.Logger
}

func NewProcessor(
	docs repository.DocumentRepository,
	modules repository.DataModuleRepository,
	extractor *extract.Service,
	registry *provider.Registry,
	validator *brex.Engine,
	linker *Linker,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		docs:      docs,
		modules:   modules,
		extractor: extractor,
		registry:  registry,
		validator: validator,
		linker:    linker,
		log:       logger,
	}
}

// ProcessDocument drives the full pipeline for one stored document.
// Extraction and classification failures are fatal: the document goes to
// failed with the reason logged and no modules are created. Rewrite and
// per-image failures degrade the run; the document still completes.
//
// A repeat run on the same document maps to the same codes (assignment is
// deterministic) and refreshes the existing module records in place before
// re-validating them.
func (p *Processor) ProcessDocument(ctx context.Context, documentID uuid.UUID, defaults dmc.Defaults) error {
	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	p.log.Info("pipeline.start", "document_id", documentID, "filename", doc.Filename, "preset", defaults.Name)
	if err := p.docs.SetStatus(ctx, documentID, constants.ProcessingRunning); err != nil {
		return err
	}
	p.logStep(ctx, documentID, "processing started")

	// Providers are captured once per run; a swap mid-run never tears it.
	text, vision := p.registry.Snapshot()

	// Step 1: extraction. Fatal.
	result, err := p.extractor.Extract(ctx, doc.StoragePath)
	if err != nil {
		return p.fail(ctx, documentID, fmt.Errorf("extraction: %w", err))
	}
	p.logStep(ctx, documentID, fmt.Sprintf("extracted %d chars, %d images", len(result.Text), len(result.Images)))

	// Step 2: classification. Fatal.
	classification, err := text.Classify(ctx, provider.TextRequest{Text: result.Text})
	if err != nil {
		return p.fail(ctx, documentID, fmt.Errorf("classification: %w", err))
	}
	if classification.Title == "" {
		classification.Title = doc.Filename
	}

	// Step 3: identifier assignment, with the documented GEN fallback for
	// unusable classifier output.
	verbatimDMC, err := dmc.Assign(defaults, classification, constants.VariantVerbatim)
	if err != nil {
		if !errors.Is(err, common.ErrIncompleteClassification) {
			return p.fail(ctx, documentID, fmt.Errorf("identifier assignment: %w", err))
		}
		verbatimDMC = dmc.Fallback(defaults, constants.VariantVerbatim)
		classification.DMType = string(constants.General)
		p.logStep(ctx, documentID, "classification incomplete, using generic code "+verbatimDMC)
	}
	dmType, _ := constants.Canonicalize(classification.DMType)

	// Step 4: illustration linking, concurrent per image. Failures degrade
	// to missing ICNs; they never abort the run.
	icns := p.linkImages(ctx, documentID, vision, result.Images, verbatimDMC)

	icnIDs := make([]string, 0, len(icns))
	for _, icn := range icns {
		icnIDs = append(icnIDs, icn.ICNID)
	}

	// Step 5: persist the verbatim module. Readers never observe a
	// simplified module without its verbatim sibling.
	content := AppendICNRefs(result.Text, icns)
	verbatim := &entity.DataModule{
		DMC:              verbatimDMC,
		Title:            classification.Title,
		DMType:           dmType,
		InfoVariant:      constants.VariantVerbatim,
		Content:          content,
		SourceDocumentID: documentID,
		ICNRefs:          icnIDs,
		DMRefs:           FindReferencedDMCs(content, verbatimDMC),
		ValidationStatus: constants.ValidationBlue,
	}
	if err := p.render(verbatim); err != nil {
		return p.fail(ctx, documentID, fmt.Errorf("render verbatim module: %w", err))
	}
	switch err := p.modules.Create(ctx, verbatim); {
	case err == nil:
		p.logStep(ctx, documentID, "verbatim module created: "+verbatimDMC)
	case errors.Is(err, common.ErrDuplicateIdentifier):
		// Rerun: same code, refresh the record.
		if err := p.modules.Update(ctx, verbatim); err != nil {
			return p.fail(ctx, documentID, fmt.Errorf("refresh verbatim module: %w", err))
		}
		p.logStep(ctx, documentID, "verbatim module refreshed: "+verbatimDMC)
	default:
		return p.fail(ctx, documentID, fmt.Errorf("persist verbatim module: %w", err))
	}
	created := []*entity.DataModule{verbatim}

	// Step 6: simplified rewrite. Failure is partial success, not pipeline
	// failure; the verbatim module stays.
	if simplified := p.trySimplified(ctx, documentID, text, defaults, classification, result.Text, icns, icnIDs); simplified != nil {
		created = append(created, simplified)
	}

	// Step 7: validation per new module. Failures are logged only.
	for _, dm := range created {
		status, findings, err := p.validator.Validate(ctx, dm)
		if err != nil {
			p.log.Warn("pipeline.validate.failed", "dmc", dm.DMC, "error", err)
			p.logStep(ctx, documentID, fmt.Sprintf("validation of %s failed: %v", dm.DMC, err))
			continue
		}
		if err := p.modules.SetValidation(ctx, dm.DMC, status, findings); err != nil {
			p.log.Warn("pipeline.validate.persist_failed", "dmc", dm.DMC, "error", err)
		}
	}

	// Step 8: done.
	if err := p.docs.SetStatus(ctx, documentID, constants.ProcessingCompleted); err != nil {
		return err
	}
	p.logStep(ctx, documentID, fmt.Sprintf("processing completed, %d modules", len(created)))
	p.log.Info("pipeline.done", "document_id", documentID, "modules", len(created), "icns", len(icns))
	return nil
}

// trySimplified attempts the "01" variant. Any failure logs the partial
// outcome and returns nil.
func (p *Processor) trySimplified(
	ctx context.Context,
	documentID uuid.UUID,
	text provider.TextProvider,
	defaults dmc.Defaults,
	classification provider.Classification,
	rawText string,
	icns []*entity.ICN,
	icnIDs []string,
) *entity.DataModule {
	rewrite, err := text.RewriteSTE(ctx, provider.TextRequest{Text: rawText})
	if err != nil {
		p.log.Warn("pipeline.rewrite.failed", "document_id", documentID, "error", err)
		p.logStep(ctx, documentID, fmt.Sprintf("simplified rewrite failed, verbatim only: %v", err))
		return nil
	}

	simplifiedDMC, err := dmc.Assign(defaults, classification, constants.VariantSimplified)
	if err != nil {
		simplifiedDMC = dmc.Fallback(defaults, constants.VariantSimplified)
	}
	dmType, _ := constants.Canonicalize(classification.DMType)

	content := AppendICNRefs(rewrite.Text, icns)
	simplified := &entity.DataModule{
		DMC:              simplifiedDMC,
		Title:            classification.Title,
		DMType:           dmType,
		InfoVariant:      constants.VariantSimplified,
		Content:          content,
		SourceDocumentID: documentID,
		ICNRefs:          icnIDs,
		DMRefs:           FindReferencedDMCs(content, simplifiedDMC),
		ValidationStatus: constants.ValidationBlue,
		STEScore:         rewrite.Score,
	}
	if err := p.render(simplified); err != nil {
		p.log.Warn("pipeline.render.failed", "dmc", simplifiedDMC, "error", err)
		p.logStep(ctx, documentID, fmt.Sprintf("simplified module render failed: %v", err))
		return nil
	}
	switch err := p.modules.Create(ctx, simplified); {
	case err == nil:
		p.logStep(ctx, documentID, fmt.Sprintf("simplified module created: %s (ste_score %.2f)", simplifiedDMC, rewrite.Score))
	case errors.Is(err, common.ErrDuplicateIdentifier):
		if err := p.modules.Update(ctx, simplified); err != nil {
			p.log.Warn("pipeline.simplified.persist_failed", "dmc", simplifiedDMC, "error", err)
			p.logStep(ctx, documentID, fmt.Sprintf("simplified module not refreshed: %v", err))
			return nil
		}
		p.logStep(ctx, documentID, fmt.Sprintf("simplified module refreshed: %s (ste_score %.2f)", simplifiedDMC, rewrite.Score))
	default:
		p.log.Warn("pipeline.simplified.persist_failed", "dmc", simplifiedDMC, "error", err)
		p.logStep(ctx, documentID, fmt.Sprintf("simplified module not persisted: %v", err))
		return nil
	}
	return simplified
}

// linkImages fans image linking out across a bounded errgroup. Every image
// either links or is recorded as failed before the run proceeds.
func (p *Processor) linkImages(ctx context.Context, documentID uuid.UUID, vision provider.VisionProvider, images []extract.Image, ownerDMC string) []*entity.ICN {
	if len(images) == 0 {
		return nil
	}

	var mu sync.Mutex
	var icns []*entity.ICN
	var failures []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLinks)
	for _, img := range images {
		img := img
		g.Go(func() error {
			icn, err := p.linker.Link(gctx, vision, img, ownerDMC)
			if err != nil {
				p.log.Warn("pipeline.icn.failed", "document_id", documentID, "sha256", img.SHA256, "error", err)
				mu.Lock()
				failures = append(failures, fmt.Sprintf("image %s not linked: %v", img.SHA256[:12], err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			icns = append(icns, icn)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// The log column is read-modify-write on one row; appends stay on this
	// goroutine so concurrent links never drop entries.
	for _, msg := range failures {
		p.logStep(ctx, documentID, msg)
	}

	// De-duplicate: two pages carrying identical bytes both resolve to the
	// one ICN record.
	seen := make(map[string]struct{}, len(icns))
	unique := icns[:0]
	for _, icn := range icns {
		if _, ok := seen[icn.ICNID]; ok {
			continue
		}
		seen[icn.ICNID] = struct{}{}
		unique = append(unique, icn)
	}
	return unique
}

func (p *Processor) render(dm *entity.DataModule) error {
	xml, err := s1000d.RenderXML(dm)
	if err != nil {
		return err
	}
	dm.XMLContent = xml
	dm.HTMLContent = s1000d.RenderHTML(dm)
	return nil
}

// fail marks the document failed with the reason in its processing logs.
func (p *Processor) fail(ctx context.Context, documentID uuid.UUID, cause error) error {
	p.log.Error("pipeline.failed", "document_id", documentID, "error", cause)
	p.logStep(ctx, documentID, "processing failed: "+cause.Error())
	if err := p.docs.SetStatus(ctx, documentID, constants.ProcessingFailed); err != nil {
		p.log.Error("pipeline.fail_status", "document_id", documentID, "error", err)
	}
	return cause
}

func (p *Processor) logStep(ctx context.Context, documentID uuid.UUID, message string) {
	if err := p.docs.AppendLog(ctx, documentID, message); err != nil {
		p.log.Warn("pipeline.log_append_failed", "document_id", documentID, "error", err)
	}
}
