package brex

import (
	"context"
	"fmt"
	"time"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/provider"
)

// Correction methods.
const (
	CorrectionManual = "manual"
	CorrectionAI     = "ai"
)

// Correction resolves one validation error, either by recording that a human
// fixed it out of band or by letting the active text provider rewrite the
// content.
type Correction struct {
	Error  string `json:"error"`
	Method string `json:"method"` // manual | ai
	Note   string `json:"note,omitempty"`
}

// ApplyCorrections processes the markers against dm and re-validates.
// Manual corrections only leave a processing-log trail; any AI correction
// triggers a single rewrite that replaces the content (and the ste score on
// simplified variants). dm is updated in place; the caller persists it.
func (e *Engine) ApplyCorrections(ctx context.Context, dm *entity.DataModule, corrections []Correction, text provider.TextProvider) (constants.ValidationStatus, []string, error) {
	rewriteWanted := false
	for _, c := range corrections {
		switch c.Method {
		case CorrectionManual:
			msg := fmt.Sprintf("manual correction recorded for %q", c.Error)
			if c.Note != "" {
				msg += ": " + c.Note
			}
			dm.ProcessingLogs = append(dm.ProcessingLogs, entity.LogEntry{
				Timestamp: time.Now().UTC(),
				Message:   msg,
			})
		case CorrectionAI:
			rewriteWanted = true
		default:
			return "", nil, fmt.Errorf("unknown correction method %q: %w", c.Method, common.ErrInvalidInput)
		}
	}

	if rewriteWanted {
		rewrite, err := text.RewriteSTE(ctx, provider.TextRequest{Text: dm.Content})
		if err != nil {
			return "", nil, fmt.Errorf("ai correction rewrite: %w", err)
		}
		dm.Content = rewrite.Text
		if dm.InfoVariant == constants.VariantSimplified {
			dm.STEScore = rewrite.Score
		}
		dm.ProcessingLogs = append(dm.ProcessingLogs, entity.LogEntry{
			Timestamp: time.Now().UTC(),
			Message:   fmt.Sprintf("ai correction applied via %s (ste_score %.2f)", text.Name(), rewrite.Score),
		})
	}

	status, errs, err := e.Validate(ctx, dm)
	if err != nil {
		return "", nil, err
	}
	dm.ValidationStatus = status
	dm.ValidationErrors = errs
	return status, errs, nil
}
