package repository

import (
	"context"
	"errors"

	"github.com/aquila-docs/aquila/internal/common"
)

// ReferenceChecker answers the existence queries validation needs, backed by
// the ICN and data module stores.
type ReferenceChecker struct {
	icns    ICNRepository
	modules DataModuleRepository
}

func NewReferenceChecker(icns ICNRepository, modules DataModuleRepository) *ReferenceChecker {
	return &ReferenceChecker{icns: icns, modules: modules}
}

func (c *ReferenceChecker) ICNExists(ctx context.Context, icnID string) (bool, error) {
	_, err := c.icns.GetByID(ctx, icnID)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *ReferenceChecker) DataModuleExists(ctx context.Context, dmc string) (bool, error) {
	return c.modules.Exists(ctx, dmc)
}
