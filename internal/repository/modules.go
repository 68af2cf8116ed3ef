package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
)

type DataModuleRepository interface {
	Create(ctx context.Context, dm *entity.DataModule) error
	GetByDMC(ctx context.Context, dmc string) (*entity.DataModule, error)
	// Update rewrites every mutable field of the module keyed by dm.DMC.
	// Used by pipeline reruns, which map to the same codes and refresh the
	// existing records instead of inserting duplicates.
	Update(ctx context.Context, dm *entity.DataModule) error
	Exists(ctx context.Context, dmc string) (bool, error)
	List(ctx context.Context) ([]*entity.DataModule, error)
	ListBySourceDocument(ctx context.Context, docID uuid.UUID) ([]*entity.DataModule, error)
	UpdateContent(ctx context.Context, dmc, content, htmlContent, xmlContent string) error
	SetValidation(ctx context.Context, dmc string, status constants.ValidationStatus, validationErrors []string) error
	AppendLog(ctx context.Context, dmc, message string) error
	Delete(ctx context.Context, dmc string) error
}

type dataModuleRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewDataModuleRepository(db *DB, logger *slog.Logger) DataModuleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &dataModuleRepository{db: db, logger: logger}
}

func (r *dataModuleRepository) Create(ctx context.Context, dm *entity.DataModule) error {
	now := time.Now().UTC()
	dm.CreatedAt = now
	dm.UpdatedAt = now
	if dm.ValidationStatus == "" {
		dm.ValidationStatus = constants.ValidationBlue
	}

	_, err := r.db.ExecContext(ctx, r.db.rebind(`
		INSERT INTO data_modules
			(dmc, title, dm_type, info_variant, content, html_content, xml_content,
			 source_document_id, applicability, icn_refs, dm_refs,
			 validation_status, validation_errors, ste_score, processing_logs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		dm.DMC, dm.Title, string(dm.DMType), dm.InfoVariant, dm.Content, dm.HTMLContent, dm.XMLContent,
		dm.SourceDocumentID.String(), marshalJSON(dm.Applicability, "{}"),
		marshalJSON(dm.ICNRefs, "[]"), marshalJSON(dm.DMRefs, "[]"),
		string(dm.ValidationStatus), marshalJSON(dm.ValidationErrors, "[]"),
		dm.STEScore, marshalJSON(dm.ProcessingLogs, "[]"), dm.CreatedAt, dm.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Error("dmc collision on insert", "dmc", dm.DMC)
			return fmt.Errorf("insert data module %s: %w", dm.DMC, common.ErrDuplicateIdentifier)
		}
		r.logger.Error("failed to insert data module", "dmc", dm.DMC, "error", err)
		return fmt.Errorf("insert data module: %w", err)
	}
	return nil
}

func (r *dataModuleRepository) Update(ctx context.Context, dm *entity.DataModule) error {
	dm.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.rebind(`
		UPDATE data_modules SET
			title = ?, dm_type = ?, info_variant = ?, content = ?, html_content = ?, xml_content = ?,
			source_document_id = ?, icn_refs = ?, dm_refs = ?,
			validation_status = ?, validation_errors = ?, ste_score = ?, updated_at = ?
		WHERE dmc = ?`),
		dm.Title, string(dm.DMType), dm.InfoVariant, dm.Content, dm.HTMLContent, dm.XMLContent,
		dm.SourceDocumentID.String(), marshalJSON(dm.ICNRefs, "[]"), marshalJSON(dm.DMRefs, "[]"),
		string(dm.ValidationStatus), marshalJSON(dm.ValidationErrors, "[]"), dm.STEScore,
		dm.UpdatedAt, dm.DMC,
	)
	if err != nil {
		return fmt.Errorf("update data module: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

const dataModuleColumns = `
	dmc, title, dm_type, info_variant, content, html_content, xml_content,
	source_document_id, applicability, icn_refs, dm_refs,
	validation_status, validation_errors, ste_score, processing_logs, created_at, updated_at`

func (r *dataModuleRepository) GetByDMC(ctx context.Context, dmc string) (*entity.DataModule, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT `+dataModuleColumns+` FROM data_modules WHERE dmc = ?`), dmc)
	return scanDataModule(row)
}

func (r *dataModuleRepository) Exists(ctx context.Context, dmc string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT 1 FROM data_modules WHERE dmc = ?`), dmc).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check dmc exists: %w", err)
	}
	return true, nil
}

func (r *dataModuleRepository) List(ctx context.Context) ([]*entity.DataModule, error) {
	return r.queryModules(ctx, `SELECT `+dataModuleColumns+` FROM data_modules ORDER BY created_at DESC`)
}

func (r *dataModuleRepository) ListBySourceDocument(ctx context.Context, docID uuid.UUID) ([]*entity.DataModule, error) {
	return r.queryModules(ctx, r.db.rebind(
		`SELECT `+dataModuleColumns+` FROM data_modules WHERE source_document_id = ? ORDER BY created_at`),
		docID.String())
}

func (r *dataModuleRepository) queryModules(ctx context.Context, query string, args ...any) ([]*entity.DataModule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query data modules: %w", err)
	}
	defer rows.Close()

	var modules []*entity.DataModule
	for rows.Next() {
		dm, err := scanDataModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, dm)
	}
	return modules, rows.Err()
}

func (r *dataModuleRepository) UpdateContent(ctx context.Context, dmc, content, htmlContent, xmlContent string) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(`
		UPDATE data_modules SET content = ?, html_content = ?, xml_content = ?, updated_at = ? WHERE dmc = ?`),
		content, htmlContent, xmlContent, time.Now().UTC(), dmc)
	if err != nil {
		return fmt.Errorf("update data module content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *dataModuleRepository) SetValidation(ctx context.Context, dmc string, status constants.ValidationStatus, validationErrors []string) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(`
		UPDATE data_modules SET validation_status = ?, validation_errors = ?, updated_at = ? WHERE dmc = ?`),
		string(status), marshalJSON(validationErrors, "[]"), time.Now().UTC(), dmc)
	if err != nil {
		return fmt.Errorf("update data module validation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *dataModuleRepository) AppendLog(ctx context.Context, dmc, message string) error {
	dm, err := r.GetByDMC(ctx, dmc)
	if err != nil {
		return err
	}
	logs := append(dm.ProcessingLogs, entity.LogEntry{Timestamp: time.Now().UTC(), Message: message})
	_, err = r.db.ExecContext(ctx, r.db.rebind(`
		UPDATE data_modules SET processing_logs = ?, updated_at = ? WHERE dmc = ?`),
		marshalJSON(logs, "[]"), time.Now().UTC(), dmc)
	if err != nil {
		return fmt.Errorf("append data module log: %w", err)
	}
	return nil
}

func (r *dataModuleRepository) Delete(ctx context.Context, dmc string) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(`DELETE FROM data_modules WHERE dmc = ?`), dmc)
	if err != nil {
		return fmt.Errorf("delete data module: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanDataModule(row rowScanner) (*entity.DataModule, error) {
	var (
		dm            entity.DataModule
		dmType        string
		sourceDoc     string
		applicability string
		icnRefs       string
		dmRefs        string
		status        string
		vErrors       string
		logs          string
	)
	err := row.Scan(&dm.DMC, &dm.Title, &dmType, &dm.InfoVariant, &dm.Content, &dm.HTMLContent, &dm.XMLContent,
		&sourceDoc, &applicability, &icnRefs, &dmRefs,
		&status, &vErrors, &dm.STEScore, &logs, &dm.CreatedAt, &dm.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan data module: %w", err)
	}
	dm.DMType = constants.DMType(dmType)
	dm.ValidationStatus = constants.ValidationStatus(status)
	dm.SourceDocumentID, err = uuid.Parse(sourceDoc)
	if err != nil {
		return nil, fmt.Errorf("parse source document id: %w", err)
	}
	for _, col := range []struct {
		data string
		dst  any
	}{
		{applicability, &dm.Applicability},
		{icnRefs, &dm.ICNRefs},
		{dmRefs, &dm.DMRefs},
		{vErrors, &dm.ValidationErrors},
		{logs, &dm.ProcessingLogs},
	} {
		if err := unmarshalJSON(col.data, col.dst); err != nil {
			return nil, fmt.Errorf("decode data module json column: %w", err)
		}
	}
	return &dm, nil
}
