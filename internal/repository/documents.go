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

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	List(ctx context.Context) ([]*entity.Document, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus) error
	AppendLog(ctx context.Context, id uuid.UUID, message string) error
}

type documentRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{db: db, logger: logger}
}

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.ProcessingStatus == "" {
		doc.ProcessingStatus = constants.ProcessingPending
	}

	_, err := r.db.ExecContext(ctx, r.db.rebind(`
		INSERT INTO documents
			(id, filename, mime_type, file_size, sha256_hash, storage_path, processing_status, processing_logs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		doc.ID.String(), doc.Filename, doc.MimeType, doc.FileSize, doc.SHA256Hash,
		doc.StoragePath, string(doc.ProcessingStatus), marshalJSON(doc.ProcessingLogs, "[]"),
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert document", "id", doc.ID, "error", err)
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`
		SELECT id, filename, mime_type, file_size, sha256_hash, storage_path, processing_status, processing_logs, created_at, updated_at
		FROM documents WHERE id = ?`), id.String())
	return scanDocument(row)
}

func (r *documentRepository) List(ctx context.Context) ([]*entity.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, mime_type, file_size, sha256_hash, storage_path, processing_status, processing_logs, created_at, updated_at
		FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepository) SetStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(`
		UPDATE documents SET processing_status = ?, updated_at = ? WHERE id = ?`),
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *documentRepository) AppendLog(ctx context.Context, id uuid.UUID, message string) error {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	logs := append(doc.ProcessingLogs, entity.LogEntry{Timestamp: time.Now().UTC(), Message: message})
	_, err = r.db.ExecContext(ctx, r.db.rebind(`
		UPDATE documents SET processing_logs = ?, updated_at = ? WHERE id = ?`),
		marshalJSON(logs, "[]"), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("append document log: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc    entity.Document
		id     string
		status string
		logs   string
	)
	err := row.Scan(&id, &doc.Filename, &doc.MimeType, &doc.FileSize, &doc.SHA256Hash,
		&doc.StoragePath, &status, &logs, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	doc.ProcessingStatus = constants.ProcessingStatus(status)
	if err := unmarshalJSON(logs, &doc.ProcessingLogs); err != nil {
		return nil, fmt.Errorf("decode processing logs: %w", err)
	}
	return &doc, nil
}
