package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
)

type ICNRepository interface {
	Create(ctx context.Context, icn *entity.ICN) error
	GetByID(ctx context.Context, icnID string) (*entity.ICN, error)
	// FindByHash returns the ICN with the given content hash, or ErrNotFound.
	// Linking is idempotent on identical image bytes.
	FindByHash(ctx context.Context, sha256 string) (*entity.ICN, error)
	List(ctx context.Context) ([]*entity.ICN, error)
	UpdateAnnotations(ctx context.Context, icnID, caption string, objects []string, hotspots []entity.Hotspot) error
}

type icnRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewICNRepository(db *DB, logger *slog.Logger) ICNRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &icnRepository{db: db, logger: logger}
}

const icnColumns = `
	icn_id, filename, file_path, sha256_hash, mime_type, width, height,
	caption, objects, hotspots, source_page, security_class, created_at, updated_at`

func (r *icnRepository) Create(ctx context.Context, icn *entity.ICN) error {
	now := time.Now().UTC()
	icn.CreatedAt = now
	icn.UpdatedAt = now
	if icn.SecurityClass == "" {
		icn.SecurityClass = "UNCLASSIFIED"
	}

	_, err := r.db.ExecContext(ctx, r.db.rebind(`
		INSERT INTO icns
			(icn_id, filename, file_path, sha256_hash, mime_type, width, height,
			 caption, objects, hotspots, source_page, security_class, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		icn.ICNID, icn.Filename, icn.FilePath, icn.SHA256Hash, icn.MimeType, icn.Width, icn.Height,
		icn.Caption, marshalJSON(icn.Objects, "[]"), marshalJSON(icn.Hotspots, "[]"),
		icn.SourcePage, icn.SecurityClass, icn.CreatedAt, icn.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert icn %s: %w", icn.ICNID, common.ErrDuplicateIdentifier)
		}
		r.logger.Error("failed to insert icn", "icn_id", icn.ICNID, "error", err)
		return fmt.Errorf("insert icn: %w", err)
	}
	return nil
}

func (r *icnRepository) GetByID(ctx context.Context, icnID string) (*entity.ICN, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT `+icnColumns+` FROM icns WHERE icn_id = ?`), icnID)
	return scanICN(row)
}

func (r *icnRepository) FindByHash(ctx context.Context, sha256 string) (*entity.ICN, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT `+icnColumns+` FROM icns WHERE sha256_hash = ?`), sha256)
	return scanICN(row)
}

func (r *icnRepository) List(ctx context.Context) ([]*entity.ICN, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+icnColumns+` FROM icns ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list icns: %w", err)
	}
	defer rows.Close()

	var icns []*entity.ICN
	for rows.Next() {
		icn, err := scanICN(rows)
		if err != nil {
			return nil, err
		}
		icns = append(icns, icn)
	}
	return icns, rows.Err()
}

func (r *icnRepository) UpdateAnnotations(ctx context.Context, icnID, caption string, objects []string, hotspots []entity.Hotspot) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(`
		UPDATE icns SET caption = ?, objects = ?, hotspots = ?, updated_at = ? WHERE icn_id = ?`),
		caption, marshalJSON(objects, "[]"), marshalJSON(hotspots, "[]"), time.Now().UTC(), icnID)
	if err != nil {
		return fmt.Errorf("update icn annotations: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanICN(row rowScanner) (*entity.ICN, error) {
	var (
		icn      entity.ICN
		objects  string
		hotspots string
	)
	err := row.Scan(&icn.ICNID, &icn.Filename, &icn.FilePath, &icn.SHA256Hash, &icn.MimeType,
		&icn.Width, &icn.Height, &icn.Caption, &objects, &hotspots,
		&icn.SourcePage, &icn.SecurityClass, &icn.CreatedAt, &icn.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan icn: %w", err)
	}
	if err := unmarshalJSON(objects, &icn.Objects); err != nil {
		return nil, fmt.Errorf("decode icn objects: %w", err)
	}
	if err := unmarshalJSON(hotspots, &icn.Hotspots); err != nil {
		return nil, fmt.Errorf("decode icn hotspots: %w", err)
	}
	return &icn, nil
}
