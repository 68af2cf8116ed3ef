package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
)

type PublicationRepository interface {
	Create(ctx context.Context, pm *entity.PublicationModule) error
	GetByCode(ctx context.Context, pmCode string) (*entity.PublicationModule, error)
	List(ctx context.Context) ([]*entity.PublicationModule, error)
	Update(ctx context.Context, pm *entity.PublicationModule) error
	Delete(ctx context.Context, pmCode string) error
}

type publicationRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewPublicationRepository(db *DB, logger *slog.Logger) PublicationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &publicationRepository{db: db, logger: logger}
}

func (r *publicationRepository) Create(ctx context.Context, pm *entity.PublicationModule) error {
	now := time.Now().UTC()
	pm.CreatedAt = now
	pm.UpdatedAt = now
	if pm.Status == "" {
		pm.Status = constants.PublicationDraft
	}

	_, err := r.db.ExecContext(ctx, r.db.rebind(`
		INSERT INTO publication_modules (pm_code, title, dm_list, structure, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		pm.PMCode, pm.Title, marshalJSON(pm.DMList, "[]"), marshalJSON(pm.Structure, "[]"),
		string(pm.Status), pm.CreatedAt, pm.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert publication module %s: %w", pm.PMCode, common.ErrDuplicateIdentifier)
		}
		r.logger.Error("failed to insert publication module", "pm_code", pm.PMCode, "error", err)
		return fmt.Errorf("insert publication module: %w", err)
	}
	return nil
}

func (r *publicationRepository) GetByCode(ctx context.Context, pmCode string) (*entity.PublicationModule, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`
		SELECT pm_code, title, dm_list, structure, status, created_at, updated_at
		FROM publication_modules WHERE pm_code = ?`), pmCode)
	return scanPublicationModule(row)
}

func (r *publicationRepository) List(ctx context.Context) ([]*entity.PublicationModule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pm_code, title, dm_list, structure, status, created_at, updated_at
		FROM publication_modules ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list publication modules: %w", err)
	}
	defer rows.Close()

	var pms []*entity.PublicationModule
	for rows.Next() {
		pm, err := scanPublicationModule(rows)
		if err != nil {
			return nil, err
		}
		pms = append(pms, pm)
	}
	return pms, rows.Err()
}

func (r *publicationRepository) Update(ctx context.Context, pm *entity.PublicationModule) error {
	pm.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.rebind(`
		UPDATE publication_modules SET title = ?, dm_list = ?, structure = ?, status = ?, updated_at = ?
		WHERE pm_code = ?`),
		pm.Title, marshalJSON(pm.DMList, "[]"), marshalJSON(pm.Structure, "[]"),
		string(pm.Status), pm.UpdatedAt, pm.PMCode,
	)
	if err != nil {
		return fmt.Errorf("update publication module: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *publicationRepository) Delete(ctx context.Context, pmCode string) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(`DELETE FROM publication_modules WHERE pm_code = ?`), pmCode)
	if err != nil {
		return fmt.Errorf("delete publication module: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanPublicationModule(row rowScanner) (*entity.PublicationModule, error) {
	var (
		pm        entity.PublicationModule
		dmList    string
		structure string
		status    string
	)
	err := row.Scan(&pm.PMCode, &pm.Title, &dmList, &structure, &status, &pm.CreatedAt, &pm.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan publication module: %w", err)
	}
	pm.Status = constants.PublicationStatus(status)
	if err := unmarshalJSON(dmList, &pm.DMList); err != nil {
		return nil, fmt.Errorf("decode publication dm list: %w", err)
	}
	if err := unmarshalJSON(structure, &pm.Structure); err != nil {
		return nil, fmt.Errorf("decode publication structure: %w", err)
	}
	return &pm, nil
}
