package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/ports/secondary"
)

// PackageRepository implements secondary.PackageRepository with SQLite.
type PackageRepository struct {
	db *sql.DB
}

// NewPackageRepository creates a new SQLite package repository.
func NewPackageRepository(db *sql.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

const packageSelectCols = "id, name, deleted, created_at"

func scanPackage(s scanner) (*secondary.PackageRecord, error) {
	var createdAt time.Time
	record := &secondary.PackageRecord{}
	if err := s.Scan(&record.ID, &record.Name, &record.Deleted, &createdAt); err != nil {
		return nil, err
	}
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

// Create persists a new package.
func (r *PackageRepository) Create(ctx context.Context, name string) (*secondary.PackageRecord, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO packages (name) VALUES (?)", name)
	if err != nil {
		return nil, apperr.StorageFailure("failed to create package", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.StorageFailure("failed to create package", err)
	}
	return r.GetPackage(ctx, id)
}

// GetPackage retrieves a package by its ID.
func (r *PackageRepository) GetPackage(ctx context.Context, id int64) (*secondary.PackageRecord, error) {
	record, err := scanPackage(r.db.QueryRowContext(ctx, "SELECT "+packageSelectCols+" FROM packages WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("package %d not found", id)
	}
	if err != nil {
		return nil, apperr.StorageFailure("failed to get package", err)
	}
	return record, nil
}

// List retrieves all packages, oldest first.
func (r *PackageRepository) List(ctx context.Context) ([]*secondary.PackageRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+packageSelectCols+" FROM packages ORDER BY id")
	if err != nil {
		return nil, apperr.StorageFailure("failed to list packages", err)
	}
	defer rows.Close()

	var list []*secondary.PackageRecord
	for rows.Next() {
		record, err := scanPackage(rows)
		if err != nil {
			return nil, apperr.StorageFailure("failed to scan package", err)
		}
		list = append(list, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.StorageFailure("failed to list packages", err)
	}
	return list, nil
}

// SoftDelete flags a package as deleted.
func (r *PackageRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE packages SET deleted = 1 WHERE id = ?", id)
	if err != nil {
		return apperr.StorageFailure("failed to delete package", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return apperr.StorageFailure("failed to delete package", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound("package %d not found", id)
	}
	return nil
}

// Ensure PackageRepository implements the interface
var _ secondary.PackageRepository = (*PackageRepository)(nil)
