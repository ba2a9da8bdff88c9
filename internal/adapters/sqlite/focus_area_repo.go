// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ports/secondary"
)

// FocusAreaRepository implements secondary.VersionStore with SQLite.
type FocusAreaRepository struct {
	db *sql.DB
}

// NewFocusAreaRepository creates a new SQLite focus-area repository.
func NewFocusAreaRepository(db *sql.DB) *FocusAreaRepository {
	return &FocusAreaRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const focusAreaSelect = `SELECT fa.id, fa.package_id, fa.name, fa.deleted, fa.current_version_id, v.version_number, fa.created_at
	FROM focus_areas fa
	LEFT JOIN focus_area_versions v ON v.id = fa.current_version_id`

// scanFocusArea scans a focus area row into a FocusAreaRecord.
func scanFocusArea(s scanner) (*secondary.FocusAreaRecord, error) {
	var (
		currentID  sql.NullInt64
		currentNum sql.NullInt64
		deleted    bool
		createdAt  time.Time
	)

	record := &secondary.FocusAreaRecord{}
	if err := s.Scan(&record.ID, &record.PackageID, &record.Name, &deleted, &currentID, &currentNum, &createdAt); err != nil {
		return nil, err
	}
	record.Deleted = deleted
	record.CurrentVersionID = currentID.Int64
	record.CurrentVersionNumber = int(currentNum.Int64)
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

const versionSelectCols = "id, focus_area_id, version_number, summary, operation, created_by, checksum, added_count, updated_count, carried_count, deleted_count, created_at"

// scanVersion scans a version row into a VersionRecord.
func scanVersion(s scanner) (*secondary.VersionRecord, error) {
	var (
		createdBy sql.NullString
		createdAt time.Time
	)

	record := &secondary.VersionRecord{}
	err := s.Scan(
		&record.ID, &record.FocusAreaID, &record.VersionNumber, &record.Summary, &record.Operation,
		&createdBy, &record.Checksum,
		&record.Stats.Added, &record.Stats.Updated, &record.Stats.Carried, &record.Stats.Deleted,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	record.CreatedBy = createdBy.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

const recordSelectCols = "id, version_id, grid_index, display_order, properties, deleted, source_ref, copied_from_id"

// scanRecord scans a record row, decoding its properties.
func scanRecord(s scanner) (revision.Record, error) {
	var (
		props      string
		deleted    bool
		sourceRef  sql.NullString
		copiedFrom sql.NullInt64
		rec        revision.Record
	)

	if err := s.Scan(&rec.ID, &rec.VersionID, &rec.GridIndex, &rec.DisplayOrder, &props, &deleted, &sourceRef, &copiedFrom); err != nil {
		return revision.Record{}, err
	}

	properties, err := revision.DecodeProperties([]byte(props))
	if err != nil {
		return revision.Record{}, fmt.Errorf("record %d: %w", rec.ID, err)
	}
	rec.Properties = properties
	rec.Deleted = deleted
	rec.SourceRef = sourceRef.String
	rec.CopiedFromID = copiedFrom.Int64
	return rec, nil
}

// CreateFocusArea persists a focus area, its version 0 and that version's
// records in one transaction.
func (r *FocusAreaRepository) CreateFocusArea(ctx context.Context, params secondary.CreateFocusAreaParams) (*secondary.FocusAreaRecord, *secondary.VersionRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apperr.StorageFailure("failed to begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO focus_areas (package_id, name) VALUES (?, ?)",
		params.PackageID, params.Name,
	)
	if err != nil {
		return nil, nil, apperr.StorageFailure("failed to create focus area", err)
	}
	focusAreaID, err := res.LastInsertId()
	if err != nil {
		return nil, nil, apperr.StorageFailure("failed to create focus area", err)
	}

	versionID, err := insertVersion(ctx, tx, versionRow{
		focusAreaID: focusAreaID,
		number:      0,
		summary:     params.Summary,
		operation:   "create",
		createdBy:   params.CreatedBy,
		checksum:    params.Checksum,
		stats:       params.Stats,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := insertRecords(ctx, tx, versionID, params.Records); err != nil {
		return nil, nil, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE focus_areas SET current_version_id = ? WHERE id = ? AND current_version_id IS NULL",
		versionID, focusAreaID,
	); err != nil {
		return nil, nil, apperr.StorageFailure("failed to set current version", err)
	}

	fa, err := scanFocusArea(tx.QueryRowContext(ctx, focusAreaSelect+" WHERE fa.id = ?", focusAreaID))
	if err != nil {
		return nil, nil, apperr.StorageFailure("failed to read created focus area", err)
	}
	version, err := scanVersion(tx.QueryRowContext(ctx, "SELECT "+versionSelectCols+" FROM focus_area_versions WHERE id = ?", versionID))
	if err != nil {
		return nil, nil, apperr.StorageFailure("failed to read created version", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apperr.StorageFailure("failed to commit focus area", err)
	}
	return fa, version, nil
}

// CommitVersion appends a version and moves the current pointer to it.
//
// The transaction begins IMMEDIATE (see db.Open), so the pointer read below
// and the conditional UPDATE run under the write lock. The UPDATE's
// affected-row check and the (focus_area_id, version_number) UNIQUE
// constraint back the read up; any of the three reports a conflict.
func (r *FocusAreaRepository) CommitVersion(ctx context.Context, params secondary.CommitParams) (*secondary.VersionRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.StorageFailure("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var currentID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT current_version_id FROM focus_areas WHERE id = ?", params.FocusAreaID,
	).Scan(&currentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("focus area %d not found", params.FocusAreaID)
	}
	if err != nil {
		return nil, apperr.StorageFailure("failed to read current version", err)
	}
	if currentID.Int64 != params.BaseVersionID {
		return nil, conflict(ctx, tx, params.FocusAreaID, params.BaseVersionID)
	}

	var maxNumber int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version_number), -1) FROM focus_area_versions WHERE focus_area_id = ?", params.FocusAreaID,
	).Scan(&maxNumber)
	if err != nil {
		return nil, apperr.StorageFailure("failed to read version numbers", err)
	}

	versionID, err := insertVersion(ctx, tx, versionRow{
		focusAreaID: params.FocusAreaID,
		number:      maxNumber + 1,
		summary:     params.Summary,
		operation:   params.Operation,
		createdBy:   params.CreatedBy,
		checksum:    params.Checksum,
		stats:       params.Stats,
	})
	if isUniqueViolation(err) {
		return nil, conflict(ctx, tx, params.FocusAreaID, params.BaseVersionID)
	}
	if err != nil {
		return nil, err
	}
	if err := insertRecords(ctx, tx, versionID, params.Records); err != nil {
		return nil, err
	}

	var setDeleted sql.NullBool
	if params.SetDeleted != nil {
		setDeleted = sql.NullBool{Bool: *params.SetDeleted, Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE focus_areas SET current_version_id = ?, deleted = COALESCE(?, deleted)
		WHERE id = ? AND current_version_id = ?`,
		versionID, setDeleted, params.FocusAreaID, params.BaseVersionID,
	)
	if err != nil {
		return nil, apperr.StorageFailure("failed to advance current version", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.StorageFailure("failed to advance current version", err)
	}
	if rowsAffected == 0 {
		return nil, conflict(ctx, tx, params.FocusAreaID, params.BaseVersionID)
	}

	version, err := scanVersion(tx.QueryRowContext(ctx, "SELECT "+versionSelectCols+" FROM focus_area_versions WHERE id = ?", versionID))
	if err != nil {
		return nil, apperr.StorageFailure("failed to read committed version", err)
	}

	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return nil, conflict(ctx, r.db, params.FocusAreaID, params.BaseVersionID)
		}
		return nil, apperr.StorageFailure("failed to commit version", err)
	}
	return version, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conflict builds the error returned for a stale base, carrying the live
// pointer so the caller can re-read.
func conflict(ctx context.Context, q queryer, focusAreaID, baseVersionID int64) error {
	c := &apperr.ConflictError{FocusAreaID: focusAreaID, BaseVersionID: baseVersionID}
	var (
		currentID  sql.NullInt64
		currentNum sql.NullInt64
	)
	err := q.QueryRowContext(ctx,
		`SELECT fa.current_version_id, v.version_number
		FROM focus_areas fa LEFT JOIN focus_area_versions v ON v.id = fa.current_version_id
		WHERE fa.id = ?`, focusAreaID,
	).Scan(&currentID, &currentNum)
	if err == nil {
		c.CurrentVersionID = currentID.Int64
		c.CurrentVersionNumber = int(currentNum.Int64)
	}
	return c
}

type versionRow struct {
	focusAreaID int64
	number      int
	summary     string
	operation   string
	createdBy   string
	checksum    string
	stats       revision.Stats
}

func insertVersion(ctx context.Context, tx *sql.Tx, v versionRow) (int64, error) {
	var createdBy sql.NullString
	if v.createdBy != "" {
		createdBy = sql.NullString{String: v.createdBy, Valid: true}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO focus_area_versions
		(focus_area_id, version_number, summary, operation, created_by, checksum, added_count, updated_count, carried_count, deleted_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.focusAreaID, v.number, v.summary, v.operation, createdBy, v.checksum,
		v.stats.Added, v.stats.Updated, v.stats.Carried, v.stats.Deleted,
	)
	if isUniqueViolation(err) {
		return 0, err
	}
	if err != nil {
		return 0, apperr.StorageFailure("failed to insert version", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.StorageFailure("failed to insert version", err)
	}
	return id, nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, versionID int64, records []revision.Record) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO focus_area_records
		(version_id, grid_index, display_order, properties, deleted, source_ref, copied_from_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return apperr.StorageFailure("failed to prepare record insert", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		props, err := json.Marshal(rec.Properties)
		if err != nil {
			return apperr.StorageFailure(fmt.Sprintf("failed to encode record at grid index %d", rec.GridIndex), err)
		}

		var sourceRef sql.NullString
		if rec.SourceRef != "" {
			sourceRef = sql.NullString{String: rec.SourceRef, Valid: true}
		}
		var copiedFrom sql.NullInt64
		if rec.CopiedFromID > 0 {
			copiedFrom = sql.NullInt64{Int64: rec.CopiedFromID, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			versionID, rec.GridIndex, rec.DisplayOrder, string(props), rec.Deleted, sourceRef, copiedFrom,
		); err != nil {
			return apperr.StorageFailure(fmt.Sprintf("failed to insert record at grid index %d", rec.GridIndex), err)
		}
	}
	return nil
}

// GetFocusArea retrieves a focus area by its ID.
func (r *FocusAreaRepository) GetFocusArea(ctx context.Context, id int64) (*secondary.FocusAreaRecord, error) {
	record, err := scanFocusArea(r.db.QueryRowContext(ctx, focusAreaSelect+" WHERE fa.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("focus area %d not found", id)
	}
	if err != nil {
		return nil, apperr.StorageFailure("failed to get focus area", err)
	}
	return record, nil
}

// ListFocusAreas retrieves the focus areas of a package, oldest first.
func (r *FocusAreaRepository) ListFocusAreas(ctx context.Context, packageID int64) ([]*secondary.FocusAreaRecord, error) {
	rows, err := r.db.QueryContext(ctx, focusAreaSelect+" WHERE fa.package_id = ? ORDER BY fa.id", packageID)
	if err != nil {
		return nil, apperr.StorageFailure("failed to list focus areas", err)
	}
	defer rows.Close()

	var list []*secondary.FocusAreaRecord
	for rows.Next() {
		record, err := scanFocusArea(rows)
		if err != nil {
			return nil, apperr.StorageFailure("failed to scan focus area", err)
		}
		list = append(list, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.StorageFailure("failed to list focus areas", err)
	}
	return list, nil
}

// GetCurrentVersion retrieves the version the focus area's pointer names.
func (r *FocusAreaRepository) GetCurrentVersion(ctx context.Context, focusAreaID int64) (*secondary.VersionRecord, error) {
	record, err := scanVersion(r.db.QueryRowContext(ctx,
		`SELECT v.id, v.focus_area_id, v.version_number, v.summary, v.operation, v.created_by, v.checksum,
			v.added_count, v.updated_count, v.carried_count, v.deleted_count, v.created_at
		FROM focus_areas fa JOIN focus_area_versions v ON v.id = fa.current_version_id
		WHERE fa.id = ?`, focusAreaID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("focus area %d not found", focusAreaID)
	}
	if err != nil {
		return nil, apperr.StorageFailure("failed to get current version", err)
	}
	return record, nil
}

// GetVersion retrieves a version by its ID.
func (r *FocusAreaRepository) GetVersion(ctx context.Context, versionID int64) (*secondary.VersionRecord, error) {
	record, err := scanVersion(r.db.QueryRowContext(ctx,
		"SELECT "+versionSelectCols+" FROM focus_area_versions WHERE id = ?", versionID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("version %d not found", versionID)
	}
	if err != nil {
		return nil, apperr.StorageFailure("failed to get version", err)
	}
	return record, nil
}

// GetVersionByNumber retrieves a version by its per-focus-area number.
func (r *FocusAreaRepository) GetVersionByNumber(ctx context.Context, focusAreaID int64, number int) (*secondary.VersionRecord, error) {
	record, err := scanVersion(r.db.QueryRowContext(ctx,
		"SELECT "+versionSelectCols+" FROM focus_area_versions WHERE focus_area_id = ? AND version_number = ?",
		focusAreaID, number,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("version %d of focus area %d not found", number, focusAreaID)
	}
	if err != nil {
		return nil, apperr.StorageFailure("failed to get version", err)
	}
	return record, nil
}

// ListVersions retrieves every version of a focus area, newest first.
func (r *FocusAreaRepository) ListVersions(ctx context.Context, focusAreaID int64) ([]*secondary.VersionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+versionSelectCols+" FROM focus_area_versions WHERE focus_area_id = ? ORDER BY version_number DESC",
		focusAreaID,
	)
	if err != nil {
		return nil, apperr.StorageFailure("failed to list versions", err)
	}
	defer rows.Close()

	var list []*secondary.VersionRecord
	for rows.Next() {
		record, err := scanVersion(rows)
		if err != nil {
			return nil, apperr.StorageFailure("failed to scan version", err)
		}
		list = append(list, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.StorageFailure("failed to list versions", err)
	}
	return list, nil
}

// ListRecords retrieves the records of a version in display order.
func (r *FocusAreaRepository) ListRecords(ctx context.Context, versionID int64, includeDeleted bool) ([]revision.Record, error) {
	query := "SELECT " + recordSelectCols + " FROM focus_area_records WHERE version_id = ?"
	if !includeDeleted {
		query += " AND deleted = 0"
	}
	query += " ORDER BY display_order, grid_index"

	rows, err := r.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, apperr.StorageFailure("failed to list records", err)
	}
	defer rows.Close()

	records := []revision.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperr.StorageFailure("failed to scan record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.StorageFailure("failed to list records", err)
	}
	return records, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked)
}

// Ensure FocusAreaRepository implements the interface
var _ secondary.VersionStore = (*FocusAreaRepository)(nil)
