package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
	"github.com/veronikad26/chemical-equip-analyser/pkg/database"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
)

// BlobDropper removes the blob referenced by a dataset record. Eviction
// calls it for each victim before deleting the record, so an interrupted
// run can only leave a blob without a record, never the reverse.
type BlobDropper func(ctx context.Context, id uuid.UUID, blobRef string) error

// DatasetRepository provides data access for uploaded datasets. All reads
// and writes are owner-scoped; a dataset owned by someone else is
// indistinguishable from one that does not exist.
type DatasetRepository interface {
	Insert(ctx context.Context, ds *models.Dataset) error
	// GetByID returns the full dataset including rows.
	GetByID(ctx context.Context, id, owner uuid.UUID) (*models.Dataset, error)
	// ListRecent returns the owner's datasets newest first, without rows.
	ListRecent(ctx context.Context, owner uuid.UUID, limit int) ([]*models.Dataset, error)
	// CountByOwner returns how many datasets the owner currently has.
	CountByOwner(ctx context.Context, owner uuid.UUID) (int, error)
	// Delete removes one record and returns its blob reference.
	Delete(ctx context.Context, id, owner uuid.UUID) (string, error)
	// EvictExcess deletes the owner's oldest datasets until at most keep
	// remain. The whole selection runs in one transaction serialized per
	// owner, so concurrent uploads cannot both skip eviction. Victims
	// whose blob could not be dropped keep their record and are retried
	// on the next upload. Returns the number of records evicted.
	EvictExcess(ctx context.Context, owner uuid.UUID, keep int, dropBlob BlobDropper) (int, error)
}

// datasetRepository implements DatasetRepository using PostgreSQL. The
// summary and rows columns use the json type (not jsonb): jsonb re-sorts
// object keys, which would destroy the first-occurrence ordering of the
// type distribution that report rendering depends on.
type datasetRepository struct {
	db *database.DB
}

// NewDatasetRepository creates a new dataset repository.
func NewDatasetRepository(db *database.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

var _ DatasetRepository = (*datasetRepository)(nil)

func (r *datasetRepository) Insert(ctx context.Context, ds *models.Dataset) error {
	if ds.ID == uuid.Nil {
		ds.ID = uuid.New()
	}
	ds.CreatedAt = time.Now()

	summaryJSON, err := json.Marshal(ds.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	rowsJSON, err := json.Marshal(ds.Rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}

	query := `
		INSERT INTO datasets (id, owner_id, filename, uploaded_at, summary, row_data, blob_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		ds.ID,
		ds.OwnerID,
		ds.Filename,
		ds.UploadedAt,
		summaryJSON,
		rowsJSON,
		ds.BlobRef,
		ds.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dataset: %w", err)
	}

	return nil
}

func (r *datasetRepository) GetByID(ctx context.Context, id, owner uuid.UUID) (*models.Dataset, error) {
	query := `
		SELECT id, owner_id, filename, uploaded_at, summary, row_data, blob_ref, created_at
		FROM datasets
		WHERE id = $1 AND owner_id = $2`

	var ds models.Dataset
	var summaryJSON, rowsJSON []byte
	err := r.db.QueryRow(ctx, query, id, owner).Scan(
		&ds.ID,
		&ds.OwnerID,
		&ds.Filename,
		&ds.UploadedAt,
		&summaryJSON,
		&rowsJSON,
		&ds.BlobRef,
		&ds.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	if err := json.Unmarshal(summaryJSON, &ds.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if err := json.Unmarshal(rowsJSON, &ds.Rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rows: %w", err)
	}

	return &ds, nil
}

func (r *datasetRepository) ListRecent(ctx context.Context, owner uuid.UUID, limit int) ([]*models.Dataset, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id, owner_id, filename, uploaded_at, summary, blob_ref, created_at
		FROM datasets
		WHERE owner_id = $1
		ORDER BY uploaded_at DESC, created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*models.Dataset
	for rows.Next() {
		var ds models.Dataset
		var summaryJSON []byte
		if err := rows.Scan(
			&ds.ID,
			&ds.OwnerID,
			&ds.Filename,
			&ds.UploadedAt,
			&summaryJSON,
			&ds.BlobRef,
			&ds.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		if err := json.Unmarshal(summaryJSON, &ds.Summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
		}
		datasets = append(datasets, &ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}

	return datasets, nil
}

func (r *datasetRepository) CountByOwner(ctx context.Context, owner uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM datasets WHERE owner_id = $1`, owner).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count datasets: %w", err)
	}
	return count, nil
}

func (r *datasetRepository) Delete(ctx context.Context, id, owner uuid.UUID) (string, error) {
	var blobRef string
	err := r.db.QueryRow(ctx,
		`DELETE FROM datasets WHERE id = $1 AND owner_id = $2 RETURNING blob_ref`,
		id, owner).Scan(&blobRef)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to delete dataset: %w", err)
	}
	return blobRef, nil
}

func (r *datasetRepository) EvictExcess(ctx context.Context, owner uuid.UUID, keep int, dropBlob BlobDropper) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin eviction transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize count-then-evict per owner. Two concurrent uploads by the
	// same owner queue up here instead of both reading a stale count.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, owner); err != nil {
		return 0, fmt.Errorf("failed to acquire owner lock: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, blob_ref
		FROM datasets
		WHERE owner_id = $1
		ORDER BY uploaded_at DESC, created_at DESC, id DESC
		OFFSET $2`, owner, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to select eviction victims: %w", err)
	}

	type victim struct {
		id      uuid.UUID
		blobRef string
	}
	var victims []victim
	for rows.Next() {
		var v victim
		if err := rows.Scan(&v.id, &v.blobRef); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan eviction victim: %w", err)
		}
		victims = append(victims, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating eviction victims: %w", err)
	}

	evicted := 0
	var dropErr error
	for _, v := range victims {
		// Blob first, then record. A blob that cannot be dropped keeps
		// its record so the next upload retries the pair.
		if err := dropBlob(ctx, v.id, v.blobRef); err != nil {
			dropErr = errors.Join(dropErr, fmt.Errorf("dataset %s: %w", v.id, err))
			continue
		}
		if _, err := tx.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, v.id); err != nil {
			return evicted, fmt.Errorf("failed to delete evicted dataset %s: %w", v.id, err)
		}
		evicted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit eviction: %w", err)
	}

	return evicted, dropErr
}
