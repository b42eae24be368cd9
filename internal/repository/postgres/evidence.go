package postgres

import (
	"context"
	"database/sql"
	"errors"

	"towdispatch/internal/domain"
	"towdispatch/internal/repository"
)

// EvidenceRepository is a PostgreSQL implementation of repository.EvidenceRepository.
type EvidenceRepository struct {
	db *sql.DB
	q  Querier
}

// NewEvidenceRepository creates a new PostgreSQL evidence repository.
func NewEvidenceRepository(db *sql.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db, q: db}
}

// NewEvidenceRepositoryWithTx creates an evidence repository using a transaction.
func NewEvidenceRepositoryWithTx(tx *sql.Tx) *EvidenceRepository {
	return &EvidenceRepository{q: tx}
}

// AppendBatch inserts every item of a batch in one transaction.
func (r *EvidenceRepository) AppendBatch(ctx context.Context, items []domain.Evidence) error {
	if len(items) == 0 {
		return nil
	}
	if r.db == nil {
		return errors.New("batch append requires a db-scoped repository")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO evidence (id, job_id, phase, blob_ref, vehicle_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, item := range items {
		if _, err = tx.ExecContext(ctx, query,
			item.ID, item.JobID, item.Phase, item.BlobRef, nullString(item.VehicleID), item.CreatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByJob retrieves all evidence for a job, oldest first.
func (r *EvidenceRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Evidence, error) {
	query := `
		SELECT id, job_id, phase, blob_ref, vehicle_id, created_at
		FROM evidence WHERE job_id = $1 ORDER BY created_at
	`

	rows, err := r.q.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Evidence
	for rows.Next() {
		var e domain.Evidence
		var vehicleID sql.NullString
		if err := rows.Scan(&e.ID, &e.JobID, &e.Phase, &e.BlobRef, &vehicleID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.VehicleID = vehicleID.String
		items = append(items, e)
	}

	return items, rows.Err()
}

// CountByPhase counts a job's evidence in the given phase.
func (r *EvidenceRepository) CountByPhase(ctx context.Context, jobID string, phase domain.EvidencePhase) (int, error) {
	query := `SELECT COUNT(*) FROM evidence WHERE job_id = $1 AND phase = $2`

	var count int
	if err := r.q.QueryRowContext(ctx, query, jobID, phase).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetByID retrieves a single evidence item.
func (r *EvidenceRepository) GetByID(ctx context.Context, id string) (*domain.Evidence, error) {
	query := `
		SELECT id, job_id, phase, blob_ref, vehicle_id, created_at
		FROM evidence WHERE id = $1
	`

	var e domain.Evidence
	var vehicleID sql.NullString
	err := r.q.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.JobID, &e.Phase, &e.BlobRef, &vehicleID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	e.VehicleID = vehicleID.String
	return &e, nil
}

// Delete removes a single evidence item.
func (r *EvidenceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM evidence WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
