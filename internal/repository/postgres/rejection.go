package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"towdispatch/internal/domain"
	"towdispatch/internal/repository"
)

// RejectionRepository is a PostgreSQL implementation of repository.RejectionRepository.
type RejectionRepository struct {
	db *sql.DB
	q  Querier
}

// NewRejectionRepository creates a new PostgreSQL rejection repository.
func NewRejectionRepository(db *sql.DB) *RejectionRepository {
	return &RejectionRepository{db: db, q: db}
}

// NewRejectionRepositoryWithTx creates a rejection repository using a transaction.
func NewRejectionRepositoryWithTx(tx *sql.Tx) *RejectionRepository {
	return &RejectionRepository{q: tx}
}

// Create persists a new pending request.
func (r *RejectionRepository) Create(ctx context.Context, req *domain.RejectionRequest) error {
	query := `
		INSERT INTO rejection_requests (id, job_id, driver_id, company_id, reason, note, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		req.ID, req.JobID, req.DriverID, req.CompanyID, req.Reason, req.Note, req.Status, req.CreatedAt,
	)
	return err
}

// GetByID retrieves a request by ID.
func (r *RejectionRepository) GetByID(ctx context.Context, id string) (*domain.RejectionRequest, error) {
	query := `
		SELECT id, job_id, driver_id, company_id, reason, note, status, reviewed_by, reassigned_to, created_at, reviewed_at
		FROM rejection_requests WHERE id = $1
	`
	req, err := scanRejection(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetPending retrieves the pending request for a (job, driver) pair, or
// nil if none exists. This guarded read backs the one-pending-per-pair
// rule; without a DB uniqueness constraint it is not linearizable
// across concurrent callers, which is acceptable at dispatcher pace.
func (r *RejectionRepository) GetPending(ctx context.Context, jobID, driverID string) (*domain.RejectionRequest, error) {
	query := `
		SELECT id, job_id, driver_id, company_id, reason, note, status, reviewed_by, reassigned_to, created_at, reviewed_at
		FROM rejection_requests WHERE job_id = $1 AND driver_id = $2 AND status = $3
	`
	req, err := scanRejection(r.q.QueryRowContext(ctx, query, jobID, driverID, domain.RejectionStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

// Decide atomically records a decision and, for approvals, the versioned
// job mutation.
func (r *RejectionRepository) Decide(ctx context.Context, d repository.RejectionDecision) error {
	if r.db == nil {
		return errors.New("decisions require a db-scoped repository")
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
		UPDATE rejection_requests
		SET status = $1, reviewed_by = $2, reassigned_to = $3, reviewed_at = $4
		WHERE id = $5 AND status = $6
	`
	var res sql.Result
	if res, err = tx.ExecContext(ctx, query,
		d.Status, d.ReviewedBy, nullString(d.ReassignedTo), time.Now(), d.RequestID, domain.RejectionStatusPending,
	); err != nil {
		return err
	}
	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return err
	}
	if n == 0 {
		err = repository.ErrNotFound
		return err
	}

	if d.MutateJob {
		if err = updateJobStatusVersioned(ctx, tx, d.JobID, d.JobStatus, d.JobExpectedVersion); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `UPDATE jobs SET driver_id = $1 WHERE id = $2`,
			nullString(d.JobDriverID), d.JobID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRejection(row rowScanner) (*domain.RejectionRequest, error) {
	var req domain.RejectionRequest
	var reviewedBy, reassignedTo sql.NullString
	var reviewedAt sql.NullTime

	if err := row.Scan(
		&req.ID,
		&req.JobID,
		&req.DriverID,
		&req.CompanyID,
		&req.Reason,
		&req.Note,
		&req.Status,
		&reviewedBy,
		&reassignedTo,
		&req.CreatedAt,
		&reviewedAt,
	); err != nil {
		return nil, err
	}
	req.ReviewedBy = reviewedBy.String
	req.ReassignedTo = reassignedTo.String
	req.ReviewedAt = reviewedAt.Time
	return &req, nil
}
