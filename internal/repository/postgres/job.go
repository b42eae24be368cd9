package postgres

import (
	"context"
	"database/sql"
	"errors"

	"towdispatch/internal/domain"
	"towdispatch/internal/repository"
)

// JobRepository is a PostgreSQL implementation of repository.JobRepository.
type JobRepository struct {
	db *sql.DB
	q  Querier
}

// NewJobRepository creates a new PostgreSQL job repository.
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db, q: db}
}

// NewJobRepositoryWithTx creates a job repository using a transaction.
// Transition writes are not available on a tx-scoped repository.
func NewJobRepositoryWithTx(tx *sql.Tx) *JobRepository {
	return &JobRepository{q: tx}
}

// Create persists a new job with its legs and vehicles.
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	if r.db == nil {
		return errors.New("create requires a db-scoped repository")
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
		INSERT INTO jobs (id, company_id, status, driver_id, route_mode, scheduled_at, notes, final_price, price_mode, status_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err = tx.ExecContext(ctx, query,
		job.ID,
		job.CompanyID,
		job.Status,
		nullString(job.DriverID),
		job.RouteMode,
		job.ScheduledAt,
		job.Notes,
		job.FinalPrice,
		job.PriceMode,
		job.StatusVersion,
	); err != nil {
		return err
	}

	legQuery := `
		INSERT INTO legs (id, job_id, type, status, from_address, to_address, distance_km, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, leg := range job.Legs {
		if _, err = tx.ExecContext(ctx, legQuery,
			leg.ID, job.ID, leg.Type, leg.Status, leg.FromAddress, leg.ToAddress, leg.DistanceKm, i,
		); err != nil {
			return err
		}
	}

	vehicleQuery := `
		INSERT INTO vehicles (id, job_id, type, plate, defects)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, v := range job.Vehicles {
		if _, err = tx.ExecContext(ctx, vehicleQuery, v.ID, job.ID, v.Type, v.Plate, v.Defects); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a job with its legs and vehicles.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `
		SELECT id, company_id, status, driver_id, route_mode, scheduled_at, notes, final_price, price_mode, status_version
		FROM jobs WHERE id = $1
	`

	var job domain.Job
	var driverID sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.CompanyID,
		&job.Status,
		&driverID,
		&job.RouteMode,
		&job.ScheduledAt,
		&job.Notes,
		&job.FinalPrice,
		&job.PriceMode,
		&job.StatusVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	job.DriverID = driverID.String

	if job.Legs, err = r.legsByJob(ctx, id); err != nil {
		return nil, err
	}
	if job.Vehicles, err = r.vehiclesByJob(ctx, id); err != nil {
		return nil, err
	}

	return &job, nil
}

// GetAll retrieves all jobs without legs or vehicles.
func (r *JobRepository) GetAll(ctx context.Context) ([]*domain.Job, error) {
	query := `
		SELECT id, company_id, status, driver_id, route_mode, scheduled_at, notes, final_price, price_mode, status_version
		FROM jobs ORDER BY scheduled_at
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		var job domain.Job
		var driverID sql.NullString
		if err := rows.Scan(
			&job.ID,
			&job.CompanyID,
			&job.Status,
			&driverID,
			&job.RouteMode,
			&job.ScheduledAt,
			&job.Notes,
			&job.FinalPrice,
			&job.PriceMode,
			&job.StatusVersion,
		); err != nil {
			return nil, err
		}
		job.DriverID = driverID.String
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

// ApplyTransition atomically applies a stage transition: the versioned
// job status write, the leg updates and the history append commit
// together or not at all.
func (r *JobRepository) ApplyTransition(ctx context.Context, t repository.StageTransition) error {
	if r.db == nil {
		return errors.New("transitions require a db-scoped repository")
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

	if err = updateJobStatusVersioned(ctx, tx, t.JobID, t.ToStatus, t.ExpectedVersion); err != nil {
		return err
	}

	legQuery := `UPDATE legs SET status = $1 WHERE id = $2`
	for _, lu := range t.LegUpdates {
		var res sql.Result
		if res, err = tx.ExecContext(ctx, legQuery, lu.Status, lu.LegID); err != nil {
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
	}

	if err = insertHistory(ctx, tx, t.History); err != nil {
		return err
	}

	return tx.Commit()
}

// ListHistory returns a job's audit trail, oldest first.
func (r *JobRepository) ListHistory(ctx context.Context, jobID string) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, job_id, actor_id, label, leg_id, created_at
		FROM job_history WHERE job_id = $1 ORDER BY created_at
	`

	rows, err := r.q.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var legID sql.NullString
		if err := rows.Scan(&e.ID, &e.JobID, &e.ActorID, &e.Label, &legID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.LegID = legID.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *JobRepository) legsByJob(ctx context.Context, jobID string) ([]domain.Leg, error) {
	query := `
		SELECT id, job_id, type, status, from_address, to_address, distance_km
		FROM legs WHERE job_id = $1 ORDER BY position
	`

	rows, err := r.q.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var legs []domain.Leg
	for rows.Next() {
		var l domain.Leg
		if err := rows.Scan(&l.ID, &l.JobID, &l.Type, &l.Status, &l.FromAddress, &l.ToAddress, &l.DistanceKm); err != nil {
			return nil, err
		}
		legs = append(legs, l)
	}

	return legs, rows.Err()
}

func (r *JobRepository) vehiclesByJob(ctx context.Context, jobID string) ([]domain.Vehicle, error) {
	query := `SELECT id, job_id, type, plate, defects FROM vehicles WHERE job_id = $1 ORDER BY plate`

	rows, err := r.q.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.JobID, &v.Type, &v.Plate, &v.Defects); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}

	return vehicles, rows.Err()
}

// updateJobStatusVersioned performs the optimistic-concurrency status
// write shared by stage transitions and rejection approvals.
func updateJobStatusVersioned(ctx context.Context, q Querier, jobID string, status domain.JobStatus, expectedVersion int) error {
	query := `
		UPDATE jobs SET status = $1, status_version = status_version + 1
		WHERE id = $2 AND status_version = $3
	`

	res, err := q.ExecContext(ctx, query, status, jobID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the job vanished or the version moved; distinguish so
		// callers can report the right condition.
		var exists bool
		if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)`, jobID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrStaleVersion
	}
	return nil
}

func insertHistory(ctx context.Context, q Querier, e domain.HistoryEntry) error {
	query := `
		INSERT INTO job_history (id, job_id, actor_id, label, leg_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query, e.ID, e.JobID, e.ActorID, e.Label, nullString(e.LegID), e.CreatedAt)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
