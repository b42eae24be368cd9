package repository

import (
	"context"

	"towdispatch/internal/domain"
)

// LegStatusUpdate is one leg mutation inside a stage transition.
type LegStatusUpdate struct {
	LegID  string
	Status domain.LegStatus
}

// StageTransition bundles every write of one lifecycle transition. The
// repository applies it atomically: the job status write, the leg
// updates and the history append all succeed together or not at all.
// ExpectedVersion is the StatusVersion the caller read; a mismatch at
// write time fails the whole transition with ErrStaleVersion.
type StageTransition struct {
	JobID           string
	ExpectedVersion int
	ToStatus        domain.JobStatus
	LegUpdates      []LegStatusUpdate
	History         domain.HistoryEntry
}

// JobRepository defines the persistence operations for jobs.
type JobRepository interface {
	// Create persists a new job with its legs and vehicles.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job with its legs and vehicles.
	GetByID(ctx context.Context, id string) (*domain.Job, error)

	// GetAll retrieves all jobs (legs and vehicles not populated).
	GetAll(ctx context.Context) ([]*domain.Job, error)

	// ApplyTransition atomically applies a stage transition.
	// Returns ErrStaleVersion if the job's StatusVersion no longer
	// matches ExpectedVersion.
	ApplyTransition(ctx context.Context, t StageTransition) error

	// ListHistory returns a job's audit trail, oldest first.
	ListHistory(ctx context.Context, jobID string) ([]domain.HistoryEntry, error)
}
