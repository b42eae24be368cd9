package repository

import (
	"context"

	"towdispatch/internal/domain"
)

// RejectionDecision bundles the writes of a dispatcher's decision on a
// rejection request. For approvals the request update and the job
// update (reassignment or return to the unassigned queue) are applied
// in the same transaction; denials carry no job mutation.
type RejectionDecision struct {
	RequestID  string
	Status     domain.RejectionStatus
	ReviewedBy string

	// Job mutation, approvals only.
	MutateJob          bool
	JobID              string
	JobExpectedVersion int
	JobStatus          domain.JobStatus
	JobDriverID        string // empty returns the job to the unassigned queue
	ReassignedTo       string
}

// RejectionRepository defines the persistence operations for rejection
// requests.
type RejectionRepository interface {
	// Create persists a new pending request.
	Create(ctx context.Context, req *domain.RejectionRequest) error

	// GetByID retrieves a request by ID.
	GetByID(ctx context.Context, id string) (*domain.RejectionRequest, error)

	// GetPending retrieves the pending request for a (job, driver)
	// pair, or nil if none exists.
	GetPending(ctx context.Context, jobID, driverID string) (*domain.RejectionRequest, error)

	// Decide atomically records a decision and, for approvals, the job
	// mutation. Returns ErrStaleVersion if the job's StatusVersion
	// moved under the reviewer.
	Decide(ctx context.Context, d RejectionDecision) error
}
