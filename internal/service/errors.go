package service

import (
	"errors"
	"fmt"

	"towdispatch/internal/domain"
)

var (
	// ErrInvalidJobID is returned when job ID is empty.
	ErrInvalidJobID = errors.New("invalid job id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidActorID is returned when actor ID is empty.
	ErrInvalidActorID = errors.New("invalid actor id")

	// ErrInvalidRequestID is returned when rejection request ID is empty.
	ErrInvalidRequestID = errors.New("invalid rejection request id")

	// ErrUnknownRejectionReason is returned when the reason code is not
	// one of the enumerated rejection reasons.
	ErrUnknownRejectionReason = errors.New("unknown rejection reason")

	// ErrEmptyEvidenceBatch is returned when a batch contains no items.
	ErrEmptyEvidenceBatch = errors.New("evidence batch is empty")

	// ErrJobCompleted is returned when advancing a completed job.
	ErrJobCompleted = errors.New("job already completed")

	// ErrJobCancelled is returned when advancing a cancelled job.
	ErrJobCancelled = errors.New("job is cancelled")

	// ErrNotAssignedDriver is returned when the actor is not the job's
	// currently assigned driver. A driver whose job was reassigned after
	// an approved rejection hits this instead of advancing a job that
	// is no longer theirs.
	ErrNotAssignedDriver = errors.New("actor is not the assigned driver")

	// ErrJobUnassigned is returned when advancing a job with no driver.
	ErrJobUnassigned = errors.New("job has no assigned driver")

	// ErrEvidenceRequired is the sentinel wrapped by EvidenceGateError.
	ErrEvidenceRequired = errors.New("insufficient evidence")

	// ErrDuplicatePendingRequest is returned when a pending rejection
	// request already exists for the same (job, driver) pair.
	ErrDuplicatePendingRequest = errors.New("pending rejection request already exists")

	// ErrRequestAlreadyDecided is returned when re-deciding a finalized
	// rejection request.
	ErrRequestAlreadyDecided = errors.New("rejection request already decided")

	// ErrBatchInProgress is returned when another evidence batch for the
	// same job holds the upload lock.
	ErrBatchInProgress = errors.New("evidence batch already in progress")

	// ErrMissingVehicleType is returned when pricing a single-route job
	// whose vehicle type has no base price in the rate config.
	ErrMissingVehicleType = errors.New("no base price for vehicle type")

	// ErrNoVehicles is returned when pricing a job with no vehicles.
	ErrNoVehicles = errors.New("job has no vehicles")

	// ErrUnknownPriceMode is returned for an unrecognized price mode.
	ErrUnknownPriceMode = errors.New("unknown price mode")

	// ErrUnknownPriceItem is returned when a fixed/customer quote names
	// a catalog item that does not exist.
	ErrUnknownPriceItem = errors.New("unknown price item")

	// ErrInvalidCustomAmount is returned when a custom-mode quote has a
	// non-positive operator amount.
	ErrInvalidCustomAmount = errors.New("invalid custom price amount")

	// ErrUnknownSurcharge is returned when a quote selects a location or
	// service surcharge that is not in the rate config.
	ErrUnknownSurcharge = errors.New("unknown surcharge")
)

// EvidenceGateError is returned when a stage transition is blocked by
// the minimum-evidence gate. It carries the required and actual counts
// so callers can render an actionable message; matching code should use
// errors.Is(err, ErrEvidenceRequired).
type EvidenceGateError struct {
	Phase    domain.EvidencePhase
	Required int
	Actual   int
}

func (e *EvidenceGateError) Error() string {
	return fmt.Sprintf("insufficient %s evidence: %d required, %d present",
		e.Phase, e.Required, e.Actual)
}

func (e *EvidenceGateError) Unwrap() error {
	return ErrEvidenceRequired
}
