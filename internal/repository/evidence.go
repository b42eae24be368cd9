package repository

import (
	"context"

	"towdispatch/internal/domain"
)

// EvidenceRepository defines the persistence operations for evidence.
type EvidenceRepository interface {
	// AppendBatch persists a batch of evidence rows atomically: either
	// every item is inserted or none is.
	AppendBatch(ctx context.Context, items []domain.Evidence) error

	// ListByJob retrieves all evidence for a job, oldest first.
	ListByJob(ctx context.Context, jobID string) ([]domain.Evidence, error)

	// CountByPhase counts a job's evidence in the given phase.
	CountByPhase(ctx context.Context, jobID string, phase domain.EvidencePhase) (int, error)

	// GetByID retrieves a single evidence item.
	GetByID(ctx context.Context, id string) (*domain.Evidence, error)

	// Delete removes a single evidence item.
	Delete(ctx context.Context, id string) error
}
