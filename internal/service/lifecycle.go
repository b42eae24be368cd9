package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"towdispatch/internal/domain"
	"towdispatch/internal/repository"
)

// MinEvidencePerPhase is the number of photos required before a job may
// leave the pickup site and before it may be completed.
const MinEvidencePerPhase = 4

// Stage labels written to the audit trail.
var stageLabels = map[domain.JobStatus]string{
	domain.JobStatusAssigned:       "Job assigned",
	domain.JobStatusOnWayPickup:    "Driver on the way to pickup",
	domain.JobStatusArrivedPickup:  "Driver arrived at pickup",
	domain.JobStatusOnWayDropoff:   "Vehicle loaded, on the way to drop-off",
	domain.JobStatusArrivedDropoff: "Driver arrived at drop-off",
	domain.JobStatusCompleted:      "Job completed",
}

// LifecycleService advances towing jobs through their ordered stages.
type LifecycleService struct {
	jobRepo             repository.JobRepository
	evidenceRepo        repository.EvidenceRepository
	notificationService *NotificationService
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(
	jobRepo repository.JobRepository,
	evidenceRepo repository.EvidenceRepository,
	notificationService *NotificationService,
) *LifecycleService {
	return &LifecycleService{
		jobRepo:             jobRepo,
		evidenceRepo:        evidenceRepo,
		notificationService: notificationService,
	}
}

// AdvanceStageRequest contains the parameters for advancing a job.
type AdvanceStageRequest struct {
	JobID   string
	ActorID string
}

// AdvanceStageResponse contains the result of advancing a job.
type AdvanceStageResponse struct {
	Job       *domain.Job
	FromStage domain.JobStatus
	ToStage   domain.JobStatus
}

// AdvanceStage moves a job to the next stage in the fixed order. The
// current stage is re-derived from the persisted job and leg statuses
// on every call; nothing client-held is trusted. On success the job
// status write, the leg mutations and the audit-trail append commit in
// one transaction, and a notification is emitted.
func (s *LifecycleService) AdvanceStage(ctx context.Context, req AdvanceStageRequest) (*AdvanceStageResponse, error) {
	if req.JobID == "" {
		return nil, ErrInvalidJobID
	}
	if req.ActorID == "" {
		return nil, ErrInvalidActorID
	}

	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	current := domain.DeriveStage(job)
	switch current {
	case domain.JobStatusCompleted:
		return nil, ErrJobCompleted
	case domain.JobStatusCancelled:
		return nil, ErrJobCancelled
	}

	if job.DriverID == "" {
		return nil, ErrJobUnassigned
	}
	// An approved reassignment must stop the old driver's device cold.
	if req.ActorID != job.DriverID {
		return nil, ErrNotAssignedDriver
	}

	target := domain.NextStage(current)
	if target == "" {
		return nil, ErrJobCompleted
	}

	legUpdates, legID, err := s.transitionEffects(ctx, job, target)
	if err != nil {
		return nil, err
	}

	transition := repository.StageTransition{
		JobID:           job.ID,
		ExpectedVersion: job.StatusVersion,
		ToStatus:        target,
		LegUpdates:      legUpdates,
		History: domain.HistoryEntry{
			ID:        uuid.New().String(),
			JobID:     job.ID,
			ActorID:   req.ActorID,
			Label:     stageLabels[target],
			LegID:     legID,
			CreatedAt: time.Now(),
		},
	}

	if err := s.jobRepo.ApplyTransition(ctx, transition); err != nil {
		return nil, err
	}

	job.Status = target
	job.StatusVersion++
	applyLegUpdates(job, legUpdates)

	if s.notificationService != nil {
		_ = s.notificationService.NotifyStageAdvanced(ctx, job, current, target)
	}

	return &AdvanceStageResponse{Job: job, FromStage: current, ToStage: target}, nil
}

// transitionEffects returns the leg mutations for a target stage and
// enforces the evidence gates.
func (s *LifecycleService) transitionEffects(ctx context.Context, job *domain.Job, target domain.JobStatus) ([]repository.LegStatusUpdate, string, error) {
	pickup := job.PickupLeg()
	delivery := job.DeliveryLeg()

	switch target {
	case domain.JobStatusOnWayPickup:
		// Status bookkeeping only.
		return nil, "", nil

	case domain.JobStatusArrivedPickup:
		if pickup == nil {
			return nil, "", repository.ErrNotFound
		}
		return []repository.LegStatusUpdate{
			{LegID: pickup.ID, Status: domain.LegStatusInProgress},
		}, pickup.ID, nil

	case domain.JobStatusOnWayDropoff:
		if err := s.checkEvidenceGate(ctx, job.ID, domain.PhasePickup); err != nil {
			return nil, "", err
		}
		if pickup == nil {
			return nil, "", repository.ErrNotFound
		}
		updates := []repository.LegStatusUpdate{
			{LegID: pickup.ID, Status: domain.LegStatusCompleted},
		}
		legID := pickup.ID
		if delivery != nil {
			updates = append(updates, repository.LegStatusUpdate{
				LegID: delivery.ID, Status: domain.LegStatusInProgress,
			})
			legID = delivery.ID
		}
		return updates, legID, nil

	case domain.JobStatusArrivedDropoff:
		if delivery == nil {
			return nil, "", nil
		}
		return []repository.LegStatusUpdate{
			{LegID: delivery.ID, Status: domain.LegStatusCompleted},
		}, delivery.ID, nil

	case domain.JobStatusCompleted:
		if err := s.checkEvidenceGate(ctx, job.ID, domain.PhaseDestination); err != nil {
			return nil, "", err
		}
		return nil, "", nil

	default:
		return nil, "", nil
	}
}

func (s *LifecycleService) checkEvidenceGate(ctx context.Context, jobID string, phase domain.EvidencePhase) error {
	count, err := s.evidenceRepo.CountByPhase(ctx, jobID, phase)
	if err != nil {
		return err
	}
	if count < MinEvidencePerPhase {
		return &EvidenceGateError{Phase: phase, Required: MinEvidencePerPhase, Actual: count}
	}
	return nil
}

func applyLegUpdates(job *domain.Job, updates []repository.LegStatusUpdate) {
	for _, u := range updates {
		for i := range job.Legs {
			if job.Legs[i].ID == u.LegID {
				job.Legs[i].Status = u.Status
			}
		}
	}
}

// GetJob retrieves a job with its stage derived from persisted state.
func (s *LifecycleService) GetJob(ctx context.Context, jobID string) (*domain.Job, domain.JobStatus, error) {
	if jobID == "" {
		return nil, "", ErrInvalidJobID
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	return job, domain.DeriveStage(job), nil
}

// GetHistory returns a job's audit trail, oldest first.
func (s *LifecycleService) GetHistory(ctx context.Context, jobID string) ([]domain.HistoryEntry, error) {
	if jobID == "" {
		return nil, ErrInvalidJobID
	}
	return s.jobRepo.ListHistory(ctx, jobID)
}
