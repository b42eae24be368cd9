package tests

import (
	"context"
	"errors"
	"testing"

	"towdispatch/internal/domain"
	"towdispatch/internal/repository"
	"towdispatch/internal/service"
)

// ──────────────────────────────────────────────
// 1. STAGE TRANSITION ORDER
// ──────────────────────────────────────────────

func newAssignedJob(id, driverID string) *domain.Job {
	return &domain.Job{
		ID:        id,
		CompanyID: "company-1",
		Status:    domain.JobStatusAssigned,
		DriverID:  driverID,
		RouteMode: domain.RouteModeSingle,
		Legs: []domain.Leg{
			{ID: id + "-pickup", JobID: id, Type: domain.LegTypePickup, Status: domain.LegStatusPending},
			{ID: id + "-delivery", JobID: id, Type: domain.LegTypeDelivery, Status: domain.LegStatusPending},
		},
		Vehicles: []domain.Vehicle{
			{ID: id + "-v1", JobID: id, Type: "PRIVATE", Plate: "ABC-123"},
		},
	}
}

func TestAdvanceStage_MovesOneStageForward(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	evidenceRepo := NewMockEvidenceRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	lifecycle := service.NewLifecycleService(jobRepo, evidenceRepo, nil)

	resp, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.FromStage != domain.JobStatusAssigned {
		t.Errorf("expected from stage ASSIGNED, got %s", resp.FromStage)
	}
	if resp.ToStage != domain.JobStatusOnWayPickup {
		t.Errorf("expected to stage ON_WAY_PICKUP, got %s", resp.ToStage)
	}

	stored := jobRepo.GetJob("job-1")
	if stored.Status != domain.JobStatusOnWayPickup {
		t.Errorf("expected stored status ON_WAY_PICKUP, got %s", stored.Status)
	}
	if stored.StatusVersion != 1 {
		t.Errorf("expected status version 1, got %d", stored.StatusVersion)
	}
	if jobRepo.HistoryLen("job-1") != 1 {
		t.Errorf("expected 1 history entry, got %d", jobRepo.HistoryLen("job-1"))
	}
}

func TestAdvanceStage_FullLifecycle(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	evidenceRepo := NewMockEvidenceRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	// Both evidence gates satisfied up front.
	evidenceRepo.AddEvidence("job-1", domain.PhasePickup, 4)
	evidenceRepo.AddEvidence("job-1", domain.PhaseDestination, 4)

	lifecycle := service.NewLifecycleService(jobRepo, evidenceRepo, nil)

	want := []domain.JobStatus{
		domain.JobStatusOnWayPickup,
		domain.JobStatusArrivedPickup,
		domain.JobStatusOnWayDropoff,
		domain.JobStatusArrivedDropoff,
		domain.JobStatusCompleted,
	}

	for _, target := range want {
		resp, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
			JobID:   "job-1",
			ActorID: "driver-1",
		})
		if err != nil {
			t.Fatalf("advance to %s: unexpected error: %v", target, err)
		}
		if resp.ToStage != target {
			t.Fatalf("expected to stage %s, got %s", target, resp.ToStage)
		}
	}

	stored := jobRepo.GetJob("job-1")
	if stored.Status != domain.JobStatusCompleted {
		t.Errorf("expected final status COMPLETED, got %s", stored.Status)
	}
	if stored.StatusVersion != len(want) {
		t.Errorf("expected status version %d, got %d", len(want), stored.StatusVersion)
	}
	if jobRepo.HistoryLen("job-1") != len(want) {
		t.Errorf("expected %d history entries, got %d", len(want), jobRepo.HistoryLen("job-1"))
	}

	// Legs ended in the right place.
	if got := stored.PickupLeg().Status; got != domain.LegStatusCompleted {
		t.Errorf("expected pickup leg COMPLETED, got %s", got)
	}
	if got := stored.DeliveryLeg().Status; got != domain.LegStatusCompleted {
		t.Errorf("expected delivery leg COMPLETED, got %s", got)
	}

	// A completed job cannot advance further.
	_, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})
	if !errors.Is(err, service.ErrJobCompleted) {
		t.Errorf("expected ErrJobCompleted, got %v", err)
	}
}

func TestAdvanceStage_LegStatusesFollowStages(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	evidenceRepo := NewMockEvidenceRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))
	evidenceRepo.AddEvidence("job-1", domain.PhasePickup, 4)

	lifecycle := service.NewLifecycleService(jobRepo, evidenceRepo, nil)
	ctx := context.Background()
	req := service.AdvanceStageRequest{JobID: "job-1", ActorID: "driver-1"}

	// ASSIGNED -> ON_WAY_PICKUP: legs untouched.
	if _, err := lifecycle.AdvanceStage(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jobRepo.GetJob("job-1").PickupLeg().Status; got != domain.LegStatusPending {
		t.Errorf("expected pickup leg PENDING, got %s", got)
	}

	// ON_WAY_PICKUP -> ARRIVED_PICKUP: pickup leg starts.
	if _, err := lifecycle.AdvanceStage(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jobRepo.GetJob("job-1").PickupLeg().Status; got != domain.LegStatusInProgress {
		t.Errorf("expected pickup leg IN_PROGRESS, got %s", got)
	}

	// ARRIVED_PICKUP -> ON_WAY_DROPOFF: pickup completes, delivery starts.
	if _, err := lifecycle.AdvanceStage(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := jobRepo.GetJob("job-1")
	if got := stored.PickupLeg().Status; got != domain.LegStatusCompleted {
		t.Errorf("expected pickup leg COMPLETED, got %s", got)
	}
	if got := stored.DeliveryLeg().Status; got != domain.LegStatusInProgress {
		t.Errorf("expected delivery leg IN_PROGRESS, got %s", got)
	}
}

// ──────────────────────────────────────────────
// 2. EVIDENCE GATES
// ──────────────────────────────────────────────

func TestAdvanceStage_PickupGateBlocksBelowMinimum(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	evidenceRepo := NewMockEvidenceRepository()

	job := newAssignedJob("job-1", "driver-1")
	job.Status = domain.JobStatusArrivedPickup
	job.Legs[0].Status = domain.LegStatusInProgress
	jobRepo.AddJob(job)

	evidenceRepo.AddEvidence("job-1", domain.PhasePickup, 3)

	lifecycle := service.NewLifecycleService(jobRepo, evidenceRepo, nil)

	_, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})
	if !errors.Is(err, service.ErrEvidenceRequired) {
		t.Fatalf("expected ErrEvidenceRequired, got %v", err)
	}

	var gateErr *service.EvidenceGateError
	if !errors.As(err, &gateErr) {
		t.Fatalf("expected EvidenceGateError, got %T", err)
	}
	if gateErr.Phase != domain.PhasePickup {
		t.Errorf("expected phase PICKUP, got %s", gateErr.Phase)
	}
	if gateErr.Required != 4 || gateErr.Actual != 3 {
		t.Errorf("expected required=4 actual=3, got required=%d actual=%d", gateErr.Required, gateErr.Actual)
	}

	// Nothing moved.
	stored := jobRepo.GetJob("job-1")
	if stored.Status != domain.JobStatusArrivedPickup {
		t.Errorf("expected status unchanged, got %s", stored.Status)
	}
	if stored.StatusVersion != 0 {
		t.Errorf("expected status version unchanged, got %d", stored.StatusVersion)
	}
	if jobRepo.HistoryLen("job-1") != 0 {
		t.Errorf("expected no history entries, got %d", jobRepo.HistoryLen("job-1"))
	}

	// The fourth photo opens the gate.
	evidenceRepo.AddEvidence("job-1", domain.PhaseDestination, 1) // wrong phase, must not count
	_, err = lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})
	if !errors.Is(err, service.ErrEvidenceRequired) {
		t.Fatalf("expected destination evidence not to satisfy the pickup gate, got %v", err)
	}

	evidenceRepo.AddEvidence("job-1", domain.PhasePickup, 1)
	resp, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})
	if err != nil {
		t.Fatalf("unexpected error after fourth photo: %v", err)
	}
	if resp.ToStage != domain.JobStatusOnWayDropoff {
		t.Errorf("expected to stage ON_WAY_DROPOFF, got %s", resp.ToStage)
	}
}

func TestAdvanceStage_DestinationGateBlocksCompletion(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	evidenceRepo := NewMockEvidenceRepository()

	job := newAssignedJob("job-1", "driver-1")
	job.Status = domain.JobStatusArrivedDropoff
	job.Legs[0].Status = domain.LegStatusCompleted
	job.Legs[1].Status = domain.LegStatusCompleted
	jobRepo.AddJob(job)

	evidenceRepo.AddEvidence("job-1", domain.PhasePickup, 4)
	evidenceRepo.AddEvidence("job-1", domain.PhaseDestination, 3)

	lifecycle := service.NewLifecycleService(jobRepo, evidenceRepo, nil)

	_, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})

	var gateErr *service.EvidenceGateError
	if !errors.As(err, &gateErr) {
		t.Fatalf("expected EvidenceGateError, got %v", err)
	}
	if gateErr.Phase != domain.PhaseDestination {
		t.Errorf("expected phase DESTINATION, got %s", gateErr.Phase)
	}

	evidenceRepo.AddEvidence("job-1", domain.PhaseDestination, 1)
	resp, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ToStage != domain.JobStatusCompleted {
		t.Errorf("expected to stage COMPLETED, got %s", resp.ToStage)
	}
}

// ──────────────────────────────────────────────
// 3. GUARDS AND CONCURRENCY
// ──────────────────────────────────────────────

func TestAdvanceStage_RejectsWrongDriver(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))

	lifecycle := service.NewLifecycleService(jobRepo, NewMockEvidenceRepository(), nil)

	_, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-2",
	})
	if !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Fatalf("expected ErrNotAssignedDriver, got %v", err)
	}
	if jobRepo.GetJob("job-1").Status != domain.JobStatusAssigned {
		t.Error("expected job untouched by rejected advance")
	}
}

func TestAdvanceStage_RejectsUnassignedJob(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	job := newAssignedJob("job-1", "")
	job.Status = domain.JobStatusPending
	jobRepo.AddJob(job)

	lifecycle := service.NewLifecycleService(jobRepo, NewMockEvidenceRepository(), nil)

	_, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})
	if !errors.Is(err, service.ErrJobUnassigned) {
		t.Fatalf("expected ErrJobUnassigned, got %v", err)
	}
}

func TestAdvanceStage_TerminalStatuses(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		status  domain.JobStatus
		wantErr error
	}{
		{name: "completed job", status: domain.JobStatusCompleted, wantErr: service.ErrJobCompleted},
		{name: "cancelled job", status: domain.JobStatusCancelled, wantErr: service.ErrJobCancelled},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			jobRepo := NewMockJobRepository()
			job := newAssignedJob("job-1", "driver-1")
			job.Status = tc.status
			jobRepo.AddJob(job)

			lifecycle := service.NewLifecycleService(jobRepo, NewMockEvidenceRepository(), nil)

			_, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
				JobID:   "job-1",
				ActorID: "driver-1",
			})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAdvanceStage_PropagatesStaleVersion(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))
	jobRepo.ApplyTransitionError = repository.ErrStaleVersion

	lifecycle := service.NewLifecycleService(jobRepo, NewMockEvidenceRepository(), nil)

	_, err := lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})
	if !errors.Is(err, repository.ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 4. STAGE DERIVATION
// ──────────────────────────────────────────────

func TestDeriveStage_LegsWinOverStaleStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		status         domain.JobStatus
		pickupStatus   domain.LegStatus
		deliveryStatus domain.LegStatus
		want           domain.JobStatus
	}{
		{
			name:           "status matches legs",
			status:         domain.JobStatusAssigned,
			pickupStatus:   domain.LegStatusPending,
			deliveryStatus: domain.LegStatusPending,
			want:           domain.JobStatusAssigned,
		},
		{
			name:           "pickup leg in progress pulls stage forward",
			status:         domain.JobStatusAssigned,
			pickupStatus:   domain.LegStatusInProgress,
			deliveryStatus: domain.LegStatusPending,
			want:           domain.JobStatusArrivedPickup,
		},
		{
			name:           "pickup leg completed pulls stage forward",
			status:         domain.JobStatusArrivedPickup,
			pickupStatus:   domain.LegStatusCompleted,
			deliveryStatus: domain.LegStatusPending,
			want:           domain.JobStatusOnWayDropoff,
		},
		{
			name:           "delivery leg completed pulls stage forward",
			status:         domain.JobStatusOnWayDropoff,
			pickupStatus:   domain.LegStatusCompleted,
			deliveryStatus: domain.LegStatusCompleted,
			want:           domain.JobStatusArrivedDropoff,
		},
		{
			name:           "status ahead of legs is kept",
			status:         domain.JobStatusOnWayPickup,
			pickupStatus:   domain.LegStatusPending,
			deliveryStatus: domain.LegStatusPending,
			want:           domain.JobStatusOnWayPickup,
		},
		{
			name:           "cancelled always wins",
			status:         domain.JobStatusCancelled,
			pickupStatus:   domain.LegStatusCompleted,
			deliveryStatus: domain.LegStatusCompleted,
			want:           domain.JobStatusCancelled,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			job := newAssignedJob("job-1", "driver-1")
			job.Status = tc.status
			job.Legs[0].Status = tc.pickupStatus
			job.Legs[1].Status = tc.deliveryStatus

			if got := domain.DeriveStage(job); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestGetJob_ReturnsDerivedStage(t *testing.T) {
	t.Parallel()

	jobRepo := NewMockJobRepository()
	job := newAssignedJob("job-1", "driver-1")
	job.Status = domain.JobStatusAssigned
	job.Legs[0].Status = domain.LegStatusInProgress
	jobRepo.AddJob(job)

	lifecycle := service.NewLifecycleService(jobRepo, NewMockEvidenceRepository(), nil)

	_, stage, err := lifecycle.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage != domain.JobStatusArrivedPickup {
		t.Errorf("expected derived stage ARRIVED_PICKUP, got %s", stage)
	}
}
