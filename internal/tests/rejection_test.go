package tests

import (
	"context"
	"errors"
	"testing"

	"towdispatch/internal/domain"
	"towdispatch/internal/repository"
	"towdispatch/internal/service"
)

func newRejectionFixture() (*MockJobRepository, *MockRejectionRepository, *service.RejectionService) {
	jobRepo := NewMockJobRepository()
	jobRepo.AddJob(newAssignedJob("job-1", "driver-1"))
	rejectionRepo := NewMockRejectionRepository(jobRepo)
	return jobRepo, rejectionRepo, service.NewRejectionService(rejectionRepo, jobRepo, nil)
}

// ──────────────────────────────────────────────
// 1. REQUEST CREATION AND UNIQUENESS
// ──────────────────────────────────────────────

func TestCreateRequest_FilesPendingRequest(t *testing.T) {
	t.Parallel()

	_, rejectionRepo, rejection := newRejectionFixture()

	req, err := rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-1",
		Reason:   domain.ReasonVehicleBreakdown,
		Note:     "flatbed hydraulics are dead",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Status != domain.RejectionStatusPending {
		t.Errorf("expected status PENDING, got %s", req.Status)
	}
	stored := rejectionRepo.GetRequest(req.ID)
	if stored == nil {
		t.Fatal("expected request to be persisted")
	}
	if stored.Reason != domain.ReasonVehicleBreakdown {
		t.Errorf("expected reason preserved, got %s", stored.Reason)
	}
}

func TestCreateRequest_RejectsDuplicatePending(t *testing.T) {
	t.Parallel()

	_, _, rejection := newRejectionFixture()

	first := service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-1",
		Reason:   domain.ReasonTooFar,
	}
	if _, err := rejection.CreateRequest(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := rejection.CreateRequest(context.Background(), first)
	if !errors.Is(err, service.ErrDuplicatePendingRequest) {
		t.Fatalf("expected ErrDuplicatePendingRequest, got %v", err)
	}

	// A different driver on the same job is not a duplicate.
	_, err = rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-2",
		Reason:   domain.ReasonShiftEnded,
	})
	if err != nil {
		t.Errorf("expected other driver's request to be accepted, got %v", err)
	}
}

func TestCreateRequest_AllowedAgainAfterDecision(t *testing.T) {
	t.Parallel()

	_, _, rejection := newRejectionFixture()

	req, err := rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-1",
		Reason:   domain.ReasonPersonal,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := rejection.Deny(context.Background(), service.DenyRequest{
		RequestID:  req.ID,
		ReviewerID: "dispatcher-1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The decided request no longer blocks a new one.
	_, err = rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-1",
		Reason:   domain.ReasonOther,
		Note:     "second attempt",
	})
	if err != nil {
		t.Fatalf("expected new request after decision, got %v", err)
	}
}

func TestCreateRequest_RejectsUnknownReason(t *testing.T) {
	t.Parallel()

	_, _, rejection := newRejectionFixture()

	_, err := rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-1",
		Reason:   domain.RejectionReason("DONT_FEEL_LIKE_IT"),
	})
	if !errors.Is(err, service.ErrUnknownRejectionReason) {
		t.Fatalf("expected ErrUnknownRejectionReason, got %v", err)
	}
}

func TestCreateRequest_RejectsMissingJob(t *testing.T) {
	t.Parallel()

	_, _, rejection := newRejectionFixture()

	_, err := rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-404",
		DriverID: "driver-1",
		Reason:   domain.ReasonTooFar,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 2. APPROVAL OUTCOMES
// ──────────────────────────────────────────────

func TestApprove_ReassignsJobToNamedDriver(t *testing.T) {
	t.Parallel()

	jobRepo, _, rejection := newRejectionFixture()

	req, err := rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-1",
		Reason:   domain.ReasonVehicleBreakdown,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decided, err := rejection.Approve(context.Background(), service.ApproveRequest{
		RequestID:  req.ID,
		ReviewerID: "dispatcher-1",
		ReassignTo: "driver-2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decided.Status != domain.RejectionStatusApproved {
		t.Errorf("expected status APPROVED, got %s", decided.Status)
	}
	if decided.ReassignedTo != "driver-2" {
		t.Errorf("expected reassigned to driver-2, got %q", decided.ReassignedTo)
	}

	job := jobRepo.GetJob("job-1")
	if job.DriverID != "driver-2" {
		t.Errorf("expected job driver driver-2, got %q", job.DriverID)
	}
	if job.Status != domain.JobStatusAssigned {
		t.Errorf("expected job status ASSIGNED, got %s", job.Status)
	}
	if job.StatusVersion != 1 {
		t.Errorf("expected status version bumped to 1, got %d", job.StatusVersion)
	}

	// The released driver's device can no longer advance the job.
	lifecycle := service.NewLifecycleService(jobRepo, NewMockEvidenceRepository(), nil)
	_, err = lifecycle.AdvanceStage(context.Background(), service.AdvanceStageRequest{
		JobID:   "job-1",
		ActorID: "driver-1",
	})
	if !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver for released driver, got %v", err)
	}
}

func TestApprove_WithoutReassignReturnsJobToQueue(t *testing.T) {
	t.Parallel()

	jobRepo, _, rejection := newRejectionFixture()

	req, err := rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-1",
		Reason:   domain.ReasonShiftEnded,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := rejection.Approve(context.Background(), service.ApproveRequest{
		RequestID:  req.ID,
		ReviewerID: "dispatcher-1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job := jobRepo.GetJob("job-1")
	if job.DriverID != "" {
		t.Errorf("expected job unassigned, got driver %q", job.DriverID)
	}
	if job.Status != domain.JobStatusPending {
		t.Errorf("expected job status PENDING, got %s", job.Status)
	}
}

// ──────────────────────────────────────────────
// 3. DENIAL AND REPEAT DECISIONS
// ──────────────────────────────────────────────

func TestDeny_LeavesJobUntouched(t *testing.T) {
	t.Parallel()

	jobRepo, rejectionRepo, rejection := newRejectionFixture()

	req, err := rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-1",
		Reason:   domain.ReasonPersonal,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decided, err := rejection.Deny(context.Background(), service.DenyRequest{
		RequestID:  req.ID,
		ReviewerID: "dispatcher-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decided.Status != domain.RejectionStatusRejected {
		t.Errorf("expected status REJECTED, got %s", decided.Status)
	}
	if got := rejectionRepo.GetRequest(req.ID).ReviewedBy; got != "dispatcher-1" {
		t.Errorf("expected reviewer recorded, got %q", got)
	}

	job := jobRepo.GetJob("job-1")
	if job.DriverID != "driver-1" {
		t.Errorf("expected driver unchanged, got %q", job.DriverID)
	}
	if job.Status != domain.JobStatusAssigned {
		t.Errorf("expected status unchanged, got %s", job.Status)
	}
	if job.StatusVersion != 0 {
		t.Errorf("expected status version unchanged, got %d", job.StatusVersion)
	}
}

func TestDecide_RejectsAlreadyDecidedRequest(t *testing.T) {
	t.Parallel()

	_, _, rejection := newRejectionFixture()

	req, err := rejection.CreateRequest(context.Background(), service.CreateRequestRequest{
		JobID:    "job-1",
		DriverID: "driver-1",
		Reason:   domain.ReasonTooFar,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := rejection.Approve(context.Background(), service.ApproveRequest{
		RequestID:  req.ID,
		ReviewerID: "dispatcher-1",
		ReassignTo: "driver-2",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = rejection.Approve(context.Background(), service.ApproveRequest{
		RequestID:  req.ID,
		ReviewerID: "dispatcher-2",
		ReassignTo: "driver-3",
	})
	if !errors.Is(err, service.ErrRequestAlreadyDecided) {
		t.Errorf("expected ErrRequestAlreadyDecided on second approve, got %v", err)
	}

	_, err = rejection.Deny(context.Background(), service.DenyRequest{
		RequestID:  req.ID,
		ReviewerID: "dispatcher-2",
	})
	if !errors.Is(err, service.ErrRequestAlreadyDecided) {
		t.Errorf("expected ErrRequestAlreadyDecided on deny after approve, got %v", err)
	}
}
