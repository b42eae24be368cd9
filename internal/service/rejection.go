package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"towdispatch/internal/domain"
	"towdispatch/internal/repository"
)

// RejectionService handles driver requests to be released from an
// assigned job and the dispatcher decisions on them.
type RejectionService struct {
	rejectionRepo       repository.RejectionRepository
	jobRepo             repository.JobRepository
	notificationService *NotificationService
}

// NewRejectionService creates a new RejectionService.
func NewRejectionService(
	rejectionRepo repository.RejectionRepository,
	jobRepo repository.JobRepository,
	notificationService *NotificationService,
) *RejectionService {
	return &RejectionService{
		rejectionRepo:       rejectionRepo,
		jobRepo:             jobRepo,
		notificationService: notificationService,
	}
}

// CreateRequestRequest contains the parameters for a driver's request.
type CreateRequestRequest struct {
	JobID     string
	DriverID  string
	CompanyID string
	Reason    domain.RejectionReason
	Note      string
}

// CreateRequest files a pending rejection request. At most one pending
// request may exist per (job, driver) pair; the duplicate check is a
// guarded read before insert, which is not linearizable across
// concurrent callers — acceptable because approvals happen at human
// dispatcher pace.
func (s *RejectionService) CreateRequest(ctx context.Context, req CreateRequestRequest) (*domain.RejectionRequest, error) {
	if req.JobID == "" {
		return nil, ErrInvalidJobID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if !domain.KnownRejectionReason(req.Reason) {
		return nil, ErrUnknownRejectionReason
	}

	// The job must exist; a request against a deleted job is a caller
	// bug worth surfacing as not-found.
	if _, err := s.jobRepo.GetByID(ctx, req.JobID); err != nil {
		return nil, err
	}

	existing, err := s.rejectionRepo.GetPending(ctx, req.JobID, req.DriverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicatePendingRequest
	}

	request := &domain.RejectionRequest{
		ID:        uuid.New().String(),
		JobID:     req.JobID,
		DriverID:  req.DriverID,
		CompanyID: req.CompanyID,
		Reason:    req.Reason,
		Note:      req.Note,
		Status:    domain.RejectionStatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.rejectionRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRejectionRequested(ctx, request)
	}

	return request, nil
}

// ApproveRequest contains the parameters for approving a request.
type ApproveRequest struct {
	RequestID  string
	ReviewerID string
	ReassignTo string // empty returns the job to the unassigned queue
}

// Approve grants the driver's request. With ReassignTo set the job
// moves to the named driver in ASSIGNED; otherwise it returns to the
// unassigned queue in PENDING. The request decision and the job
// mutation commit in one transaction. Re-approving a decided request
// fails with ErrRequestAlreadyDecided.
func (s *RejectionService) Approve(ctx context.Context, req ApproveRequest) (*domain.RejectionRequest, error) {
	if req.RequestID == "" {
		return nil, ErrInvalidRequestID
	}
	if req.ReviewerID == "" {
		return nil, ErrInvalidActorID
	}

	request, err := s.rejectionRepo.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Decided() {
		return nil, ErrRequestAlreadyDecided
	}

	job, err := s.jobRepo.GetByID(ctx, request.JobID)
	if err != nil {
		return nil, err
	}

	jobStatus := domain.JobStatusPending
	if req.ReassignTo != "" {
		jobStatus = domain.JobStatusAssigned
	}

	decision := repository.RejectionDecision{
		RequestID:          req.RequestID,
		Status:             domain.RejectionStatusApproved,
		ReviewedBy:         req.ReviewerID,
		MutateJob:          true,
		JobID:              job.ID,
		JobExpectedVersion: job.StatusVersion,
		JobStatus:          jobStatus,
		JobDriverID:        req.ReassignTo,
		ReassignedTo:       req.ReassignTo,
	}

	if err := s.rejectionRepo.Decide(ctx, decision); err != nil {
		return nil, err
	}

	request.Status = domain.RejectionStatusApproved
	request.ReviewedBy = req.ReviewerID
	request.ReassignedTo = req.ReassignTo
	request.ReviewedAt = time.Now()

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRejectionDecided(ctx, request)
	}

	return request, nil
}

// DenyRequest contains the parameters for denying a request.
type DenyRequest struct {
	RequestID  string
	ReviewerID string
}

// Deny refuses the driver's request. The job is not touched: the
// originally assigned driver still owes the tow.
func (s *RejectionService) Deny(ctx context.Context, req DenyRequest) (*domain.RejectionRequest, error) {
	if req.RequestID == "" {
		return nil, ErrInvalidRequestID
	}
	if req.ReviewerID == "" {
		return nil, ErrInvalidActorID
	}

	request, err := s.rejectionRepo.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Decided() {
		return nil, ErrRequestAlreadyDecided
	}

	decision := repository.RejectionDecision{
		RequestID:  req.RequestID,
		Status:     domain.RejectionStatusRejected,
		ReviewedBy: req.ReviewerID,
	}

	if err := s.rejectionRepo.Decide(ctx, decision); err != nil {
		return nil, err
	}

	request.Status = domain.RejectionStatusRejected
	request.ReviewedBy = req.ReviewerID
	request.ReviewedAt = time.Now()

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRejectionDecided(ctx, request)
	}

	return request, nil
}
