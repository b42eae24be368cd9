package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"towdispatch/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationStageAdvanced      NotificationType = "STAGE_ADVANCED"
	NotificationRejectionRequested NotificationType = "REJECTION_REQUESTED"
	NotificationRejectionApproved  NotificationType = "REJECTION_APPROVED"
	NotificationRejectionDenied    NotificationType = "REJECTION_DENIED"
)

// Notification represents a notification to be sent. Delivery is
// fire-and-forget: the dispatch core never waits on it and never fails
// an operation over it.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService emits events toward the delivery channel (push,
// SMS, dispatcher console). Delivery mechanics live outside the core.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyStageAdvanced announces a successful stage transition.
func (s *NotificationService) NotifyStageAdvanced(ctx context.Context, job *domain.Job, from, to domain.JobStatus) error {
	notification := Notification{
		Type:        NotificationStageAdvanced,
		RecipientID: job.CompanyID,
		Title:       "Job Progress",
		Message:     fmt.Sprintf("Job %s advanced to %s", job.ID, to),
		Data: map[string]interface{}{
			"job_id":     job.ID,
			"driver_id":  job.DriverID,
			"from_stage": string(from),
			"to_stage":   string(to),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRejectionRequested alerts dispatch that a driver asked to be
// released from a job.
func (s *NotificationService) NotifyRejectionRequested(ctx context.Context, req *domain.RejectionRequest) error {
	notification := Notification{
		Type:        NotificationRejectionRequested,
		RecipientID: req.CompanyID,
		Title:       "Rejection Requested",
		Message:     fmt.Sprintf("Driver %s asked to be released from job %s (%s)", req.DriverID, req.JobID, req.Reason),
		Data: map[string]interface{}{
			"request_id": req.ID,
			"job_id":     req.JobID,
			"driver_id":  req.DriverID,
			"reason":     string(req.Reason),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRejectionDecided informs the requesting driver of the decision.
func (s *NotificationService) NotifyRejectionDecided(ctx context.Context, req *domain.RejectionRequest) error {
	notificationType := NotificationRejectionDenied
	title := "Request Denied"
	message := fmt.Sprintf("Your release request for job %s was denied; the job is still yours", req.JobID)

	if req.Status == domain.RejectionStatusApproved {
		notificationType = NotificationRejectionApproved
		title = "Request Approved"
		message = fmt.Sprintf("You have been released from job %s", req.JobID)
	}

	notification := Notification{
		Type:        notificationType,
		RecipientID: req.DriverID,
		Title:       title,
		Message:     message,
		Data: map[string]interface{}{
			"request_id":    req.ID,
			"job_id":        req.JobID,
			"reviewed_by":   req.ReviewedBy,
			"reassigned_to": req.ReassignedTo,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (log-backed implementation; real
// delivery happens downstream of the emitted event).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
