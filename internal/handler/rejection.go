package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"towdispatch/internal/domain"
	"towdispatch/internal/service"
)

// RejectionHandler handles HTTP requests for rejection requests.
type RejectionHandler struct {
	rejectionService *service.RejectionService
}

// NewRejectionHandler creates a new RejectionHandler.
func NewRejectionHandler(rejectionService *service.RejectionService) *RejectionHandler {
	return &RejectionHandler{rejectionService: rejectionService}
}

// CreateRejectionRequest is the body for POST /v1/rejections.
type CreateRejectionRequest struct {
	JobID     string `json:"job_id" binding:"required"`
	DriverID  string `json:"driver_id" binding:"required"`
	CompanyID string `json:"company_id"`
	Reason    string `json:"reason" binding:"required"`
	Note      string `json:"note"`
}

// RejectionResponse is the HTTP response for rejection operations.
type RejectionResponse struct {
	RequestID    string `json:"request_id"`
	JobID        string `json:"job_id"`
	DriverID     string `json:"driver_id"`
	Reason       string `json:"reason"`
	Note         string `json:"note,omitempty"`
	Status       string `json:"status"`
	ReviewedBy   string `json:"reviewed_by,omitempty"`
	ReassignedTo string `json:"reassigned_to,omitempty"`
}

// Create handles POST /v1/rejections
func (h *RejectionHandler) Create(c *gin.Context) {
	var req CreateRejectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidJobID)
		return
	}

	request, err := h.rejectionService.CreateRequest(c.Request.Context(), service.CreateRequestRequest{
		JobID:     req.JobID,
		DriverID:  req.DriverID,
		CompanyID: req.CompanyID,
		Reason:    domain.RejectionReason(req.Reason),
		Note:      req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRejectionResponse(request))
}

// DecideRequest is the body for approve/deny calls.
type DecideRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"`
	ReassignTo string `json:"reassign_to"`
}

// Approve handles POST /v1/rejections/:id/approve
func (h *RejectionHandler) Approve(c *gin.Context) {
	requestID := c.Param("id")

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidActorID)
		return
	}

	request, err := h.rejectionService.Approve(c.Request.Context(), service.ApproveRequest{
		RequestID:  requestID,
		ReviewerID: req.ReviewerID,
		ReassignTo: req.ReassignTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRejectionResponse(request))
}

// Deny handles POST /v1/rejections/:id/deny
func (h *RejectionHandler) Deny(c *gin.Context) {
	requestID := c.Param("id")

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidActorID)
		return
	}

	request, err := h.rejectionService.Deny(c.Request.Context(), service.DenyRequest{
		RequestID:  requestID,
		ReviewerID: req.ReviewerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRejectionResponse(request))
}

func toRejectionResponse(r *domain.RejectionRequest) RejectionResponse {
	return RejectionResponse{
		RequestID:    r.ID,
		JobID:        r.JobID,
		DriverID:     r.DriverID,
		Reason:       string(r.Reason),
		Note:         r.Note,
		Status:       string(r.Status),
		ReviewedBy:   r.ReviewedBy,
		ReassignedTo: r.ReassignedTo,
	}
}
