package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"towdispatch/internal/service"
)

// EvidenceHandler handles HTTP requests for evidence.
type EvidenceHandler struct {
	evidenceService *service.EvidenceService
}

// NewEvidenceHandler creates a new EvidenceHandler.
func NewEvidenceHandler(evidenceService *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{evidenceService: evidenceService}
}

// EvidenceItemRequest is one photo in a batch submission.
type EvidenceItemRequest struct {
	Data      string `json:"data" binding:"required"` // base64-encoded image
	VehicleID string `json:"vehicle_id"`
}

// SubmitBatchRequest is the body for POST /v1/jobs/:id/evidence.
type SubmitBatchRequest struct {
	Items []EvidenceItemRequest `json:"items" binding:"required"`
}

// EvidenceResponse is one persisted evidence item.
type EvidenceResponse struct {
	ID        string `json:"id"`
	JobID     string `json:"job_id"`
	Phase     string `json:"phase"`
	BlobRef   string `json:"blob_ref"`
	VehicleID string `json:"vehicle_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// SubmitBatchResponse is the response for a committed batch.
type SubmitBatchResponse struct {
	Phase string             `json:"phase"`
	Items []EvidenceResponse `json:"items"`
}

// SubmitBatch handles POST /v1/jobs/:id/evidence
func (h *EvidenceHandler) SubmitBatch(c *gin.Context) {
	jobID := c.Param("id")

	var req SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrEmptyEvidenceBatch)
		return
	}

	items := make([]service.EvidenceItem, 0, len(req.Items))
	for _, item := range req.Items {
		data, err := base64.StdEncoding.DecodeString(item.Data)
		if err != nil {
			respondError(c, service.ErrEmptyEvidenceBatch)
			return
		}
		items = append(items, service.EvidenceItem{Data: data, VehicleID: item.VehicleID})
	}

	result, err := h.evidenceService.SubmitBatch(c.Request.Context(), service.SubmitBatchRequest{
		JobID: jobID,
		Items: items,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := SubmitBatchResponse{Phase: string(result.Phase)}
	for _, e := range result.Items {
		response.Items = append(response.Items, EvidenceResponse{
			ID:        e.ID,
			JobID:     e.JobID,
			Phase:     string(e.Phase),
			BlobRef:   e.BlobRef,
			VehicleID: e.VehicleID,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	respondJSON(c, http.StatusCreated, response)
}

// List handles GET /v1/jobs/:id/evidence
func (h *EvidenceHandler) List(c *gin.Context) {
	jobID := c.Param("id")

	items, err := h.evidenceService.List(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]EvidenceResponse, 0, len(items))
	for _, e := range items {
		response = append(response, EvidenceResponse{
			ID:        e.ID,
			JobID:     e.JobID,
			Phase:     string(e.Phase),
			BlobRef:   e.BlobRef,
			VehicleID: e.VehicleID,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// Delete handles DELETE /v1/evidence/:id
func (h *EvidenceHandler) Delete(c *gin.Context) {
	evidenceID := c.Param("id")

	if err := h.evidenceService.Delete(c.Request.Context(), evidenceID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
