package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"towdispatch/internal/domain"
	"towdispatch/internal/service"
)

// JobHandler handles HTTP requests for jobs.
type JobHandler struct {
	lifecycleService *service.LifecycleService
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(lifecycleService *service.LifecycleService) *JobHandler {
	return &JobHandler{lifecycleService: lifecycleService}
}

// LegResponse is one leg in a job response.
type LegResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	FromAddress string  `json:"from_address"`
	ToAddress   string  `json:"to_address"`
	DistanceKm  float64 `json:"distance_km"`
}

// JobResponse is the HTTP response for job operations.
type JobResponse struct {
	JobID         string        `json:"job_id"`
	CompanyID     string        `json:"company_id"`
	Status        string        `json:"status"`
	Stage         string        `json:"stage"`
	DriverID      string        `json:"driver_id,omitempty"`
	RouteMode     string        `json:"route_mode"`
	Legs          []LegResponse `json:"legs"`
	StatusVersion int           `json:"status_version"`
}

// AdvanceStageRequest is the body for POST /v1/jobs/:id/advance.
type AdvanceStageRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

// AdvanceStageResponse adds the transition to the job payload.
type AdvanceStageResponse struct {
	JobResponse
	FromStage string `json:"from_stage"`
	ToStage   string `json:"to_stage"`
}

// AdvanceStage handles POST /v1/jobs/:id/advance
func (h *JobHandler) AdvanceStage(c *gin.Context) {
	jobID := c.Param("id")

	var req AdvanceStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidActorID)
		return
	}

	result, err := h.lifecycleService.AdvanceStage(c.Request.Context(), service.AdvanceStageRequest{
		JobID:   jobID,
		ActorID: req.ActorID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AdvanceStageResponse{
		JobResponse: toJobResponse(result.Job, result.ToStage),
		FromStage:   string(result.FromStage),
		ToStage:     string(result.ToStage),
	})
}

// GetJob handles GET /v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("id")

	job, stage, err := h.lifecycleService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toJobResponse(job, stage))
}

// HistoryEntryResponse is one audit-trail line.
type HistoryEntryResponse struct {
	ActorID   string `json:"actor_id"`
	Label     string `json:"label"`
	LegID     string `json:"leg_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// GetHistory handles GET /v1/jobs/:id/history
func (h *JobHandler) GetHistory(c *gin.Context) {
	jobID := c.Param("id")

	entries, err := h.lifecycleService.GetHistory(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, HistoryEntryResponse{
			ActorID:   e.ActorID,
			Label:     e.Label,
			LegID:     e.LegID,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	respondJSON(c, http.StatusOK, response)
}

func toJobResponse(job *domain.Job, stage domain.JobStatus) JobResponse {
	legs := make([]LegResponse, 0, len(job.Legs))
	for _, l := range job.Legs {
		legs = append(legs, LegResponse{
			ID:          l.ID,
			Type:        string(l.Type),
			Status:      string(l.Status),
			FromAddress: l.FromAddress,
			ToAddress:   l.ToAddress,
			DistanceKm:  l.DistanceKm,
		})
	}

	return JobResponse{
		JobID:         job.ID,
		CompanyID:     job.CompanyID,
		Status:        string(job.Status),
		Stage:         string(stage),
		DriverID:      job.DriverID,
		RouteMode:     string(job.RouteMode),
		Legs:          legs,
		StatusVersion: job.StatusVersion,
	}
}
