package domain

import "time"

// EvidencePhase classifies a photo as taken at the pickup site or at
// the destination. The phase is derived from the job's current stage at
// submission time, never chosen freely by the client.
type EvidencePhase string

const (
	PhasePickup      EvidencePhase = "PICKUP"
	PhaseDestination EvidencePhase = "DESTINATION"
)

// Evidence is a photographic record tied to a job and a phase. Evidence
// rows are append-only; individual items may be deleted but never
// updated.
type Evidence struct {
	ID        string
	JobID     string
	Phase     EvidencePhase
	BlobRef   string
	VehicleID string // optional
	CreatedAt time.Time
}
