package domain

// LegType classifies a leg as the pickup run or a delivery/stop run.
type LegType string

const (
	LegTypePickup   LegType = "PICKUP"
	LegTypeDelivery LegType = "DELIVERY"
)

// LegStatus represents the progress of a single leg.
type LegStatus string

const (
	LegStatusPending    LegStatus = "PENDING"
	LegStatusInProgress LegStatus = "IN_PROGRESS"
	LegStatusCompleted  LegStatus = "COMPLETED"
)

// Leg is one directional segment of a job's route.
type Leg struct {
	ID          string
	JobID       string
	Type        LegType
	Status      LegStatus
	FromAddress string
	ToAddress   string
	DistanceKm  float64
}
