package domain

import "time"

// JobStatus represents the current stage of a towing job.
type JobStatus string

const (
	JobStatusPending        JobStatus = "PENDING"
	JobStatusAssigned       JobStatus = "ASSIGNED"
	JobStatusOnWayPickup    JobStatus = "ON_WAY_PICKUP"
	JobStatusArrivedPickup  JobStatus = "ARRIVED_PICKUP"
	JobStatusOnWayDropoff   JobStatus = "ON_WAY_DROPOFF"
	JobStatusArrivedDropoff JobStatus = "ARRIVED_DROPOFF"
	JobStatusCompleted      JobStatus = "COMPLETED"
	JobStatusCancelled      JobStatus = "CANCELLED"
)

// RouteMode determines how a job's legs are interpreted for pricing.
type RouteMode string

const (
	RouteModeSingle    RouteMode = "SINGLE"
	RouteModeMultiStop RouteMode = "MULTI_STOP"
)

// Job represents a towing job in the system.
type Job struct {
	ID          string
	CompanyID   string
	Status      JobStatus
	DriverID    string // empty when unassigned
	RouteMode   RouteMode
	Legs        []Leg // ordered: pickup first, then delivery/stops
	Vehicles    []Vehicle
	ScheduledAt time.Time
	Notes       string
	FinalPrice  int64
	PriceMode   PriceMode

	// StatusVersion increments on every status write. Stage transitions
	// and rejection approvals check it so a stale write is rejected
	// instead of silently overwriting a concurrent one.
	StatusVersion int
}

// PickupLeg returns the job's pickup leg, or nil if the job has none.
func (j *Job) PickupLeg() *Leg {
	for i := range j.Legs {
		if j.Legs[i].Type == LegTypePickup {
			return &j.Legs[i]
		}
	}
	return nil
}

// DeliveryLeg returns the first delivery leg, or nil if the job has none.
func (j *Job) DeliveryLeg() *Leg {
	for i := range j.Legs {
		if j.Legs[i].Type == LegTypeDelivery {
			return &j.Legs[i]
		}
	}
	return nil
}

// HistoryEntry is one line of a job's audit trail, appended on every
// successful stage transition.
type HistoryEntry struct {
	ID        string
	JobID     string
	ActorID   string
	Label     string
	LegID     string // optional
	CreatedAt time.Time
}
