package domain

// StageOrder is the strict forward order of driver-visible job stages.
// CANCELLED is not part of the order; it is reachable from any
// non-terminal stage by dispatcher action only.
var StageOrder = []JobStatus{
	JobStatusPending,
	JobStatusAssigned,
	JobStatusOnWayPickup,
	JobStatusArrivedPickup,
	JobStatusOnWayDropoff,
	JobStatusArrivedDropoff,
	JobStatusCompleted,
}

// StageIndex returns the position of a status in StageOrder, or -1 for
// CANCELLED and unknown statuses.
func StageIndex(s JobStatus) int {
	for i, st := range StageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// NextStage returns the stage following s, or "" when s is terminal or
// not part of the order.
func NextStage(s JobStatus) JobStatus {
	i := StageIndex(s)
	if i < 0 || i == len(StageOrder)-1 {
		return ""
	}
	return StageOrder[i+1]
}

// Terminal reports whether no further stage transitions are possible.
func Terminal(s JobStatus) bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// DeriveStage reconstructs the authoritative current stage from the
// persisted job and leg statuses. Client-held stage indexes are never
// trusted; if the leg statuses have run ahead of Job.Status (a partially
// applied write by an older client), the legs win.
func DeriveStage(job *Job) JobStatus {
	if job.Status == JobStatusCancelled {
		return JobStatusCancelled
	}

	stage := job.Status
	if StageIndex(stage) < 0 {
		stage = JobStatusPending
	}

	pickup := job.PickupLeg()
	delivery := job.DeliveryLeg()

	// Floor implied by leg progress.
	var floor JobStatus
	switch {
	case delivery != nil && delivery.Status == LegStatusCompleted:
		floor = JobStatusArrivedDropoff
	case delivery != nil && delivery.Status == LegStatusInProgress:
		floor = JobStatusOnWayDropoff
	case pickup != nil && pickup.Status == LegStatusCompleted:
		floor = JobStatusOnWayDropoff
	case pickup != nil && pickup.Status == LegStatusInProgress:
		floor = JobStatusArrivedPickup
	default:
		return stage
	}

	if StageIndex(floor) > StageIndex(stage) {
		return floor
	}
	return stage
}

// PhaseForStage maps the current stage to the evidence phase photos
// submitted at that stage belong to: everything through ARRIVED_PICKUP
// is pickup-site evidence, everything after is destination evidence.
func PhaseForStage(s JobStatus) EvidencePhase {
	if i := StageIndex(s); i >= 0 && i <= StageIndex(JobStatusArrivedPickup) {
		return PhasePickup
	}
	return PhaseDestination
}
