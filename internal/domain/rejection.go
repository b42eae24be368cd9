package domain

import "time"

// RejectionStatus represents the state of a driver's rejection request.
type RejectionStatus string

const (
	RejectionStatusPending  RejectionStatus = "PENDING"
	RejectionStatusApproved RejectionStatus = "APPROVED"
	RejectionStatusRejected RejectionStatus = "REJECTED"
)

// RejectionReason is an enumerated code explaining why a driver asks to
// be released from an assigned job.
type RejectionReason string

const (
	ReasonVehicleBreakdown RejectionReason = "VEHICLE_BREAKDOWN"
	ReasonTooFar           RejectionReason = "TOO_FAR"
	ReasonShiftEnded       RejectionReason = "SHIFT_ENDED"
	ReasonPersonal         RejectionReason = "PERSONAL"
	ReasonOther            RejectionReason = "OTHER"
)

// KnownRejectionReason reports whether the given code is one of the
// enumerated rejection reasons.
func KnownRejectionReason(r RejectionReason) bool {
	switch r {
	case ReasonVehicleBreakdown, ReasonTooFar, ReasonShiftEnded, ReasonPersonal, ReasonOther:
		return true
	}
	return false
}

// RejectionRequest is a driver-initiated, dispatcher-adjudicated request
// to be released from an assigned job. At most one PENDING request may
// exist per (JobID, DriverID) pair.
type RejectionRequest struct {
	ID           string
	JobID        string
	DriverID     string
	CompanyID    string
	Reason       RejectionReason
	Note         string
	Status       RejectionStatus
	ReviewedBy   string
	ReassignedTo string
	CreatedAt    time.Time
	ReviewedAt   time.Time
}

// Decided reports whether the request has reached a terminal status.
func (r *RejectionRequest) Decided() bool {
	return r.Status != RejectionStatusPending
}
