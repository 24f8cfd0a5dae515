package emergency

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the emergency workflow state.
type RequestStatus string

const (
	StatusPending      RequestStatus = "pending"
	StatusAcknowledged RequestStatus = "acknowledged"
	StatusDispatched   RequestStatus = "dispatched"
	StatusResolved     RequestStatus = "resolved"
)

// CanTransitionTo enforces the forward-only workflow.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusAcknowledged
	case StatusAcknowledged:
		return next == StatusDispatched
	case StatusDispatched:
		return next == StatusResolved
	default:
		return false
	}
}

// Request maps to the emergency_requests table.
type Request struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	PatientID      uuid.UUID     `db:"patient_id" json:"patient_id"`
	HospitalID     *uuid.UUID    `db:"hospital_id" json:"hospital_id,omitempty"`
	Status         RequestStatus `db:"status" json:"status"`
	Location       *string       `db:"location" json:"location,omitempty"`
	Description    string        `db:"description" json:"description"`
	AcknowledgedBy *uuid.UUID    `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// Broadcast maps to the emergency_broadcasts table. One row per send,
// recording how many notifications it fanned out to.
type Broadcast struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SenderID    uuid.UUID `db:"sender_id" json:"sender_id"`
	TargetRole  string    `db:"target_role" json:"target_role"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	Type        string    `db:"type" json:"type"`
	Recipients  int       `db:"recipients" json:"recipients"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
