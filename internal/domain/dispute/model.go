package dispute

import (
	"time"

	"github.com/google/uuid"
)

// DisputeStatus is the review state of a financial dispute.
type DisputeStatus string

const (
	StatusOpen        DisputeStatus = "open"
	StatusUnderReview DisputeStatus = "under_review"
	StatusResolved    DisputeStatus = "resolved"
	StatusRejected    DisputeStatus = "rejected"
)

// CanTransitionTo allows open -> under_review -> resolved|rejected. An open
// dispute may also be resolved or rejected directly.
func (s DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	switch s {
	case StatusOpen:
		return next == StatusUnderReview || next == StatusResolved || next == StatusRejected
	case StatusUnderReview:
		return next == StatusResolved || next == StatusRejected
	default:
		return false
	}
}

// Terminal reports whether the status accepts no further transitions.
func (s DisputeStatus) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// FinancialDispute maps to the financial_disputes table.
type FinancialDispute struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	HospitalID     uuid.UUID     `db:"hospital_id" json:"hospital_id"`
	RaisedBy       uuid.UUID     `db:"raised_by" json:"raised_by"`
	SessionID      *uuid.UUID    `db:"session_id" json:"session_id,omitempty"`
	Amount         float64       `db:"amount" json:"amount"`
	Reason         string        `db:"reason" json:"reason"`
	Status         DisputeStatus `db:"status" json:"status"`
	ResolutionNote *string       `db:"resolution_note" json:"resolution_note,omitempty"`
	ResolvedBy     *uuid.UUID    `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// FinancialAlert maps to the financial_alerts table. Raised when a
// hospital's dispute volume inside the lookback window crosses the
// configured threshold.
type FinancialAlert struct {
	ID           uuid.UUID `db:"id" json:"id"`
	HospitalID   uuid.UUID `db:"hospital_id" json:"hospital_id"`
	AlertType    string    `db:"alert_type" json:"alert_type"`
	Message      string    `db:"message" json:"message"`
	DisputeCount int       `db:"dispute_count" json:"dispute_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
