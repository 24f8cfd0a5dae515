package compliance

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus is the lifecycle of a compliance report.
type ReportStatus string

const (
	ReportDraft     ReportStatus = "draft"
	ReportSubmitted ReportStatus = "submitted"
	ReportApproved  ReportStatus = "approved"
	ReportRejected  ReportStatus = "rejected"
)

func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	switch s {
	case ReportDraft:
		return next == ReportSubmitted
	case ReportSubmitted:
		return next == ReportApproved || next == ReportRejected
	case ReportRejected:
		// Rejected reports go back to draft for rework.
		return next == ReportDraft
	default:
		return false
	}
}

// Tracking row status per requirement.
const (
	RequirementMet     = "met"
	RequirementPartial = "partial"
	RequirementUnmet   = "unmet"
)

// RequirementWeight maps a tracking status to its score contribution.
func RequirementWeight(status string) (float64, bool) {
	switch status {
	case RequirementMet:
		return 1, true
	case RequirementPartial:
		return 0.5, true
	case RequirementUnmet:
		return 0, true
	default:
		return 0, false
	}
}

// Report maps to the compliance_reports table.
type Report struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	HospitalID  uuid.UUID    `db:"hospital_id" json:"hospital_id"`
	ReportType  string       `db:"report_type" json:"report_type"`
	PeriodStart time.Time    `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time    `db:"period_end" json:"period_end"`
	Status      ReportStatus `db:"status" json:"status"`
	SubmittedBy *uuid.UUID   `db:"submitted_by" json:"submitted_by,omitempty"`
	ReviewNote  *string      `db:"review_note" json:"review_note,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// Tracking maps to the hospital_compliance_tracking table, one row per
// hospital and requirement.
type Tracking struct {
	ID          uuid.UUID `db:"id" json:"id"`
	HospitalID  uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Requirement string    `db:"requirement" json:"requirement"`
	Status      string    `db:"status" json:"status"`
	Note        *string   `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Score is the computed compliance standing of one hospital.
type Score struct {
	HospitalID   uuid.UUID `json:"hospital_id"`
	Score        float64   `json:"score"`
	Requirements int       `json:"requirements"`
	Met          int       `json:"met"`
	Partial      int       `json:"partial"`
	Unmet        int       `json:"unmet"`
}

// ScoreFor computes the weighted mean over tracking rows. Rows with an
// unknown status are skipped. An empty set scores zero.
func ScoreFor(hospitalID uuid.UUID, rows []*Tracking) Score {
	s := Score{HospitalID: hospitalID}
	var sum float64
	for _, t := range rows {
		w, ok := RequirementWeight(t.Status)
		if !ok {
			continue
		}
		s.Requirements++
		sum += w
		switch t.Status {
		case RequirementMet:
			s.Met++
		case RequirementPartial:
			s.Partial++
		case RequirementUnmet:
			s.Unmet++
		}
	}
	if s.Requirements > 0 {
		s.Score = sum / float64(s.Requirements)
	}
	return s
}

// Alert maps to the compliance_alerts table.
type Alert struct {
	ID         uuid.UUID `db:"id" json:"id"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Score      float64   `db:"score" json:"score"`
	Message    string    `db:"message" json:"message"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
