package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Hospital maps to the hospitals table.
type Hospital struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FinancialData maps to the hospital_financial_data table, one row per
// hospital and reporting period.
type FinancialData struct {
	ID         uuid.UUID `db:"id" json:"id"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Period     string    `db:"period" json:"period"`
	Revenue    float64   `db:"revenue" json:"revenue"`
	Expenses   float64   `db:"expenses" json:"expenses"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// PerformanceMetric maps to the performance_metrics table.
type PerformanceMetric struct {
	ID         uuid.UUID `db:"id" json:"id"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	MetricName string    `db:"metric_name" json:"metric_name"`
	Value      float64   `db:"metric_value" json:"metric_value"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// SessionRecord is the slice of a consultation session row that analytics
// needs.
type SessionRecord struct {
	Status           string
	ConsultationRate float64
	DurationMinutes  int
	PaymentStatus    string
}

// DisputeTotals summarizes a hospital's financial disputes in a range.
type DisputeTotals struct {
	Total    int     `json:"total"`
	Open     int     `json:"open"`
	Resolved int     `json:"resolved"`
	Amount   float64 `json:"amount"`
}

// Analytics is the response of the hospital analytics endpoint.
type Analytics struct {
	HospitalID        uuid.UUID     `json:"hospital_id"`
	From              time.Time     `json:"from"`
	To                time.Time     `json:"to"`
	TotalSessions     int           `json:"total_sessions"`
	CompletedSessions int           `json:"completed_sessions"`
	CompletionRate    float64       `json:"completion_rate"`
	Revenue           float64       `json:"revenue"`
	WaitlistDepth     int           `json:"waitlist_depth"`
	Disputes          DisputeTotals `json:"disputes"`
}

// BuildAnalytics aggregates fetched rows into an analytics snapshot. It is
// a pure function: same inputs always yield the same result.
func BuildAnalytics(hospitalID uuid.UUID, from, to time.Time, sessions []SessionRecord, waitlistDepth int, disputes DisputeTotals) *Analytics {
	a := &Analytics{
		HospitalID:    hospitalID,
		From:          from,
		To:            to,
		TotalSessions: len(sessions),
		WaitlistDepth: waitlistDepth,
		Disputes:      disputes,
	}
	for _, s := range sessions {
		if s.Status == "completed" {
			a.CompletedSessions++
		}
		if s.PaymentStatus == "paid" {
			a.Revenue += s.ConsultationRate * float64(s.DurationMinutes)
		}
	}
	if a.TotalSessions > 0 {
		a.CompletionRate = float64(a.CompletedSessions) / float64(a.TotalSessions)
	}
	return a
}
