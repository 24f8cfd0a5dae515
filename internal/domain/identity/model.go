package identity

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Fallbacks used wherever profile data joined into another view may
	// be absent or incomplete.
	FallbackName      = "Unknown"
	FallbackSpecialty = "General Practice"
)

// Profile maps to the profiles table.
type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  *string   `db:"full_name" json:"full_name,omitempty"`
	Role      string    `db:"role" json:"role"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName returns the profile's name, falling back when unset.
func (p *Profile) DisplayName() string {
	if p == nil || p.FullName == nil || *p.FullName == "" {
		return FallbackName
	}
	return *p.FullName
}

// DisplaySpecialty returns the physician specialty, falling back when unset.
func (p *Profile) DisplaySpecialty() string {
	if p == nil || p.Specialty == nil || *p.Specialty == "" {
		return FallbackSpecialty
	}
	return *p.Specialty
}

// AgentAssistedPatient maps to the agent_assisted_patients table. It links
// an agent profile to a patient profile the agent registers and manages.
type AgentAssistedPatient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AgentID   uuid.UUID `db:"agent_id" json:"agent_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
