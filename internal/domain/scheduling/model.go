package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	ApptBooked    = "booked"
	ApptCheckedIn = "checked_in"
	ApptCompleted = "completed"
	ApptCancelled = "cancelled"
)

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	PhysicianID     uuid.UUID  `db:"physician_id" json:"physician_id"`
	HospitalID      *uuid.UUID `db:"hospital_id" json:"hospital_id,omitempty"`
	ScheduledAt     time.Time  `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Status          string     `db:"status" json:"status"`
	Reason          *string    `db:"reason" json:"reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// StaffSchedule maps to the staff_schedules table, one row per staff member
// and weekday.
type StaffSchedule struct {
	ID         uuid.UUID `db:"id" json:"id"`
	StaffID    uuid.UUID `db:"staff_id" json:"staff_id"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StaffAttendance maps to the staff_attendance table.
type StaffAttendance struct {
	ID       uuid.UUID  `db:"id" json:"id"`
	StaffID  uuid.UUID  `db:"staff_id" json:"staff_id"`
	Date     time.Time  `db:"date" json:"date"`
	CheckIn  *time.Time `db:"check_in" json:"check_in,omitempty"`
	CheckOut *time.Time `db:"check_out" json:"check_out,omitempty"`
}

// Waitlist entry statuses.
const (
	WaitlistWaiting   = "waiting"
	WaitlistCheckedIn = "checked_in"
	WaitlistRemoved   = "removed"
)

// WaitlistEntry maps to the patient_waitlist table.
type WaitlistEntry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	HospitalID  uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	PhysicianID *uuid.UUID `db:"physician_id" json:"physician_id,omitempty"`
	Priority    int        `db:"priority" json:"priority"`
	Reason      *string    `db:"reason" json:"reason,omitempty"`
	Status      string     `db:"status" json:"status"`
	EnqueuedAt  time.Time  `db:"enqueued_at" json:"enqueued_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	// Position is computed at read time, 1-based within the hospital's
	// waiting entries. Not a table column.
	Position int `db:"-" json:"position,omitempty"`
}

// SortWaitlist orders entries by priority (higher first) then enqueue time
// and stamps positions.
func SortWaitlist(entries []*WaitlistEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].EnqueuedAt.Before(entries[j].EnqueuedAt)
	})
	for i, e := range entries {
		e.Position = i + 1
	}
}
