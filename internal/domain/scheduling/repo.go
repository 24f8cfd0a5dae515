package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByPhysician(ctx context.Context, physicianID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}

type ScheduleRepository interface {
	Upsert(ctx context.Context, s *StaffSchedule) error
	ListByStaff(ctx context.Context, staffID uuid.UUID) ([]*StaffSchedule, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*StaffSchedule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AttendanceRepository interface {
	Upsert(ctx context.Context, a *StaffAttendance) error
	GetByStaffAndDate(ctx context.Context, staffID uuid.UUID, date time.Time) (*StaffAttendance, error)
	ListByStaff(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*StaffAttendance, error)
}

type WaitlistRepository interface {
	Create(ctx context.Context, e *WaitlistEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*WaitlistEntry, error)
	Update(ctx context.Context, e *WaitlistEntry) error
	ListWaiting(ctx context.Context, hospitalID uuid.UUID) ([]*WaitlistEntry, error)
	CountWaiting(ctx context.Context, hospitalID uuid.UUID) (int, error)
}
