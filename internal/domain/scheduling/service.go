package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/realtime"
)

const (
	appointmentsTable = "appointments"
	waitlistTable     = "patient_waitlist"
)

const defaultAppointmentMinutes = 30

var ErrAlreadyCheckedIn = errors.New("entry already checked in")

type Service struct {
	appointments AppointmentRepository
	schedules    ScheduleRepository
	attendance   AttendanceRepository
	waitlist     WaitlistRepository
	publisher    realtime.EventPublisher
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(appointments AppointmentRepository, schedules ScheduleRepository, attendance AttendanceRepository, waitlist WaitlistRepository, publisher realtime.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		schedules:    schedules,
		attendance:   attendance,
		waitlist:     waitlist,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// -- Appointments --

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.PhysicianID == uuid.Nil {
		return fmt.Errorf("physician_id is required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if a.DurationMinutes <= 0 {
		a.DurationMinutes = defaultAppointmentMinutes
	}
	a.Status = ApptBooked
	if err := s.appointments.Create(ctx, a); err != nil {
		return err
	}
	s.publishAppointment(ctx, realtime.OpInsert, a)
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) PhysicianDay(ctx context.Context, physicianID uuid.UUID, day time.Time) ([]*Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.appointments.ListByPhysician(ctx, physicianID, start, start.Add(24*time.Hour))
}

func (s *Service) SetAppointmentStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	switch status {
	case ApptBooked, ApptCheckedIn, ApptCompleted, ApptCancelled:
	default:
		return nil, fmt.Errorf("unknown appointment status %q", status)
	}
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = status
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	s.publishAppointment(ctx, realtime.OpUpdate, a)
	return a, nil
}

// -- Staff Schedules --

func (s *Service) PutSchedule(ctx context.Context, sched *StaffSchedule) error {
	if sched.StaffID == uuid.Nil {
		return fmt.Errorf("staff_id is required")
	}
	if sched.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if sched.DayOfWeek < 0 || sched.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be 0..6")
	}
	if sched.StartTime == "" || sched.EndTime == "" {
		return fmt.Errorf("start_time and end_time are required")
	}
	return s.schedules.Upsert(ctx, sched)
}

func (s *Service) StaffWeek(ctx context.Context, staffID uuid.UUID) ([]*StaffSchedule, error) {
	return s.schedules.ListByStaff(ctx, staffID)
}

func (s *Service) HospitalRoster(ctx context.Context, hospitalID uuid.UUID) ([]*StaffSchedule, error) {
	return s.schedules.ListByHospital(ctx, hospitalID)
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return s.schedules.Delete(ctx, id)
}

// -- Staff Attendance --

// ClockIn records the staff member's arrival for today. Calling it twice
// keeps the first check-in time.
func (s *Service) ClockIn(ctx context.Context, staffID uuid.UUID) (*StaffAttendance, error) {
	now := s.now()
	a := &StaffAttendance{
		StaffID: staffID,
		Date:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		CheckIn: &now,
	}
	if err := s.attendance.Upsert(ctx, a); err != nil {
		return nil, err
	}
	return s.attendance.GetByStaffAndDate(ctx, staffID, a.Date)
}

func (s *Service) ClockOut(ctx context.Context, staffID uuid.UUID) (*StaffAttendance, error) {
	now := s.now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	a, err := s.attendance.GetByStaffAndDate(ctx, staffID, date)
	if err != nil {
		return nil, err
	}
	a.CheckOut = &now
	if err := s.attendance.Upsert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) AttendanceRange(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*StaffAttendance, error) {
	return s.attendance.ListByStaff(ctx, staffID, from, to)
}

// -- Waitlist --

func (s *Service) Enqueue(ctx context.Context, e *WaitlistEntry) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if e.Priority < 0 {
		return fmt.Errorf("priority must not be negative")
	}
	e.Status = WaitlistWaiting
	if err := s.waitlist.Create(ctx, e); err != nil {
		return err
	}
	s.publishWaitlist(ctx, realtime.OpInsert, e)
	return nil
}

// Waitlist returns the hospital's waiting entries ordered by priority then
// enqueue time, positions stamped.
func (s *Service) Waitlist(ctx context.Context, hospitalID uuid.UUID) ([]*WaitlistEntry, error) {
	entries, err := s.waitlist.ListWaiting(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	SortWaitlist(entries)
	return entries, nil
}

func (s *Service) WaitlistDepth(ctx context.Context, hospitalID uuid.UUID) (int, error) {
	return s.waitlist.CountWaiting(ctx, hospitalID)
}

// CheckIn converts a waiting entry into a booked appointment with the
// named physician and marks the entry checked in.
func (s *Service) CheckIn(ctx context.Context, entryID, physicianID uuid.UUID) (*Appointment, error) {
	e, err := s.waitlist.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if e.Status != WaitlistWaiting {
		return nil, fmt.Errorf("waitlist entry is %q: %w", e.Status, ErrAlreadyCheckedIn)
	}

	appt := &Appointment{
		PatientID:   e.PatientID,
		PhysicianID: physicianID,
		HospitalID:  &e.HospitalID,
		ScheduledAt: s.now(),
		Reason:      e.Reason,
	}
	if err := s.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}

	e.Status = WaitlistCheckedIn
	if err := s.waitlist.Update(ctx, e); err != nil {
		return nil, err
	}
	s.publishWaitlist(ctx, realtime.OpUpdate, e)
	return appt, nil
}

func (s *Service) RemoveFromWaitlist(ctx context.Context, entryID uuid.UUID) error {
	e, err := s.waitlist.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	e.Status = WaitlistRemoved
	if err := s.waitlist.Update(ctx, e); err != nil {
		return err
	}
	s.publishWaitlist(ctx, realtime.OpUpdate, e)
	return nil
}

func (s *Service) publishAppointment(ctx context.Context, op string, a *Appointment) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.NewChangeEvent(op, appointmentsTable, a.ID, a.UpdatedAt, a)); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("publish appointment change")
	}
}

func (s *Service) publishWaitlist(ctx context.Context, op string, e *WaitlistEntry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.NewChangeEvent(op, waitlistTable, e.ID, e.UpdatedAt, e)); err != nil {
		s.logger.Warn().Err(err).Str("entry_id", e.ID.String()).Msg("publish waitlist change")
	}
}
