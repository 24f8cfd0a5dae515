package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const appointmentCols = `id, patient_id, physician_id, hospital_id, scheduled_at,
	duration_minutes, status, reason, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PhysicianID, &a.HospitalID, &a.ScheduledAt,
		&a.DurationMinutes, &a.Status, &a.Reason, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, physician_id, hospital_id, scheduled_at, duration_minutes, status, reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.PhysicianID, a.HospitalID, a.ScheduledAt, a.DurationMinutes, a.Status, a.Reason).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	return r.pool.QueryRow(ctx, `
		UPDATE appointments SET scheduled_at=$2, duration_minutes=$3, status=$4, reason=$5, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.ScheduledAt, a.DurationMinutes, a.Status, a.Reason).Scan(&a.UpdatedAt)
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+appointmentCols+` FROM appointments ORDER BY scheduled_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAppointments(rows, total)
}

func (r *appointmentRepoPG) ListByPhysician(ctx context.Context, physicianID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+appointmentCols+` FROM appointments
		WHERE physician_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at`, physicianID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := collectAppointments(rows, 0)
	return items, err
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+appointmentCols+` FROM appointments
		WHERE patient_id = $1 ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAppointments(rows, total)
}

func collectAppointments(rows pgx.Rows, total int) ([]*Appointment, int, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository { return &scheduleRepoPG{pool: pool} }

func (r *scheduleRepoPG) Upsert(ctx context.Context, s *StaffSchedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO staff_schedules (id, staff_id, hospital_id, day_of_week, start_time, end_time)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (staff_id, day_of_week) DO UPDATE SET hospital_id = EXCLUDED.hospital_id,
			start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		s.ID, s.StaffID, s.HospitalID, s.DayOfWeek, s.StartTime, s.EndTime).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *scheduleRepoPG) ListByStaff(ctx context.Context, staffID uuid.UUID) ([]*StaffSchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, staff_id, hospital_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM staff_schedules WHERE staff_id = $1 ORDER BY day_of_week`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *scheduleRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*StaffSchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, staff_id, hospital_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM staff_schedules WHERE hospital_id = $1 ORDER BY staff_id, day_of_week`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff_schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectSchedules(rows pgx.Rows) ([]*StaffSchedule, error) {
	var items []*StaffSchedule
	for rows.Next() {
		var s StaffSchedule
		if err := rows.Scan(&s.ID, &s.StaffID, &s.HospitalID, &s.DayOfWeek, &s.StartTime, &s.EndTime,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

// =========== Attendance Repository ===========

type attendanceRepoPG struct{ pool *pgxpool.Pool }

func NewAttendanceRepoPG(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepoPG{pool: pool}
}

func (r *attendanceRepoPG) Upsert(ctx context.Context, a *StaffAttendance) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO staff_attendance (id, staff_id, date, check_in, check_out)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (staff_id, date) DO UPDATE SET check_in = COALESCE(staff_attendance.check_in, EXCLUDED.check_in),
			check_out = EXCLUDED.check_out
		RETURNING id`,
		a.ID, a.StaffID, a.Date, a.CheckIn, a.CheckOut).Scan(&a.ID)
}

func (r *attendanceRepoPG) GetByStaffAndDate(ctx context.Context, staffID uuid.UUID, date time.Time) (*StaffAttendance, error) {
	var a StaffAttendance
	err := r.pool.QueryRow(ctx, `
		SELECT id, staff_id, date, check_in, check_out FROM staff_attendance
		WHERE staff_id = $1 AND date = $2`, staffID, date).
		Scan(&a.ID, &a.StaffID, &a.Date, &a.CheckIn, &a.CheckOut)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *attendanceRepoPG) ListByStaff(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*StaffAttendance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, staff_id, date, check_in, check_out FROM staff_attendance
		WHERE staff_id = $1 AND date >= $2 AND date < $3 ORDER BY date`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*StaffAttendance
	for rows.Next() {
		var a StaffAttendance
		if err := rows.Scan(&a.ID, &a.StaffID, &a.Date, &a.CheckIn, &a.CheckOut); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

// =========== Waitlist Repository ===========

type waitlistRepoPG struct{ pool *pgxpool.Pool }

func NewWaitlistRepoPG(pool *pgxpool.Pool) WaitlistRepository { return &waitlistRepoPG{pool: pool} }

const waitlistCols = `id, patient_id, hospital_id, physician_id, priority, reason, status, enqueued_at, updated_at`

func scanWaitlistEntry(row pgx.Row) (*WaitlistEntry, error) {
	var e WaitlistEntry
	err := row.Scan(&e.ID, &e.PatientID, &e.HospitalID, &e.PhysicianID, &e.Priority, &e.Reason,
		&e.Status, &e.EnqueuedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *waitlistRepoPG) Create(ctx context.Context, e *WaitlistEntry) error {
	e.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient_waitlist (id, patient_id, hospital_id, physician_id, priority, reason, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING enqueued_at, updated_at`,
		e.ID, e.PatientID, e.HospitalID, e.PhysicianID, e.Priority, e.Reason, e.Status).
		Scan(&e.EnqueuedAt, &e.UpdatedAt)
}

func (r *waitlistRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*WaitlistEntry, error) {
	return scanWaitlistEntry(r.pool.QueryRow(ctx, `SELECT `+waitlistCols+` FROM patient_waitlist WHERE id = $1`, id))
}

func (r *waitlistRepoPG) Update(ctx context.Context, e *WaitlistEntry) error {
	return r.pool.QueryRow(ctx, `
		UPDATE patient_waitlist SET priority=$2, status=$3, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		e.ID, e.Priority, e.Status).Scan(&e.UpdatedAt)
}

func (r *waitlistRepoPG) ListWaiting(ctx context.Context, hospitalID uuid.UUID) ([]*WaitlistEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+waitlistCols+` FROM patient_waitlist
		WHERE hospital_id = $1 AND status = $2
		ORDER BY priority DESC, enqueued_at`, hospitalID, WaitlistWaiting)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*WaitlistEntry
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *waitlistRepoPG) CountWaiting(ctx context.Context, hospitalID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_waitlist WHERE hospital_id = $1 AND status = $2`,
		hospitalID, WaitlistWaiting).Scan(&count)
	return count, err
}
