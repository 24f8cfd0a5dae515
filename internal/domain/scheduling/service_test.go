package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockAppointmentRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Appointment
	for _, a := range m.appts {
		items = append(items, a)
	}
	return items, len(items), nil
}

func (m *mockAppointmentRepo) ListByPhysician(_ context.Context, physicianID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Appointment
	for _, a := range m.appts {
		if a.PhysicianID == physicianID && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			items = append(items, a)
		}
	}
	return items, nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			items = append(items, a)
		}
	}
	return items, len(items), nil
}

type mockScheduleRepo struct {
	mu   sync.Mutex
	rows map[string]*StaffSchedule // staff/day key
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{rows: make(map[string]*StaffSchedule)}
}

func (m *mockScheduleRepo) Upsert(_ context.Context, s *StaffSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := s.StaffID.String() + "/" + string(rune('0'+s.DayOfWeek))
	if existing, ok := m.rows[key]; ok {
		s.ID = existing.ID
	} else {
		s.ID = uuid.New()
	}
	cp := *s
	m.rows[key] = &cp
	return nil
}

func (m *mockScheduleRepo) ListByStaff(_ context.Context, staffID uuid.UUID) ([]*StaffSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*StaffSchedule
	for _, s := range m.rows {
		if s.StaffID == staffID {
			items = append(items, s)
		}
	}
	return items, nil
}

func (m *mockScheduleRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID) ([]*StaffSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*StaffSchedule
	for _, s := range m.rows {
		if s.HospitalID == hospitalID {
			items = append(items, s)
		}
	}
	return items, nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.rows {
		if s.ID == id {
			delete(m.rows, key)
			return nil
		}
	}
	return ErrNotFound
}

type mockAttendanceRepo struct {
	mu   sync.Mutex
	rows map[string]*StaffAttendance
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{rows: make(map[string]*StaffAttendance)}
}

func attKey(staffID uuid.UUID, date time.Time) string {
	return staffID.String() + "/" + date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, a *StaffAttendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := attKey(a.StaffID, a.Date)
	if existing, ok := m.rows[key]; ok {
		a.ID = existing.ID
		if existing.CheckIn != nil {
			a.CheckIn = existing.CheckIn
		}
	} else {
		a.ID = uuid.New()
	}
	cp := *a
	m.rows[key] = &cp
	return nil
}

func (m *mockAttendanceRepo) GetByStaffAndDate(_ context.Context, staffID uuid.UUID, date time.Time) (*StaffAttendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[attKey(staffID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAttendanceRepo) ListByStaff(_ context.Context, staffID uuid.UUID, from, to time.Time) ([]*StaffAttendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*StaffAttendance
	for _, a := range m.rows {
		if a.StaffID == staffID && !a.Date.Before(from) && a.Date.Before(to) {
			items = append(items, a)
		}
	}
	return items, nil
}

type mockWaitlistRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*WaitlistEntry
	seq     int
}

func newMockWaitlistRepo() *mockWaitlistRepo {
	return &mockWaitlistRepo{entries: make(map[uuid.UUID]*WaitlistEntry)}
}

func (m *mockWaitlistRepo) Create(_ context.Context, e *WaitlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	// Distinct timestamps keep FIFO order observable.
	m.seq++
	e.EnqueuedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	e.UpdatedAt = e.EnqueuedAt
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func (m *mockWaitlistRepo) GetByID(_ context.Context, id uuid.UUID) (*WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockWaitlistRepo) Update(_ context.Context, e *WaitlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return ErrNotFound
	}
	e.UpdatedAt = time.Now()
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func (m *mockWaitlistRepo) ListWaiting(_ context.Context, hospitalID uuid.UUID) ([]*WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*WaitlistEntry
	for _, e := range m.entries {
		if e.HospitalID == hospitalID && e.Status == WaitlistWaiting {
			cp := *e
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (m *mockWaitlistRepo) CountWaiting(_ context.Context, hospitalID uuid.UUID) (int, error) {
	items, _ := m.ListWaiting(context.Background(), hospitalID)
	return len(items), nil
}

func newTestService() (*Service, *mockAppointmentRepo, *mockWaitlistRepo) {
	appts := newMockAppointmentRepo()
	waitlist := newMockWaitlistRepo()
	svc := NewService(appts, newMockScheduleRepo(), newMockAttendanceRepo(), waitlist, nil, zerolog.Nop())
	return svc, appts, waitlist
}

func TestWaitlistOrdering(t *testing.T) {
	svc, _, _ := newTestService()
	hospital := uuid.New()

	// Enqueued in this order: low, high, low, high.
	low1 := &WaitlistEntry{PatientID: uuid.New(), HospitalID: hospital, Priority: 1}
	high1 := &WaitlistEntry{PatientID: uuid.New(), HospitalID: hospital, Priority: 5}
	low2 := &WaitlistEntry{PatientID: uuid.New(), HospitalID: hospital, Priority: 1}
	high2 := &WaitlistEntry{PatientID: uuid.New(), HospitalID: hospital, Priority: 5}
	for _, e := range []*WaitlistEntry{low1, high1, low2, high2} {
		if err := svc.Enqueue(context.Background(), e); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	got, err := svc.Waitlist(context.Background(), hospital)
	if err != nil {
		t.Fatalf("waitlist: %v", err)
	}
	want := []uuid.UUID{high1.ID, high2.ID, low1.ID, low2.ID}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, e := range got {
		if e.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i+1, want[i], e.ID)
		}
		if e.Position != i+1 {
			t.Errorf("expected position %d stamped, got %d", i+1, e.Position)
		}
	}
}

func TestCheckIn_CreatesAppointment(t *testing.T) {
	svc, appts, waitlist := newTestService()
	hospital := uuid.New()
	physician := uuid.New()
	reason := "persistent cough"

	e := &WaitlistEntry{PatientID: uuid.New(), HospitalID: hospital, Priority: 2, Reason: &reason}
	if err := svc.Enqueue(context.Background(), e); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	appt, err := svc.CheckIn(context.Background(), e.ID, physician)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if appt.PatientID != e.PatientID || appt.PhysicianID != physician {
		t.Errorf("appointment participants mismatch: %+v", appt)
	}
	if appt.Status != ApptBooked {
		t.Errorf("expected booked, got %s", appt.Status)
	}
	if appt.Reason == nil || *appt.Reason != reason {
		t.Error("expected reason carried from waitlist entry")
	}
	if len(appts.appts) != 1 {
		t.Errorf("expected 1 appointment, got %d", len(appts.appts))
	}

	stored, _ := waitlist.GetByID(context.Background(), e.ID)
	if stored.Status != WaitlistCheckedIn {
		t.Errorf("expected entry checked_in, got %s", stored.Status)
	}

	// Checked-in entries leave the waiting queue.
	remaining, _ := svc.Waitlist(context.Background(), hospital)
	if len(remaining) != 0 {
		t.Errorf("expected empty waitlist, got %d", len(remaining))
	}
}

func TestCheckIn_Twice(t *testing.T) {
	svc, _, _ := newTestService()
	e := &WaitlistEntry{PatientID: uuid.New(), HospitalID: uuid.New(), Priority: 1}
	if err := svc.Enqueue(context.Background(), e); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), e.ID, uuid.New()); err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), e.ID, uuid.New()); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("expected ErrAlreadyCheckedIn, got %v", err)
	}
}

func TestCreateAppointment_DefaultDuration(t *testing.T) {
	svc, _, _ := newTestService()
	a := &Appointment{PatientID: uuid.New(), PhysicianID: uuid.New(), ScheduledAt: time.Now()}
	if err := svc.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.DurationMinutes != defaultAppointmentMinutes {
		t.Errorf("expected default duration, got %d", a.DurationMinutes)
	}
}

func TestSetAppointmentStatus_UnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()
	a := &Appointment{PatientID: uuid.New(), PhysicianID: uuid.New(), ScheduledAt: time.Now()}
	if err := svc.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetAppointmentStatus(context.Background(), a.ID, "teleported"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestClockInOut(t *testing.T) {
	appts := newMockAppointmentRepo()
	attendance := newMockAttendanceRepo()
	svc := NewService(appts, newMockScheduleRepo(), attendance, newMockWaitlistRepo(), nil, zerolog.Nop())

	t0 := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }
	staff := uuid.New()

	a, err := svc.ClockIn(context.Background(), staff)
	if err != nil {
		t.Fatalf("clock in: %v", err)
	}
	if a.CheckIn == nil || !a.CheckIn.Equal(t0) {
		t.Errorf("expected check_in %v, got %v", t0, a.CheckIn)
	}

	// Second clock-in the same day keeps the original time.
	svc.now = func() time.Time { return t0.Add(2 * time.Hour) }
	a, err = svc.ClockIn(context.Background(), staff)
	if err != nil {
		t.Fatalf("second clock in: %v", err)
	}
	if !a.CheckIn.Equal(t0) {
		t.Errorf("expected original check_in kept, got %v", a.CheckIn)
	}

	svc.now = func() time.Time { return t0.Add(9 * time.Hour) }
	a, err = svc.ClockOut(context.Background(), staff)
	if err != nil {
		t.Fatalf("clock out: %v", err)
	}
	if a.CheckOut == nil || !a.CheckOut.Equal(t0.Add(9*time.Hour)) {
		t.Errorf("unexpected check_out: %v", a.CheckOut)
	}
}

func TestClockOut_WithoutClockIn(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.ClockOut(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPutSchedule_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	base := StaffSchedule{StaffID: uuid.New(), HospitalID: uuid.New(), DayOfWeek: 1, StartTime: "08:00", EndTime: "16:00"}

	bad := base
	bad.DayOfWeek = 7
	if err := svc.PutSchedule(context.Background(), &bad); err == nil {
		t.Error("expected error for day_of_week out of range")
	}
	bad = base
	bad.StartTime = ""
	if err := svc.PutSchedule(context.Background(), &bad); err == nil {
		t.Error("expected error for missing start_time")
	}
	good := base
	if err := svc.PutSchedule(context.Background(), &good); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
