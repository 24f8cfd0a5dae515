package compliance

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*Report
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[uuid.UUID]*Report)}
}

func (m *mockReportRepo) Create(_ context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id uuid.UUID) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockReportRepo) Update(_ context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockReportRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Report
	for _, r := range m.reports {
		if r.HospitalID == hospitalID {
			items = append(items, r)
		}
	}
	return items, len(items), nil
}

func (m *mockReportRepo) ListByStatus(_ context.Context, status ReportStatus, limit, offset int) ([]*Report, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Report
	for _, r := range m.reports {
		if r.Status == status {
			items = append(items, r)
		}
	}
	return items, len(items), nil
}

type mockTrackingRepo struct {
	mu   sync.Mutex
	rows map[string]*Tracking // keyed by hospital/requirement
}

func newMockTrackingRepo() *mockTrackingRepo {
	return &mockTrackingRepo{rows: make(map[string]*Tracking)}
}

func (m *mockTrackingRepo) Upsert(_ context.Context, t *Tracking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := t.HospitalID.String() + "/" + t.Requirement
	if existing, ok := m.rows[key]; ok {
		t.ID = existing.ID
	} else {
		t.ID = uuid.New()
	}
	t.UpdatedAt = time.Now()
	cp := *t
	m.rows[key] = &cp
	return nil
}

func (m *mockTrackingRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID) ([]*Tracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Tracking
	for _, t := range m.rows {
		if t.HospitalID == hospitalID {
			cp := *t
			items = append(items, &cp)
		}
	}
	return items, nil
}

type mockAlertRepo struct {
	mu    sync.Mutex
	items []*Alert
}

func (m *mockAlertRepo) Create(_ context.Context, a *Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockAlertRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Alert, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items, len(m.items), nil
}

func newTestService() (*Service, *mockTrackingRepo, *mockAlertRepo) {
	tracking := newMockTrackingRepo()
	alerts := &mockAlertRepo{}
	return NewService(newMockReportRepo(), tracking, alerts, zerolog.Nop()), tracking, alerts
}

func track(t *testing.T, svc *Service, hospitalID uuid.UUID, requirement, status string) {
	t.Helper()
	if err := svc.TrackRequirement(context.Background(), &Tracking{
		HospitalID:  hospitalID,
		Requirement: requirement,
		Status:      status,
	}); err != nil {
		t.Fatalf("track %s: %v", requirement, err)
	}
}

func TestScoreFor_WeightedMean(t *testing.T) {
	hospitalID := uuid.New()
	rows := []*Tracking{
		{HospitalID: hospitalID, Requirement: "a", Status: RequirementMet},
		{HospitalID: hospitalID, Requirement: "b", Status: RequirementMet},
		{HospitalID: hospitalID, Requirement: "c", Status: RequirementPartial},
		{HospitalID: hospitalID, Requirement: "d", Status: RequirementUnmet},
	}
	s := ScoreFor(hospitalID, rows)
	// (1 + 1 + 0.5 + 0) / 4
	if math.Abs(s.Score-0.625) > 1e-9 {
		t.Errorf("expected 0.625, got %v", s.Score)
	}
	if s.Met != 2 || s.Partial != 1 || s.Unmet != 1 || s.Requirements != 4 {
		t.Errorf("unexpected tally: %+v", s)
	}
}

func TestScoreFor_EmptyAndUnknown(t *testing.T) {
	hospitalID := uuid.New()
	if s := ScoreFor(hospitalID, nil); s.Score != 0 || s.Requirements != 0 {
		t.Errorf("expected zero score for no rows, got %+v", s)
	}
	rows := []*Tracking{
		{Status: "n/a"},
		{Status: RequirementMet},
	}
	s := ScoreFor(hospitalID, rows)
	if s.Requirements != 1 || s.Score != 1 {
		t.Errorf("unknown statuses must be skipped, got %+v", s)
	}
}

func TestHospitalScore_AlertBelowThreshold(t *testing.T) {
	svc, _, alerts := newTestService()
	hospital := uuid.New()
	track(t, svc, hospital, "hipaa_training", RequirementUnmet)
	track(t, svc, hospital, "data_retention", RequirementPartial)

	score, err := svc.HospitalScore(context.Background(), hospital)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if math.Abs(score.Score-0.25) > 1e-9 {
		t.Errorf("expected 0.25, got %v", score.Score)
	}
	if len(alerts.items) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts.items))
	}
	if alerts.items[0].Score != score.Score {
		t.Errorf("alert score mismatch: %v", alerts.items[0].Score)
	}
}

func TestHospitalScore_NoAlertAboveThreshold(t *testing.T) {
	svc, _, alerts := newTestService()
	hospital := uuid.New()
	track(t, svc, hospital, "hipaa_training", RequirementMet)
	track(t, svc, hospital, "data_retention", RequirementMet)

	if _, err := svc.HospitalScore(context.Background(), hospital); err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(alerts.items) != 0 {
		t.Errorf("expected no alert, got %d", len(alerts.items))
	}
}

func TestHospitalScore_NoRequirementsNoAlert(t *testing.T) {
	svc, _, alerts := newTestService()
	if _, err := svc.HospitalScore(context.Background(), uuid.New()); err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(alerts.items) != 0 {
		t.Errorf("hospital with no tracking rows must not alert, got %d", len(alerts.items))
	}
}

func TestTrackRequirement_UpsertsByRequirement(t *testing.T) {
	svc, tracking, _ := newTestService()
	hospital := uuid.New()
	track(t, svc, hospital, "hipaa_training", RequirementUnmet)
	track(t, svc, hospital, "hipaa_training", RequirementMet)

	rows, _ := tracking.ListByHospital(context.Background(), hospital)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row per requirement, got %d", len(rows))
	}
	if rows[0].Status != RequirementMet {
		t.Errorf("expected latest status, got %s", rows[0].Status)
	}
}

func TestTrackRequirement_RejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.TrackRequirement(context.Background(), &Tracking{
		HospitalID:  uuid.New(),
		Requirement: "x",
		Status:      "mostly",
	})
	if err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestReportLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	actor := uuid.New()
	r := &Report{
		HospitalID:  uuid.New(),
		ReportType:  "quarterly_audit",
		PeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	if err := svc.CreateReport(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Status != ReportDraft {
		t.Fatalf("expected draft, got %s", r.Status)
	}

	// Draft cannot be approved directly.
	if _, err := svc.Transition(context.Background(), r.ID, ReportApproved, actor, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	got, err := svc.Transition(context.Background(), r.ID, ReportSubmitted, actor, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.SubmittedBy == nil || *got.SubmittedBy != actor {
		t.Error("expected submitted_by recorded")
	}

	got, err = svc.Transition(context.Background(), r.ID, ReportRejected, actor, "missing section 3")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.ReviewNote == nil || *got.ReviewNote != "missing section 3" {
		t.Error("expected review note recorded")
	}

	// Rejected goes back to draft for rework.
	if _, err := svc.Transition(context.Background(), r.ID, ReportDraft, actor, ""); err != nil {
		t.Fatalf("rework: %v", err)
	}
}

func TestCreateReport_InvalidPeriod(t *testing.T) {
	svc, _, _ := newTestService()
	r := &Report{
		HospitalID:  uuid.New(),
		ReportType:  "quarterly_audit",
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := svc.CreateReport(context.Background(), r); err == nil {
		t.Error("expected error for inverted period")
	}
}
