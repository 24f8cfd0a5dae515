package dispute

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockDisputeRepo struct {
	mu       sync.Mutex
	disputes map[uuid.UUID]*FinancialDispute
	failUpd  bool
}

func newMockDisputeRepo() *mockDisputeRepo {
	return &mockDisputeRepo{disputes: make(map[uuid.UUID]*FinancialDispute)}
}

func (m *mockDisputeRepo) Create(_ context.Context, d *FinancialDispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	cp := *d
	m.disputes[d.ID] = &cp
	return nil
}

func (m *mockDisputeRepo) GetByID(_ context.Context, id uuid.UUID) (*FinancialDispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disputes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDisputeRepo) Update(_ context.Context, d *FinancialDispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpd {
		return errors.New("update failed")
	}
	if _, ok := m.disputes[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now()
	cp := *d
	m.disputes[d.ID] = &cp
	return nil
}

func (m *mockDisputeRepo) List(_ context.Context, limit, offset int) ([]*FinancialDispute, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*FinancialDispute
	for _, d := range m.disputes {
		items = append(items, d)
	}
	return items, len(items), nil
}

func (m *mockDisputeRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID, limit, offset int) ([]*FinancialDispute, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*FinancialDispute
	for _, d := range m.disputes {
		if d.HospitalID == hospitalID {
			items = append(items, d)
		}
	}
	return items, len(items), nil
}

func (m *mockDisputeRepo) ListByStatus(_ context.Context, status DisputeStatus, limit, offset int) ([]*FinancialDispute, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*FinancialDispute
	for _, d := range m.disputes {
		if d.Status == status {
			items = append(items, d)
		}
	}
	return items, len(items), nil
}

func (m *mockDisputeRepo) CountByHospitalSince(_ context.Context, hospitalID uuid.UUID, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, d := range m.disputes {
		if d.HospitalID == hospitalID && !d.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type mockAlertRepo struct {
	mu    sync.Mutex
	items []*FinancialAlert
}

func (m *mockAlertRepo) Create(_ context.Context, a *FinancialAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockAlertRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID, limit, offset int) ([]*FinancialAlert, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*FinancialAlert
	for _, a := range m.items {
		if a.HospitalID == hospitalID {
			items = append(items, a)
		}
	}
	return items, len(items), nil
}

type loggedAction struct {
	adminID    uuid.UUID
	actionType string
	targetID   uuid.UUID
}

type mockActionLogger struct {
	mu      sync.Mutex
	actions []loggedAction
}

func (m *mockActionLogger) LogAdminAction(_ context.Context, adminID uuid.UUID, actionType, _ string, targetID uuid.UUID, _ interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, loggedAction{adminID: adminID, actionType: actionType, targetID: targetID})
}

func newTestService() (*Service, *mockDisputeRepo, *mockAlertRepo, *mockActionLogger) {
	disputes := newMockDisputeRepo()
	alerts := &mockAlertRepo{}
	actions := &mockActionLogger{}
	svc := NewService(disputes, alerts, actions, nil, zerolog.Nop())
	return svc, disputes, alerts, actions
}

func openDispute(t *testing.T, svc *Service, hospitalID uuid.UUID) *FinancialDispute {
	t.Helper()
	d := &FinancialDispute{HospitalID: hospitalID, RaisedBy: uuid.New(), Amount: 120, Reason: "double billed"}
	if err := svc.CreateDispute(context.Background(), d); err != nil {
		t.Fatalf("create dispute: %v", err)
	}
	return d
}

func TestCreateDispute_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()
	cases := []struct {
		name string
		d    *FinancialDispute
	}{
		{"missing hospital", &FinancialDispute{RaisedBy: uuid.New(), Amount: 10, Reason: "r"}},
		{"missing raiser", &FinancialDispute{HospitalID: uuid.New(), Amount: 10, Reason: "r"}},
		{"zero amount", &FinancialDispute{HospitalID: uuid.New(), RaisedBy: uuid.New(), Reason: "r"}},
		{"missing reason", &FinancialDispute{HospitalID: uuid.New(), RaisedBy: uuid.New(), Amount: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.CreateDispute(context.Background(), tc.d); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResolve_RecordsAdminAction(t *testing.T) {
	svc, _, _, actions := newTestService()
	admin := uuid.New()
	d := openDispute(t, svc, uuid.New())

	got, err := svc.Resolve(context.Background(), d.ID, StatusResolved, "refund issued", admin)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Status != StatusResolved {
		t.Errorf("expected resolved, got %s", got.Status)
	}
	if got.ResolutionNote == nil || *got.ResolutionNote != "refund issued" {
		t.Error("expected resolution note recorded")
	}
	if got.ResolvedAt == nil {
		t.Error("expected resolved_at stamped")
	}

	if len(actions.actions) != 1 {
		t.Fatalf("expected 1 admin action, got %d", len(actions.actions))
	}
	a := actions.actions[0]
	if a.adminID != admin || a.actionType != "dispute_resolved" || a.targetID != d.ID {
		t.Errorf("unexpected admin action: %+v", a)
	}
}

func TestResolve_InvalidOutcome(t *testing.T) {
	svc, _, _, _ := newTestService()
	d := openDispute(t, svc, uuid.New())
	if _, err := svc.Resolve(context.Background(), d.ID, StatusUnderReview, "", uuid.New()); err == nil {
		t.Error("expected error for non-terminal outcome")
	}
}

func TestResolve_TerminalDisputeRejected(t *testing.T) {
	svc, _, _, actions := newTestService()
	d := openDispute(t, svc, uuid.New())
	if _, err := svc.Resolve(context.Background(), d.ID, StatusRejected, "no merit", uuid.New()); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err := svc.Resolve(context.Background(), d.ID, StatusResolved, "", uuid.New())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on closed dispute, got %v", err)
	}
	// Only the first close logged an action.
	if len(actions.actions) != 1 {
		t.Errorf("expected 1 admin action, got %d", len(actions.actions))
	}
}

func TestResolve_UpdateFailureSkipsAction(t *testing.T) {
	svc, disputes, _, actions := newTestService()
	d := openDispute(t, svc, uuid.New())
	disputes.failUpd = true

	if _, err := svc.Resolve(context.Background(), d.ID, StatusResolved, "", uuid.New()); err == nil {
		t.Fatal("expected update error")
	}
	if len(actions.actions) != 0 {
		t.Errorf("failed resolution must not log an action, got %d", len(actions.actions))
	}
}

func TestReviewWorkflow(t *testing.T) {
	svc, _, _, _ := newTestService()
	d := openDispute(t, svc, uuid.New())

	got, err := svc.Review(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Status != StatusUnderReview {
		t.Errorf("expected under_review, got %s", got.Status)
	}
	if _, err := svc.Review(context.Background(), d.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on double review, got %v", err)
	}
}

func TestDisputeVolumeAlert(t *testing.T) {
	svc, _, alerts, _ := newTestService()
	hospital := uuid.New()

	for i := 0; i < DefaultAlertThreshold-1; i++ {
		openDispute(t, svc, hospital)
	}
	if len(alerts.items) != 0 {
		t.Fatalf("expected no alert below threshold, got %d", len(alerts.items))
	}

	openDispute(t, svc, hospital)
	if len(alerts.items) != 1 {
		t.Fatalf("expected alert at threshold, got %d", len(alerts.items))
	}
	a := alerts.items[0]
	if a.HospitalID != hospital || a.AlertType != "dispute_volume" || a.DisputeCount != DefaultAlertThreshold {
		t.Errorf("unexpected alert: %+v", a)
	}
}

func TestDisputeVolumeAlert_PerHospital(t *testing.T) {
	svc, _, alerts, _ := newTestService()
	for i := 0; i < DefaultAlertThreshold; i++ {
		openDispute(t, svc, uuid.New())
	}
	if len(alerts.items) != 0 {
		t.Errorf("disputes across different hospitals must not alert, got %d", len(alerts.items))
	}
}
