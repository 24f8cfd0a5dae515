package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockActionRepo struct {
	mu    sync.Mutex
	items []*AdminAction
	fail  bool
}

func (m *mockActionRepo) Create(_ context.Context, a *AdminAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("insert failed")
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockActionRepo) List(_ context.Context, f ActionFilter, limit, offset int) ([]*AdminAction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*AdminAction
	for _, a := range m.items {
		if f.AdminID != uuid.Nil && a.AdminID != f.AdminID {
			continue
		}
		if f.ActionType != "" && a.ActionType != f.ActionType {
			continue
		}
		items = append(items, a)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, len(items), nil
}

type mockActivityRepo struct {
	mu    sync.Mutex
	items []*UserActivityLog
}

func (m *mockActivityRepo) Create(_ context.Context, l *UserActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	cp := *l
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockActivityRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*UserActivityLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*UserActivityLog
	for _, l := range m.items {
		if l.UserID == userID {
			items = append(items, l)
		}
	}
	return items, len(items), nil
}

type mockSettingRepo struct {
	mu    sync.Mutex
	items map[string]*SystemSetting
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{items: make(map[string]*SystemSetting)}
}

func (m *mockSettingRepo) Upsert(_ context.Context, s *SystemSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.items[s.Key]; ok {
		s.ID = existing.ID
	} else if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.UpdatedAt = time.Now()
	cp := *s
	m.items[s.Key] = &cp
	return nil
}

func (m *mockSettingRepo) Get(_ context.Context, key string) (*SystemSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSettingRepo) List(_ context.Context) ([]*SystemSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*SystemSetting
	for _, s := range m.items {
		items = append(items, s)
	}
	return items, nil
}

func newTestService() (*Service, *mockActionRepo, *mockActivityRepo, *mockSettingRepo) {
	actions := &mockActionRepo{}
	activity := &mockActivityRepo{}
	settings := newMockSettingRepo()
	return NewService(actions, activity, settings, zerolog.Nop()), actions, activity, settings
}

func TestLogAdminAction(t *testing.T) {
	svc, actions, _, _ := newTestService()
	adminID := uuid.New()
	targetID := uuid.New()

	svc.LogAdminAction(context.Background(), adminID, "dispute_resolved", "financial_dispute", targetID,
		map[string]string{"resolution": "refunded"})

	if len(actions.items) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions.items))
	}
	a := actions.items[0]
	if a.AdminID != adminID || a.ActionType != "dispute_resolved" {
		t.Errorf("unexpected action row: %+v", a)
	}
	if a.TargetID == nil || *a.TargetID != targetID {
		t.Error("expected target_id recorded")
	}
	var details map[string]string
	if err := json.Unmarshal(a.Details, &details); err != nil || details["resolution"] != "refunded" {
		t.Errorf("unexpected details: %s", a.Details)
	}
}

func TestLogAdminAction_SwallowsRepoError(t *testing.T) {
	svc, actions, _, _ := newTestService()
	actions.fail = true
	// Must not panic or propagate.
	svc.LogAdminAction(context.Background(), uuid.New(), "x", "", uuid.Nil, nil)
}

func TestRecordAdminAction_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()
	if err := svc.RecordAdminAction(context.Background(), &AdminAction{ActionType: "x"}); err == nil {
		t.Error("expected error for missing admin_id")
	}
	if err := svc.RecordAdminAction(context.Background(), &AdminAction{AdminID: uuid.New()}); err == nil {
		t.Error("expected error for missing action_type")
	}
}

func TestListAdminActions_CapsPageSize(t *testing.T) {
	svc, actions, _, _ := newTestService()
	adminID := uuid.New()
	for i := 0; i < 150; i++ {
		if err := svc.RecordAdminAction(context.Background(), &AdminAction{AdminID: adminID, ActionType: "bulk"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	_ = actions

	items, _, err := svc.ListAdminActions(context.Background(), ActionFilter{}, 500, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) > maxPageSize {
		t.Errorf("expected at most %d items, got %d", maxPageSize, len(items))
	}
}

func TestListAdminActions_Filter(t *testing.T) {
	svc, _, _, _ := newTestService()
	adminA := uuid.New()
	adminB := uuid.New()
	svc.LogAdminAction(context.Background(), adminA, "profile_deactivated", "", uuid.Nil, nil)
	svc.LogAdminAction(context.Background(), adminA, "dispute_resolved", "", uuid.Nil, nil)
	svc.LogAdminAction(context.Background(), adminB, "dispute_resolved", "", uuid.Nil, nil)

	items, _, err := svc.ListAdminActions(context.Background(), ActionFilter{AdminID: adminA, ActionType: "dispute_resolved"}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 filtered action, got %d", len(items))
	}
}

func TestPutSetting_RequiresValidJSON(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.PutSetting(context.Background(), &SystemSetting{Key: "maintenance", Value: json.RawMessage(`{"on":true`)})
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
	err = svc.PutSetting(context.Background(), &SystemSetting{Key: "maintenance", Value: json.RawMessage(`{"on":true}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetSetting(context.Background(), "maintenance")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Value) != `{"on":true}` {
		t.Errorf("unexpected value: %s", got.Value)
	}
}

func TestPutSetting_UpsertsByKey(t *testing.T) {
	svc, _, _, settings := newTestService()
	for _, v := range []string{`1`, `2`} {
		if err := svc.PutSetting(context.Background(), &SystemSetting{Key: "max_sessions", Value: json.RawMessage(v)}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if len(settings.items) != 1 {
		t.Errorf("expected single row per key, got %d", len(settings.items))
	}
	got, _ := svc.GetSetting(context.Background(), "max_sessions")
	if string(got.Value) != `2` {
		t.Errorf("expected latest value, got %s", got.Value)
	}
}
