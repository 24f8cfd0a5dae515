package consultation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/pkg/backoff"
)

func testPolicy() backoff.Policy {
	return backoff.Policy{MaxAttempts: 3, Initial: time.Millisecond, Max: 5 * time.Millisecond, Factor: 2}
}

func TestRecoverSession_RecreatesMissingRoom(t *testing.T) {
	env := newTestEnv()
	rec := NewRecovery(env.svc, testPolicy(), zerolog.Nop())
	sess := env.createSession(t, TypeVideo)
	env.svc.StartSession(context.Background(), sess.ID, sess.PatientID.String())

	// Simulate the lost room row.
	env.rooms.mu.Lock()
	delete(env.rooms.rooms, sess.ID)
	env.rooms.mu.Unlock()

	if err := rec.RecoverSession(context.Background(), sess.ID); err != nil {
		t.Fatalf("recover: %v", err)
	}

	room, err := env.svc.GetRoom(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("expected room after recovery: %v", err)
	}
	if room.RoomToken != RoomTokenFor(sess.ID) {
		t.Errorf("expected deterministic token %s, got %s", RoomTokenFor(sess.ID), room.RoomToken)
	}
}

func TestRecoverSession_Idempotent(t *testing.T) {
	env := newTestEnv()
	rec := NewRecovery(env.svc, testPolicy(), zerolog.Nop())
	sess := env.createSession(t, TypeVideo)

	for i := 0; i < 3; i++ {
		if err := rec.RecoverSession(context.Background(), sess.ID); err != nil {
			t.Fatalf("recover %d: %v", i, err)
		}
	}

	env.rooms.mu.Lock()
	defer env.rooms.mu.Unlock()
	if len(env.rooms.rooms) != 1 {
		t.Errorf("expected exactly one room row, got %d", len(env.rooms.rooms))
	}
}

func TestRecoverSession_HealthySessionUntouched(t *testing.T) {
	env := newTestEnv()
	rec := NewRecovery(env.svc, testPolicy(), zerolog.Nop())
	sess := env.createSession(t, TypeChat)
	env.svc.StartSession(context.Background(), sess.ID, sess.PatientID.String())
	if _, err := env.svc.EndSession(context.Background(), sess.ID, sess.PatientID.String()); err != nil {
		t.Fatalf("end: %v", err)
	}

	if err := rec.RecoverSession(context.Background(), sess.ID); err != nil {
		t.Fatalf("recover completed session: %v", err)
	}
	if _, err := env.svc.GetRoom(context.Background(), sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("completed chat session should not gain a room, got %v", err)
	}
}

func TestRecoverSession_ExhaustsBackoff(t *testing.T) {
	env := newTestEnv()
	rec := NewRecovery(env.svc, testPolicy(), zerolog.Nop())

	// Session that never existed keeps failing to load.
	err := rec.RecoverSession(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error recovering unknown session")
	}
	var exhausted *backoff.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected underlying ErrNotFound, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv()
	rec := NewRecovery(env.svc, testPolicy(), zerolog.Nop())

	t.Run("missing session", func(t *testing.T) {
		h, err := rec.HealthCheck(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Healthy {
			t.Error("missing session should be unhealthy")
		}
	})

	t.Run("video session without room", func(t *testing.T) {
		sess := env.createSession(t, TypeVideo)
		h, err := rec.HealthCheck(context.Background(), sess.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Healthy {
			t.Error("video session with no room should be unhealthy")
		}
	})

	t.Run("healthy after recovery", func(t *testing.T) {
		sess := env.createSession(t, TypeVideo)
		if err := rec.RecoverSession(context.Background(), sess.ID); err != nil {
			t.Fatalf("recover: %v", err)
		}
		h, err := rec.HealthCheck(context.Background(), sess.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !h.Healthy {
			t.Errorf("expected healthy, got reason %q", h.Reason)
		}
	})

	t.Run("chat session needs no room", func(t *testing.T) {
		sess := env.createSession(t, TypeChat)
		h, err := rec.HealthCheck(context.Background(), sess.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !h.Healthy {
			t.Errorf("chat session should be healthy without a room, got %q", h.Reason)
		}
	})
}
