package consultation

import (
	"testing"

	"github.com/google/uuid"
)

func TestSessionStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to SessionStatus
		allowed  bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusExpired, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusExpired, false},
		{StatusInProgress, StatusScheduled, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusExpired, StatusInProgress, false},
		{StatusExpired, StatusCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestRoomTokenFor(t *testing.T) {
	id := uuid.MustParse("6f1c2c6e-8f1a-4c43-9be3-0d6a18b6216b")
	want := "room_6f1c2c6e-8f1a-4c43-9be3-0d6a18b6216b"
	if got := RoomTokenFor(id); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	// Deterministic: the same session always maps to the same token.
	if RoomTokenFor(id) != RoomTokenFor(id) {
		t.Error("token must be stable for a session")
	}
}

func TestSessionIsVideo(t *testing.T) {
	if !(&Session{SessionType: TypeVideo}).IsVideo() {
		t.Error("video session should report IsVideo")
	}
	if (&Session{SessionType: TypeChat}).IsVideo() {
		t.Error("chat session should not report IsVideo")
	}
}
