package consultation

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a consultation session.
type SessionStatus string

const (
	StatusScheduled  SessionStatus = "scheduled"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusExpired    SessionStatus = "expired"
)

// CanTransitionTo enforces the monotonic lifecycle: scheduled may move to
// in_progress or expired, in_progress only to completed. Completed and
// expired are terminal.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case StatusScheduled:
		return next == StatusInProgress || next == StatusExpired
	case StatusInProgress:
		return next == StatusCompleted
	default:
		return false
	}
}

// PaymentStatus of a session's consultation fee.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Session types.
const (
	TypeChat  = "chat"
	TypeAudio = "audio"
	TypeVideo = "video"
)

// Session maps to the consultation_sessions table.
type Session struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	PatientID        uuid.UUID     `db:"patient_id" json:"patient_id"`
	PhysicianID      uuid.UUID     `db:"physician_id" json:"physician_id"`
	HospitalID       *uuid.UUID    `db:"hospital_id" json:"hospital_id,omitempty"`
	Status           SessionStatus `db:"status" json:"status"`
	SessionType      string        `db:"session_type" json:"session_type"`
	ConsultationRate float64       `db:"consultation_rate" json:"consultation_rate"`
	StartedAt        *time.Time    `db:"started_at" json:"started_at,omitempty"`
	EndedAt          *time.Time    `db:"ended_at" json:"ended_at,omitempty"`
	DurationMinutes  *int          `db:"duration_minutes" json:"duration_minutes,omitempty"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// IsVideo reports whether the session negotiates a media channel.
func (s *Session) IsVideo() bool { return s.SessionType == TypeVideo }

// RoomStatus of a consultation room.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomActive  RoomStatus = "active"
)

// Room maps to the consultation_rooms table. Exactly one room exists per
// session; it is created lazily and repaired by recovery when missing.
type Room struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	SessionID       uuid.UUID  `db:"session_id" json:"session_id"`
	RoomToken       string     `db:"room_token" json:"room_token"`
	RoomStatus      RoomStatus `db:"room_status" json:"room_status"`
	PatientJoined   bool       `db:"patient_joined" json:"patient_joined"`
	PhysicianJoined bool       `db:"physician_joined" json:"physician_joined"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// RoomTokenFor returns the deterministic token for a session's room, so a
// re-created room is indistinguishable from the original.
func RoomTokenFor(sessionID uuid.UUID) string {
	return "room_" + sessionID.String()
}

// Health is the result of a session health check.
type Health struct {
	SessionID uuid.UUID     `json:"session_id"`
	Healthy   bool          `json:"healthy"`
	Status    SessionStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
}
