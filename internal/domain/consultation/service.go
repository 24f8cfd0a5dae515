package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/realtime"
)

var (
	// ErrInvalidTransition is returned when a status change would violate the
	// monotonic session lifecycle.
	ErrInvalidTransition = errors.New("invalid session status transition")
	// ErrNoStartTime is returned when an in-progress session has no recorded
	// start time. The original clients silently measured a near-zero duration
	// in this case; here it fails loudly so the inconsistency is visible.
	ErrNoStartTime = errors.New("session has no recorded start time")
	// ErrNotAuthorized is returned when the caller is neither the session's
	// patient nor its physician.
	ErrNotAuthorized = errors.New("caller is not a participant of this session")
)

// PaymentProcessor settles a completed session's consultation fee.
type PaymentProcessor interface {
	ProcessConsultationPayment(ctx context.Context, s *Session, amount float64) error
}

const (
	sessionsTable = "consultation_sessions"
	roomsTable    = "consultation_rooms"
)

type Service struct {
	sessions  SessionRepository
	rooms     RoomRepository
	payments  PaymentProcessor
	publisher realtime.EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(sessions SessionRepository, rooms RoomRepository, payments PaymentProcessor, publisher realtime.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		sessions:  sessions,
		rooms:     rooms,
		payments:  payments,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) CreateSession(ctx context.Context, sess *Session) error {
	if sess.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if sess.PhysicianID == uuid.Nil {
		return fmt.Errorf("physician_id is required")
	}
	switch sess.SessionType {
	case TypeChat, TypeAudio, TypeVideo:
	case "":
		sess.SessionType = TypeVideo
	default:
		return fmt.Errorf("unknown session_type %q", sess.SessionType)
	}
	if sess.ConsultationRate < 0 {
		return fmt.Errorf("consultation_rate must not be negative")
	}
	sess.Status = StatusScheduled
	sess.PaymentStatus = PaymentPending

	if err := s.sessions.Create(ctx, sess); err != nil {
		return err
	}
	s.publish(ctx, realtime.OpInsert, sess)
	return nil
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.sessions.GetByID(ctx, id)
}

func (s *Service) ListSessions(ctx context.Context, limit, offset int) ([]*Session, int, error) {
	return s.sessions.List(ctx, limit, offset)
}

func (s *Service) ListSessionsByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	return s.sessions.ListByParticipant(ctx, userID, limit, offset)
}

func (s *Service) SearchSessions(ctx context.Context, params map[string]string, limit, offset int) ([]*Session, int, error) {
	return s.sessions.Search(ctx, params, limit, offset)
}

// StartSession moves a scheduled session to in_progress and stamps started_at.
// Only the session's patient or physician may start it.
func (s *Service) StartSession(ctx context.Context, id uuid.UUID, callerID string) (*Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(sess, callerID); err != nil {
		return nil, err
	}
	if !sess.Status.CanTransitionTo(StatusInProgress) {
		return nil, fmt.Errorf("cannot start session in status %q: %w", sess.Status, ErrInvalidTransition)
	}

	now := s.now()
	sess.Status = StatusInProgress
	sess.StartedAt = &now
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}

	// Video sessions get their room on start so both sides can join the
	// signaling channel immediately.
	if sess.IsVideo() {
		if _, err := s.EnsureRoom(ctx, sess.ID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("failed to ensure room on start")
		}
	}

	s.publish(ctx, realtime.OpUpdate, sess)
	return sess, nil
}

// EndSession completes an in-progress session, computing the duration
// server-side from started_at, and settles a pending payment.
func (s *Service) EndSession(ctx context.Context, id uuid.UUID, callerID string) (*Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(sess, callerID); err != nil {
		return nil, err
	}
	if !sess.Status.CanTransitionTo(StatusCompleted) {
		return nil, fmt.Errorf("cannot end session in status %q: %w", sess.Status, ErrInvalidTransition)
	}
	if sess.StartedAt == nil {
		return nil, ErrNoStartTime
	}

	now := s.now()
	minutes := int(now.Sub(*sess.StartedAt).Minutes())
	if minutes < 0 {
		return nil, fmt.Errorf("started_at %v is in the future", sess.StartedAt)
	}

	sess.Status = StatusCompleted
	sess.EndedAt = &now
	sess.DurationMinutes = &minutes

	if sess.PaymentStatus == PaymentPending && s.payments != nil {
		billable := minutes
		if billable < 1 {
			billable = 1
		}
		amount := sess.ConsultationRate * float64(billable)
		if err := s.payments.ProcessConsultationPayment(ctx, sess, amount); err != nil {
			// Payment settles independently of session completion; leave it
			// pending and let billing retry.
			s.logger.Error().Err(err).Str("session_id", sess.ID.String()).Msg("payment processing failed")
		} else {
			sess.PaymentStatus = PaymentPaid
		}
	}

	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.OpUpdate, sess)
	return sess, nil
}

// ExpireStale marks scheduled sessions older than the cutoff as expired.
func (s *Service) ExpireStale(ctx context.Context, age time.Duration) (int, error) {
	return s.sessions.ExpireScheduledBefore(ctx, s.now().Add(-age))
}

// EnsureRoom returns the session's room, creating it with the deterministic
// token when missing.
func (s *Service) EnsureRoom(ctx context.Context, sessionID uuid.UUID) (*Room, error) {
	room, err := s.rooms.GetBySessionID(ctx, sessionID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	room = &Room{
		SessionID:  sessionID,
		RoomToken:  RoomTokenFor(sessionID),
		RoomStatus: RoomWaiting,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	s.publishRoom(ctx, realtime.OpInsert, room)
	return room, nil
}

// GetRoom returns the session's room row.
func (s *Service) GetRoom(ctx context.Context, sessionID uuid.UUID) (*Room, error) {
	return s.rooms.GetBySessionID(ctx, sessionID)
}

// SetParticipantJoined flips the joined flag for a role on the session's
// room, creating the room if needed. The room becomes active when both
// participants are present and drops back to waiting otherwise. Implements
// signaling.ParticipantTracker.
func (s *Service) SetParticipantJoined(ctx context.Context, sessionID uuid.UUID, role string, joined bool) error {
	room, err := s.EnsureRoom(ctx, sessionID)
	if err != nil {
		return err
	}

	switch role {
	case "patient":
		room.PatientJoined = joined
	case "physician":
		room.PhysicianJoined = joined
	default:
		return fmt.Errorf("unknown participant role %q", role)
	}

	if room.PatientJoined && room.PhysicianJoined {
		room.RoomStatus = RoomActive
	} else {
		room.RoomStatus = RoomWaiting
	}

	if err := s.rooms.Update(ctx, room); err != nil {
		return err
	}
	s.publishRoom(ctx, realtime.OpUpdate, room)
	return nil
}

func (s *Service) authorizeParticipant(sess *Session, callerID string) error {
	if callerID == sess.PatientID.String() || callerID == sess.PhysicianID.String() {
		return nil
	}
	return ErrNotAuthorized
}

func (s *Service) publish(ctx context.Context, op string, sess *Session) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.NewChangeEvent(op, sessionsTable, sess.ID, sess.UpdatedAt, sess)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish session change")
	}
}

func (s *Service) publishRoom(ctx context.Context, op string, room *Room) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.NewChangeEvent(op, roomsTable, room.ID, room.UpdatedAt, room)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish room change")
	}
}
