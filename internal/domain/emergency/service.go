package emergency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/realtime"
)

const requestsTable = "emergency_requests"

var ErrInvalidTransition = errors.New("invalid status transition")

// ProfileDirectory resolves a role to the active user ids that hold it.
// Satisfied by an adapter over the identity service.
type ProfileDirectory interface {
	ActiveUserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error)
}

// Notifier delivers one notification to one user. Satisfied by an adapter
// over the inbox service.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message, notifType string) error
}

type Service struct {
	requests   RequestRepository
	broadcasts BroadcastRepository
	directory  ProfileDirectory
	notifier   Notifier
	publisher  realtime.EventPublisher
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(requests RequestRepository, broadcasts BroadcastRepository, directory ProfileDirectory, notifier Notifier, publisher realtime.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		requests:   requests,
		broadcasts: broadcasts,
		directory:  directory,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// -- Emergency Requests --

func (s *Service) CreateRequest(ctx context.Context, req *Request) error {
	if req.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if req.Description == "" {
		return fmt.Errorf("description is required")
	}
	req.Status = StatusPending
	if err := s.requests.Create(ctx, req); err != nil {
		return err
	}
	s.publish(ctx, realtime.OpInsert, req)
	return nil
}

func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.requests.GetByID(ctx, id)
}

func (s *Service) ListRequests(ctx context.Context, status RequestStatus, limit, offset int) ([]*Request, int, error) {
	if status != "" {
		return s.requests.ListByStatus(ctx, status, limit, offset)
	}
	return s.requests.List(ctx, limit, offset)
}

// Advance moves a request one step forward in the workflow. The actor is
// recorded on the acknowledge step; resolution stamps resolved_at.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, next RequestStatus, actorID uuid.UUID) (*Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("cannot move request from %q to %q: %w", req.Status, next, ErrInvalidTransition)
	}

	req.Status = next
	switch next {
	case StatusAcknowledged:
		req.AcknowledgedBy = &actorID
	case StatusResolved:
		now := s.now()
		req.ResolvedAt = &now
	}

	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.OpUpdate, req)
	return req, nil
}

// -- Broadcast --

// SendBroadcast inserts one notification per active profile holding the
// target role. Partial failure aborts with the count delivered so far.
func (s *Service) SendBroadcast(ctx context.Context, b *Broadcast) error {
	if b.TargetRole == "" {
		return fmt.Errorf("target_role is required")
	}
	if b.Title == "" {
		return fmt.Errorf("title is required")
	}
	if b.Type == "" {
		b.Type = "emergency"
	}

	userIDs, err := s.directory.ActiveUserIDsByRole(ctx, b.TargetRole)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	delivered := 0
	for _, userID := range userIDs {
		if err := s.notifier.Notify(ctx, userID, b.Title, b.Message, b.Type); err != nil {
			b.Recipients = delivered
			return fmt.Errorf("notify %s after %d of %d: %w", userID, delivered, len(userIDs), err)
		}
		delivered++
	}
	b.Recipients = delivered

	if err := s.broadcasts.Create(ctx, b); err != nil {
		// Notifications are already out; the send succeeded even if the
		// audit row did not stick.
		s.logger.Error().Err(err).Str("target_role", b.TargetRole).Msg("record broadcast")
	}
	s.logger.Info().Str("target_role", b.TargetRole).Int("recipients", delivered).Msg("emergency broadcast sent")
	return nil
}

func (s *Service) ListBroadcasts(ctx context.Context, limit, offset int) ([]*Broadcast, int, error) {
	return s.broadcasts.List(ctx, limit, offset)
}

func (s *Service) publish(ctx context.Context, op string, req *Request) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.NewChangeEvent(op, requestsTable, req.ID, req.UpdatedAt, req)); err != nil {
		s.logger.Warn().Err(err).Str("request_id", req.ID.String()).Msg("publish request change")
	}
}
