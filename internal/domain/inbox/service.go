package inbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/realtime"
)

const notificationsTable = "notifications"

var validTypes = map[string]bool{
	TypeInfo:      true,
	TypeWarning:   true,
	TypeEmergency: true,
	TypeBilling:   true,
	TypeSystem:    true,
}

type Service struct {
	notifications NotificationRepository
	publisher     realtime.EventPublisher
	logger        zerolog.Logger
}

func NewService(notifications NotificationRepository, publisher realtime.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{notifications: notifications, publisher: publisher, logger: logger}
}

// Notify inserts a notification for one user and publishes the change so
// a connected client sees it without polling.
func (s *Service) Notify(ctx context.Context, n *Notification) error {
	if n.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if n.Title == "" {
		return fmt.Errorf("title is required")
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if !validTypes[n.Type] {
		return fmt.Errorf("unknown notification type %q", n.Type)
	}
	n.Read = false
	if err := s.notifications.Create(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, realtime.OpInsert, n)
	return nil
}

func (s *Service) Feed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.notifications.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, callerID string) (*Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID.String() != callerID {
		return nil, ErrNotFound
	}
	n, err = s.notifications.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.OpUpdate, n)
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

func (s *Service) publish(ctx context.Context, op string, n *Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.NewChangeEvent(op, notificationsTable, n.ID, n.UpdatedAt, n)); err != nil {
		s.logger.Warn().Err(err).Str("notification_id", n.ID.String()).Msg("publish notification change")
	}
}
