package dispute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/realtime"
)

const disputesTable = "financial_disputes"

// Alert when a hospital accumulates this many disputes inside the window.
const (
	DefaultAlertThreshold = 5
	DefaultAlertWindow    = 30 * 24 * time.Hour
)

var ErrInvalidTransition = errors.New("invalid status transition")

// ActionLogger records privileged operations. Satisfied by the audit
// service.
type ActionLogger interface {
	LogAdminAction(ctx context.Context, adminID uuid.UUID, actionType, targetType string, targetID uuid.UUID, details interface{})
}

type Service struct {
	disputes  DisputeRepository
	alerts    AlertRepository
	actions   ActionLogger
	publisher realtime.EventPublisher
	logger    zerolog.Logger
	now       func() time.Time

	threshold int
	window    time.Duration
}

func NewService(disputes DisputeRepository, alerts AlertRepository, actions ActionLogger, publisher realtime.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		disputes:  disputes,
		alerts:    alerts,
		actions:   actions,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		threshold: DefaultAlertThreshold,
		window:    DefaultAlertWindow,
	}
}

func (s *Service) CreateDispute(ctx context.Context, d *FinancialDispute) error {
	if d.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if d.RaisedBy == uuid.Nil {
		return fmt.Errorf("raised_by is required")
	}
	if d.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if d.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	d.Status = StatusOpen
	if err := s.disputes.Create(ctx, d); err != nil {
		return err
	}
	s.publish(ctx, realtime.OpInsert, d)
	s.maybeRaiseAlert(ctx, d.HospitalID)
	return nil
}

func (s *Service) GetDispute(ctx context.Context, id uuid.UUID) (*FinancialDispute, error) {
	return s.disputes.GetByID(ctx, id)
}

func (s *Service) ListDisputes(ctx context.Context, hospitalID uuid.UUID, status DisputeStatus, limit, offset int) ([]*FinancialDispute, int, error) {
	switch {
	case hospitalID != uuid.Nil:
		return s.disputes.ListByHospital(ctx, hospitalID, limit, offset)
	case status != "":
		return s.disputes.ListByStatus(ctx, status, limit, offset)
	default:
		return s.disputes.List(ctx, limit, offset)
	}
}

// Review moves an open dispute to under_review.
func (s *Service) Review(ctx context.Context, id uuid.UUID) (*FinancialDispute, error) {
	d, err := s.disputes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransitionTo(StatusUnderReview) {
		return nil, fmt.Errorf("cannot review dispute in status %q: %w", d.Status, ErrInvalidTransition)
	}
	d.Status = StatusUnderReview
	if err := s.disputes.Update(ctx, d); err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.OpUpdate, d)
	return d, nil
}

// Resolve closes a dispute as resolved or rejected and records the admin
// action. The dispute update and the action row are two independent
// writes; an audit failure does not undo the resolution.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, outcome DisputeStatus, note string, adminID uuid.UUID) (*FinancialDispute, error) {
	if outcome != StatusResolved && outcome != StatusRejected {
		return nil, fmt.Errorf("outcome must be resolved or rejected, got %q", outcome)
	}
	d, err := s.disputes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransitionTo(outcome) {
		return nil, fmt.Errorf("cannot close dispute in status %q: %w", d.Status, ErrInvalidTransition)
	}

	now := s.now()
	d.Status = outcome
	d.ResolvedBy = &adminID
	d.ResolvedAt = &now
	if note != "" {
		d.ResolutionNote = &note
	}
	if err := s.disputes.Update(ctx, d); err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.OpUpdate, d)

	if s.actions != nil {
		s.actions.LogAdminAction(ctx, adminID, "dispute_"+string(outcome), "financial_dispute", d.ID,
			map[string]interface{}{"amount": d.Amount, "note": note})
	}
	return d, nil
}

func (s *Service) ListAlerts(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*FinancialAlert, int, error) {
	return s.alerts.ListByHospital(ctx, hospitalID, limit, offset)
}

// maybeRaiseAlert checks the hospital's dispute volume inside the window
// and raises an alert when the threshold is crossed.
func (s *Service) maybeRaiseAlert(ctx context.Context, hospitalID uuid.UUID) {
	count, err := s.disputes.CountByHospitalSince(ctx, hospitalID, s.now().Add(-s.window))
	if err != nil {
		s.logger.Warn().Err(err).Str("hospital_id", hospitalID.String()).Msg("count disputes for alert")
		return
	}
	if count < s.threshold {
		return
	}
	alert := &FinancialAlert{
		HospitalID:   hospitalID,
		AlertType:    "dispute_volume",
		Message:      fmt.Sprintf("%d disputes raised in the last %d days", count, int(s.window.Hours()/24)),
		DisputeCount: count,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		s.logger.Warn().Err(err).Str("hospital_id", hospitalID.String()).Msg("raise dispute alert")
		return
	}
	s.logger.Info().Str("hospital_id", hospitalID.String()).Int("count", count).Msg("dispute volume alert raised")
}

func (s *Service) publish(ctx context.Context, op string, d *FinancialDispute) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.NewChangeEvent(op, disputesTable, d.ID, d.UpdatedAt, d)); err != nil {
		s.logger.Warn().Err(err).Str("dispute_id", d.ID.String()).Msg("publish dispute change")
	}
}
