package compliance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Hospitals scoring below this raise an alert.
const DefaultScoreThreshold = 0.7

var ErrInvalidTransition = errors.New("invalid status transition")

type Service struct {
	reports   ReportRepository
	tracking  TrackingRepository
	alerts    AlertRepository
	logger    zerolog.Logger
	threshold float64
}

func NewService(reports ReportRepository, tracking TrackingRepository, alerts AlertRepository, logger zerolog.Logger) *Service {
	return &Service{
		reports:   reports,
		tracking:  tracking,
		alerts:    alerts,
		logger:    logger,
		threshold: DefaultScoreThreshold,
	}
}

// -- Reports --

func (s *Service) CreateReport(ctx context.Context, r *Report) error {
	if r.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if r.ReportType == "" {
		return fmt.Errorf("report_type is required")
	}
	if r.PeriodEnd.Before(r.PeriodStart) {
		return fmt.Errorf("period_end before period_start")
	}
	r.Status = ReportDraft
	return s.reports.Create(ctx, r)
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.reports.GetByID(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, hospitalID uuid.UUID, status ReportStatus, limit, offset int) ([]*Report, int, error) {
	if hospitalID != uuid.Nil {
		return s.reports.ListByHospital(ctx, hospitalID, limit, offset)
	}
	if status != "" {
		return s.reports.ListByStatus(ctx, status, limit, offset)
	}
	return nil, 0, fmt.Errorf("hospital_id or status filter is required")
}

// Transition moves a report through draft -> submitted -> approved|rejected,
// with rejected looping back to draft.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, next ReportStatus, actorID uuid.UUID, note string) (*Report, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("cannot move report from %q to %q: %w", r.Status, next, ErrInvalidTransition)
	}

	r.Status = next
	switch next {
	case ReportSubmitted:
		r.SubmittedBy = &actorID
	case ReportApproved, ReportRejected:
		if note != "" {
			r.ReviewNote = &note
		}
	}
	if err := s.reports.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// -- Tracking and Score --

func (s *Service) TrackRequirement(ctx context.Context, t *Tracking) error {
	if t.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if t.Requirement == "" {
		return fmt.Errorf("requirement is required")
	}
	if _, ok := RequirementWeight(t.Status); !ok {
		return fmt.Errorf("status must be met, partial or unmet, got %q", t.Status)
	}
	return s.tracking.Upsert(ctx, t)
}

// HospitalScore computes the weighted compliance score and raises an alert
// when it falls under the threshold.
func (s *Service) HospitalScore(ctx context.Context, hospitalID uuid.UUID) (*Score, error) {
	rows, err := s.tracking.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	score := ScoreFor(hospitalID, rows)

	if score.Requirements > 0 && score.Score < s.threshold {
		alert := &Alert{
			HospitalID: hospitalID,
			Score:      score.Score,
			Message:    fmt.Sprintf("compliance score %.2f below threshold %.2f", score.Score, s.threshold),
		}
		if err := s.alerts.Create(ctx, alert); err != nil {
			s.logger.Warn().Err(err).Str("hospital_id", hospitalID.String()).Msg("raise compliance alert")
		}
	}
	return &score, nil
}

func (s *Service) ListTracking(ctx context.Context, hospitalID uuid.UUID) ([]*Tracking, error) {
	return s.tracking.ListByHospital(ctx, hospitalID)
}

func (s *Service) ListAlerts(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Alert, int, error) {
	return s.alerts.ListByHospital(ctx, hospitalID, limit, offset)
}
