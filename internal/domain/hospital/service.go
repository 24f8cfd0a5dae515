package hospital

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	hospitals Repository
	financial FinancialDataRepository
	metrics   MetricRepository
	analytics AnalyticsRepository
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(hospitals Repository, financial FinancialDataRepository, metrics MetricRepository, analytics AnalyticsRepository, logger zerolog.Logger) *Service {
	return &Service{
		hospitals: hospitals,
		financial: financial,
		metrics:   metrics,
		analytics: analytics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Create(ctx context.Context, h *Hospital) error {
	if h.Name == "" {
		return fmt.Errorf("name is required")
	}
	h.IsActive = true
	return s.hospitals.Create(ctx, h)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, h *Hospital) error {
	if h.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.hospitals.Update(ctx, h)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.hospitals.List(ctx, limit, offset)
}

func (s *Service) PutFinancialData(ctx context.Context, d *FinancialData) error {
	if d.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if d.Period == "" {
		return fmt.Errorf("period is required")
	}
	if d.Revenue < 0 || d.Expenses < 0 {
		return fmt.Errorf("revenue and expenses must not be negative")
	}
	return s.financial.Upsert(ctx, d)
}

func (s *Service) FinancialHistory(ctx context.Context, hospitalID uuid.UUID) ([]*FinancialData, error) {
	return s.financial.ListByHospital(ctx, hospitalID)
}

func (s *Service) RecordMetric(ctx context.Context, m *PerformanceMetric) error {
	if m.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if m.MetricName == "" {
		return fmt.Errorf("metric_name is required")
	}
	return s.metrics.Record(ctx, m)
}

func (s *Service) Metrics(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]*PerformanceMetric, error) {
	return s.metrics.ListByHospital(ctx, hospitalID, from, to)
}

// Analytics fetches the hospital's session, waitlist and dispute rows for
// the range and aggregates them. Defaults to the trailing 30 days when the
// range is unset.
func (s *Service) Analytics(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) (*Analytics, error) {
	if _, err := s.hospitals.GetByID(ctx, hospitalID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-30 * 24 * time.Hour)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("from must precede to")
	}

	sessions, err := s.analytics.SessionsForHospital(ctx, hospitalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}
	depth, err := s.analytics.WaitlistDepth(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("fetch waitlist depth: %w", err)
	}
	disputes, err := s.analytics.DisputeTotals(ctx, hospitalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch dispute totals: %w", err)
	}
	return BuildAnalytics(hospitalID, from, to, sessions, depth, disputes), nil
}
