package hospital

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	List(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
}

type FinancialDataRepository interface {
	Upsert(ctx context.Context, d *FinancialData) error
	ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*FinancialData, error)
}

type MetricRepository interface {
	Record(ctx context.Context, m *PerformanceMetric) error
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]*PerformanceMetric, error)
}

// AnalyticsRepository reads the rows analytics aggregates over. It is a
// read-only view across tables owned by other domains.
type AnalyticsRepository interface {
	SessionsForHospital(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]SessionRecord, error)
	WaitlistDepth(ctx context.Context, hospitalID uuid.UUID) (int, error)
	DisputeTotals(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) (DisputeTotals, error)
}
