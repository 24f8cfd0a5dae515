package compliance

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, r *Report) error
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Report, int, error)
	ListByStatus(ctx context.Context, status ReportStatus, limit, offset int) ([]*Report, int, error)
}

type TrackingRepository interface {
	Upsert(ctx context.Context, t *Tracking) error
	ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*Tracking, error)
}

type AlertRepository interface {
	Create(ctx context.Context, a *Alert) error
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Alert, int, error)
}
