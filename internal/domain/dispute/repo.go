package dispute

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type DisputeRepository interface {
	Create(ctx context.Context, d *FinancialDispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*FinancialDispute, error)
	Update(ctx context.Context, d *FinancialDispute) error
	List(ctx context.Context, limit, offset int) ([]*FinancialDispute, int, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*FinancialDispute, int, error)
	ListByStatus(ctx context.Context, status DisputeStatus, limit, offset int) ([]*FinancialDispute, int, error)
	CountByHospitalSince(ctx context.Context, hospitalID uuid.UUID, since time.Time) (int, error)
}

type AlertRepository interface {
	Create(ctx context.Context, a *FinancialAlert) error
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*FinancialAlert, int, error)
}
