package emergency

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type RequestRepository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	Update(ctx context.Context, r *Request) error
	List(ctx context.Context, limit, offset int) ([]*Request, int, error)
	ListByStatus(ctx context.Context, status RequestStatus, limit, offset int) ([]*Request, int, error)
}

type BroadcastRepository interface {
	Create(ctx context.Context, b *Broadcast) error
	List(ctx context.Context, limit, offset int) ([]*Broadcast, int, error)
}
