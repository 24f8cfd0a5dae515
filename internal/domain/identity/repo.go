package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	List(ctx context.Context, limit, offset int) ([]*Profile, int, error)
	ListActiveByRole(ctx context.Context, role string) ([]*Profile, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Profile, int, error)
}

type AssistedPatientRepository interface {
	Create(ctx context.Context, a *AgentAssistedPatient) error
	ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*AgentAssistedPatient, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
