package consultation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session or room row does not exist.
var ErrNotFound = errors.New("not found")

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	List(ctx context.Context, limit, offset int) ([]*Session, int, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Session, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Session, int, error)
	// ExpireScheduledBefore marks scheduled sessions created before the cutoff
	// as expired and returns how many rows changed.
	ExpireScheduledBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type RoomRepository interface {
	Create(ctx context.Context, r *Room) error
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*Room, error)
	Update(ctx context.Context, r *Room) error
}
