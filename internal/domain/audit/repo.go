package audit

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// ActionFilter narrows admin action listings. Zero values mean no filter.
type ActionFilter struct {
	AdminID    uuid.UUID
	ActionType string
	From       string
	To         string
}

type AdminActionRepository interface {
	Create(ctx context.Context, a *AdminAction) error
	List(ctx context.Context, f ActionFilter, limit, offset int) ([]*AdminAction, int, error)
}

type ActivityLogRepository interface {
	Create(ctx context.Context, l *UserActivityLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*UserActivityLog, int, error)
}

type SettingRepository interface {
	Upsert(ctx context.Context, s *SystemSetting) error
	Get(ctx context.Context, key string) (*SystemSetting, error)
	List(ctx context.Context) ([]*SystemSetting, error)
}
