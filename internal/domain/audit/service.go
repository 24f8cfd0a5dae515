package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Listing endpoints cap the page size regardless of what the caller asks
// for; audit tables grow without bound.
const maxPageSize = 100

type Service struct {
	actions  AdminActionRepository
	activity ActivityLogRepository
	settings SettingRepository
	logger   zerolog.Logger
}

func NewService(actions AdminActionRepository, activity ActivityLogRepository, settings SettingRepository, logger zerolog.Logger) *Service {
	return &Service{actions: actions, activity: activity, settings: settings, logger: logger}
}

// LogAdminAction appends an admin action row. Called by other domains when
// privileged operations run; failures are logged, not returned.
func (s *Service) LogAdminAction(ctx context.Context, adminID uuid.UUID, actionType, targetType string, targetID uuid.UUID, details interface{}) {
	a := &AdminAction{AdminID: adminID, ActionType: actionType}
	if targetType != "" {
		a.TargetType = &targetType
	}
	if targetID != uuid.Nil {
		a.TargetID = &targetID
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			a.Details = raw
		}
	}
	if err := s.actions.Create(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("action_type", actionType).Msg("record admin action")
	}
}

// RecordAdminAction is the strict variant behind the POST endpoint.
func (s *Service) RecordAdminAction(ctx context.Context, a *AdminAction) error {
	if a.AdminID == uuid.Nil {
		return fmt.Errorf("admin_id is required")
	}
	if a.ActionType == "" {
		return fmt.Errorf("action_type is required")
	}
	return s.actions.Create(ctx, a)
}

func (s *Service) ListAdminActions(ctx context.Context, f ActionFilter, limit, offset int) ([]*AdminAction, int, error) {
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.actions.List(ctx, f, limit, offset)
}

func (s *Service) LogActivity(ctx context.Context, l *UserActivityLog) error {
	if l.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if l.ActivityType == "" {
		return fmt.Errorf("activity_type is required")
	}
	return s.activity.Create(ctx, l)
}

func (s *Service) ListActivity(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*UserActivityLog, int, error) {
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.activity.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) PutSetting(ctx context.Context, setting *SystemSetting) error {
	if setting.Key == "" {
		return fmt.Errorf("key is required")
	}
	if len(setting.Value) == 0 || !json.Valid(setting.Value) {
		return fmt.Errorf("value must be valid JSON")
	}
	return s.settings.Upsert(ctx, setting)
}

func (s *Service) GetSetting(ctx context.Context, key string) (*SystemSetting, error) {
	return s.settings.Get(ctx, key)
}

func (s *Service) ListSettings(ctx context.Context) ([]*SystemSetting, error) {
	return s.settings.List(ctx)
}
