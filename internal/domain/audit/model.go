package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AdminAction maps to the admin_actions table. Other domains append rows
// through the service when privileged operations run.
type AdminAction struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	AdminID    uuid.UUID       `db:"admin_id" json:"admin_id"`
	ActionType string          `db:"action_type" json:"action_type"`
	TargetType *string         `db:"target_type" json:"target_type,omitempty"`
	TargetID   *uuid.UUID      `db:"target_id" json:"target_id,omitempty"`
	Details    json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// UserActivityLog maps to the user_activity_logs table.
type UserActivityLog struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	ActivityType string    `db:"activity_type" json:"activity_type"`
	Description  *string   `db:"description" json:"description,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SystemSetting maps to the system_settings table, one row per key.
type SystemSetting struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Key       string          `db:"key" json:"key"`
	Value     json.RawMessage `db:"value" json:"value"`
	UpdatedBy *uuid.UUID      `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
