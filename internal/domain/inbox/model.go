package inbox

import (
	"time"

	"github.com/google/uuid"
)

// Notification types mirror the client views that render them.
const (
	TypeInfo      = "info"
	TypeWarning   = "warning"
	TypeEmergency = "emergency"
	TypeBilling   = "billing"
	TypeSystem    = "system"
)

// Notification maps to the notifications table.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
