package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TableName  = "audit_logs"
	EntityName = "audit_log"

	FieldID         = "id"
	FieldActorID    = "actor_id"
	FieldAction     = "action"
	FieldEntityType = "entity_type"
	FieldEntityID   = "entity_id"
	FieldDetails    = "details"
	FieldIPAddress  = "ip_address"
	FieldUserAgent  = "user_agent"
	FieldCreatedAt  = "created_at"
)

// Audit actions recorded by the core.
const (
	ActionBookingCreated        = "booking.created"
	ActionBookingStatusChanged  = "booking.status_changed"
	ActionBookingPaymentUpdated = "booking.payment_updated"
	ActionBookingUpdated        = "booking.updated"
	ActionServiceCreated        = "service.created"
	ActionServiceUpdated        = "service.updated"
	ActionServiceDeleted        = "service.deleted"
	ActionAccountRoleChanged    = "account.role_changed"
	ActionAuthorizationDenied   = "authorization.denied"
)

const (
	EntityTypeBooking = "booking"
	EntityTypeService = "service"
	EntityTypeAccount = "account"
)

// Details is an opaque key-value payload stored as JSONB.
type Details map[string]any

func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}

	value, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit details: %w", err)
	}

	return value, nil
}

func (d *Details) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d) //nolint:wrapcheck
	case string:
		return json.Unmarshal([]byte(v), d) //nolint:wrapcheck
	case nil:
		*d = nil

		return nil
	default:
		return fmt.Errorf("unsupported audit details type %T", src)
	}
}

// AuditLog is immutable once written; the core never updates or deletes
// individual entries.
type AuditLog struct {
	ID         string    `db:"id"`
	ActorID    string    `db:"actor_id"`
	Action     string    `db:"action"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	Details    Details   `db:"details"`
	IPAddress  string    `db:"ip_address"`
	UserAgent  string    `db:"user_agent"`
	CreatedAt  time.Time `db:"created_at"`
}

func New(actorID, action, entityType, entityID string, details Details, now time.Time) AuditLog {
	return AuditLog{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  now,
	}
}
