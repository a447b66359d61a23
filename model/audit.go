package model

import "time"

type AuditEntityType string

type AuditAction string

var (
	AUDIT_ENTITY_TRANSACTION AuditEntityType = "TRANSACTION"
	AUDIT_ENTITY_BATCH       AuditEntityType = "BATCH"

	AUDIT_CREATED AuditAction = "CREATED"
	AUDIT_UPDATED AuditAction = "UPDATED"
)

// AuditLog rows are append only. Nothing updates or deletes them.
type AuditLog struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	EntityType AuditEntityType `gorm:"index:idx_audit_entity"`

	EntityID uint `gorm:"index:idx_audit_entity"`

	Action AuditAction

	PreviousState string

	CurrentState string

	Details string

	ActorID string

	CreatedAt time.Time `gorm:"index:idx_audit_time"`
}
