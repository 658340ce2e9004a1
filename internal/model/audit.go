package model

import (
	"time"
)

// Audit actions recorded for admin mutations.
const (
	AuditActionUpdate    = "update"
	AuditActionDelete    = "delete"
	AuditActionTerminate = "terminate"
	AuditActionUnlock    = "unlock"
)

// AuditLog is an append-only record of an admin action against a user
// account. Rows are never updated or deleted.
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ActorID   uint      `json:"actorID" gorm:"index;not null"`
	Action    string    `json:"action" gorm:"type:varchar(20);not null"`
	TargetID  uint      `json:"targetID" gorm:"index;not null"`
	Detail    string    `json:"detail" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"createdAt"`
}
