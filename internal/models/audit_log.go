package models

import (
	"time"

	"gorm.io/gorm"

	"herdsnap/internal/uuid"
)

// Audit actions.
const (
	AuditCreateSnapshot = "CREATE_SNAPSHOT"
	AuditDeleteSnapshot = "DELETE_SNAPSHOT"
)

// AuditResourceSnapshot is the resource type of every snapshot event.
const AuditResourceSnapshot = "snapshot"

// AuditLog is an append-only record of a snapshot being created or deleted.
// Changes holds a JSON summary of what the event did.
type AuditLog struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string    `gorm:"not null;index" json:"user_id"`
	Action       string    `gorm:"not null" json:"action"`
	ResourceType string    `gorm:"not null" json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	IPAddress    string    `json:"ip_address"`
	Changes      string    `json:"changes,omitempty"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New()
	}
	return nil
}
