package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is one append-only record of an operation outcome. Every core
// operation writes one on success and one on failure; rows are never updated
// or deleted.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	// TraceID correlates the audit row with application log lines for the
	// same operation.
	TraceID uuid.UUID `gorm:"type:uuid;not null;index" json:"traceId"`

	Name    string   `gorm:"type:varchar(100);not null;index" json:"name"`
	Level   LogLevel `gorm:"type:varchar(10);not null;index" json:"level"`
	Message string   `gorm:"type:text;not null" json:"message"`

	UserID uint `gorm:"not null;index" json:"userId"`

	// Meta carries structured context: the serialized error for failures,
	// operation-specific details otherwise.
	Meta JSON `gorm:"type:jsonb" json:"meta,omitempty"`
}

// TableName specifies the table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate hook to ensure a trace id is always present.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.TraceID == uuid.Nil {
		a.TraceID = uuid.New()
	}
	return nil
}
