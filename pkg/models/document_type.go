package models

import "time"

// DocumentType classifies documents and accepted scanned files (drawing,
// specification, procedure, ...). Reference data with a stable code.
type DocumentType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Code        string  `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`

	TerminatedAt *time.Time `gorm:"index" json:"terminatedAt,omitempty"`
}

// TableName specifies the table name.
func (DocumentType) TableName() string {
	return "document_types"
}
