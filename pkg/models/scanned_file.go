package models

import "time"

// ScannedFile is a digitized legacy paper record awaiting disposition. Two
// independent state machines run over the same row: DigitalDisposition tracks
// what happens to the scan, PhysicalDisposition tracks what happens to the
// paper original. Both are gated on the file not being soft-deleted.
type ScannedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title             string  `gorm:"type:varchar(500);not null" json:"title"`
	Description       *string `gorm:"type:text" json:"description,omitempty"`
	OriginalReference *string `gorm:"type:varchar(255)" json:"originalReference,omitempty"`
	PhysicalLocation  *string `gorm:"type:varchar(255)" json:"physicalLocation,omitempty"`

	// Scan file reference, opaque to this service.
	FileKey  string `gorm:"type:varchar(500);not null" json:"fileKey"`
	FileName string `gorm:"type:varchar(500);not null" json:"fileName"`
	FileSize int64  `gorm:"not null" json:"fileSize"`
	MimeType string `gorm:"type:varchar(100);not null" json:"mimeType"`

	DigitalDisposition  DigitalDisposition  `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"digitalDisposition"`
	PhysicalDisposition PhysicalDisposition `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"physicalDisposition"`

	// Classification outcome (digital ACCEPTED path).
	DocumentTypeID      *uint         `gorm:"index" json:"documentTypeId,omitempty"`
	DocumentType        *DocumentType `json:"documentType,omitempty"`
	ClassificationNotes *string       `gorm:"type:text" json:"classificationNotes,omitempty"`
	ClassifiedByID      *uint         `json:"classifiedById,omitempty"`
	ClassifiedAt        *time.Time    `json:"classifiedAt,omitempty"`

	// Digital DISCARDED path.
	DiscardReason *string `gorm:"type:text" json:"discardReason,omitempty"`

	// Digital UPLOADED path: where the accepted scan ended up.
	ExternalReference *string `gorm:"type:varchar(255)" json:"externalReference,omitempty"`

	// Physical confirmation stamp (DESTROYED / ARCHIVED).
	PhysicalConfirmedByID *uint      `json:"physicalConfirmedById,omitempty"`
	PhysicalConfirmedAt   *time.Time `json:"physicalConfirmedAt,omitempty"`

	TerminatedAt *time.Time `gorm:"index" json:"terminatedAt,omitempty"`

	CreatedByID uint `gorm:"not null" json:"createdById"`
	UpdatedByID uint `gorm:"not null" json:"updatedById"`
}

// TableName specifies the table name.
func (ScannedFile) TableName() string {
	return "scanned_files"
}

// Terminated reports whether the file is soft-deleted.
func (f *ScannedFile) Terminated() bool {
	return f.TerminatedAt != nil
}

// ScannedFileStats is the per-disposition census of live scanned files.
type ScannedFileStats struct {
	Total int64 `json:"total"`

	Pending   int64 `json:"pending"`
	Accepted  int64 `json:"accepted"`
	Uploaded  int64 `json:"uploaded"`
	Discarded int64 `json:"discarded"`

	PhysicalPending   int64 `json:"physicalPending"`
	PhysicalDestroy   int64 `json:"physicalDestroy"`
	PhysicalDestroyed int64 `json:"physicalDestroyed"`
	PhysicalArchive   int64 `json:"physicalArchive"`
	PhysicalArchived  int64 `json:"physicalArchived"`
}
