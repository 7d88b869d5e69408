package models

import (
	"time"

	"gorm.io/gorm"
)

// DocumentRevision is one formally tracked line of a document's content,
// identified by a sequential revision code and cycling through
// DRAFT -> IN_REVIEW -> APPROVED, with APPROVED revisions superseded when a
// newer revision is approved.
type DocumentRevision struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	DocumentID uint      `gorm:"not null;index;uniqueIndex:idx_revisions_document_code" json:"documentId"`
	Document   *Document `json:"document,omitempty"`

	RevisionCode string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_revisions_document_code" json:"revisionCode"`
	Status       RevisionStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Comment      *string        `gorm:"type:text" json:"comment,omitempty"`

	ApprovedByID *uint      `json:"approvedById,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`

	CreatedByID uint `gorm:"not null" json:"createdById"`
	UpdatedByID uint `gorm:"not null" json:"updatedById"`

	Versions []DocumentVersion `gorm:"foreignKey:RevisionID" json:"versions,omitempty"`
	Workflow *ReviewWorkflow   `gorm:"foreignKey:RevisionID" json:"workflow,omitempty"`
}

// TableName specifies the table name.
func (DocumentRevision) TableName() string {
	return "document_revisions"
}

// CurrentVersion returns the loaded version with the greatest version number,
// or nil when none are loaded.
func (r *DocumentRevision) CurrentVersion() *DocumentVersion {
	var current *DocumentVersion
	for i := range r.Versions {
		v := &r.Versions[i]
		if current == nil || v.VersionNumber > current.VersionNumber {
			current = v
		}
	}
	return current
}

// DocumentVersion is an immutable file snapshot within a revision. Versions
// are only added while the owning revision is DRAFT and are never updated, so
// the row has no UpdatedAt.
type DocumentVersion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	RevisionID uint              `gorm:"not null;index;uniqueIndex:idx_versions_revision_number" json:"revisionId"`
	Revision   *DocumentRevision `json:"revision,omitempty"`

	VersionNumber int `gorm:"not null;uniqueIndex:idx_versions_revision_number" json:"versionNumber"`

	// File reference, opaque to this service. The blob itself lives in
	// external storage under FileKey.
	FileKey  string  `gorm:"type:varchar(500);not null" json:"fileKey"`
	FileName string  `gorm:"type:varchar(500);not null" json:"fileName"`
	FileSize int64   `gorm:"not null" json:"fileSize"`
	MimeType string  `gorm:"type:varchar(100);not null" json:"mimeType"`
	Checksum *string `gorm:"type:varchar(128)" json:"checksum,omitempty"`

	Comment *string `gorm:"type:text" json:"comment,omitempty"`

	CreatedByID uint `gorm:"not null" json:"createdById"`
}

// TableName specifies the table name.
func (DocumentVersion) TableName() string {
	return "document_versions"
}

// GetLatestVersion returns the highest-numbered version of a revision, or
// gorm.ErrRecordNotFound when the revision has none.
func GetLatestVersion(db *gorm.DB, revisionID uint) (*DocumentVersion, error) {
	var v DocumentVersion
	err := db.
		Where("revision_id = ?", revisionID).
		Order("version_number DESC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}
