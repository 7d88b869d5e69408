package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is a controlled engineering or quality document. The document row
// itself carries identity and classification; all content lives in its
// revisions. A document has at most one revision with an open line of work
// (DRAFT or IN_REVIEW) and at most one APPROVED revision at any time.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Identity. Code is unique within its module/entity context, not
	// globally: the same drawing number may exist in different modules.
	Code        string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_documents_code_context" json:"code"`
	Title       string  `gorm:"type:varchar(500);not null" json:"title"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	Module      string  `gorm:"type:varchar(50);not null;uniqueIndex:idx_documents_code_context" json:"module"`
	// Context columns are non-null with zero defaults: NULLs never compare
	// equal in a unique index, which would defeat the uniqueness guarantee.
	EntityType string `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_documents_code_context" json:"entityType,omitempty"`
	EntityID   uint   `gorm:"not null;default:0;uniqueIndex:idx_documents_code_context" json:"entityId,omitempty"`

	DocumentTypeID uint          `gorm:"not null;index" json:"documentTypeId"`
	DocumentType   *DocumentType `json:"documentType,omitempty"`

	RevisionScheme RevisionScheme `gorm:"type:varchar(20);not null;default:'ALPHABETICAL'" json:"revisionScheme"`

	// Soft delete. Terminated documents stay queryable for history.
	TerminatedAt *time.Time `gorm:"index" json:"terminatedAt,omitempty"`

	CreatedByID uint `gorm:"not null" json:"createdById"`
	UpdatedByID uint `gorm:"not null" json:"updatedById"`

	Revisions []DocumentRevision `json:"revisions,omitempty"`
}

// TableName specifies the table name.
func (Document) TableName() string {
	return "documents"
}

// BeforeCreate hook to default the revision scheme.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.RevisionScheme == "" {
		d.RevisionScheme = RevisionSchemeAlphabetical
	}
	return nil
}

// Terminated reports whether the document is soft-deleted.
func (d *Document) Terminated() bool {
	return d.TerminatedAt != nil
}

// CurrentRevision selects the revision callers should see as "current" from
// the loaded Revisions collection: the APPROVED revision if one exists, else
// the active (DRAFT or IN_REVIEW) one, else the most recently created.
func (d *Document) CurrentRevision() *DocumentRevision {
	var newest *DocumentRevision
	var active *DocumentRevision
	for i := range d.Revisions {
		rev := &d.Revisions[i]
		if rev.Status == RevisionStatusApproved {
			return rev
		}
		if rev.Status.Active() && active == nil {
			active = rev
		}
		if newest == nil || rev.CreatedAt.After(newest.CreatedAt) {
			newest = rev
		}
	}
	if active != nil {
		return active
	}
	return newest
}

// GetActiveRevision returns the document's DRAFT or IN_REVIEW revision, or
// gorm.ErrRecordNotFound when none exists. Run inside the caller's
// transaction when the result guards a write.
func GetActiveRevision(db *gorm.DB, documentID uint) (*DocumentRevision, error) {
	var rev DocumentRevision
	err := db.
		Where("document_id = ? AND status IN ?", documentID,
			[]RevisionStatus{RevisionStatusDraft, RevisionStatusInReview}).
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// GetLatestRevision returns the most recently created revision of a document,
// or gorm.ErrRecordNotFound when the document has none.
func GetLatestRevision(db *gorm.DB, documentID uint) (*DocumentRevision, error) {
	var rev DocumentRevision
	err := db.
		Where("document_id = ?", documentID).
		Order("created_at DESC, id DESC").
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
