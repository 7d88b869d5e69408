package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/codes"
	"github.com/docworks-io/docvault/pkg/models"
)

// RevisionService creates revisions and registers versions under the
// single-active-revision invariant.
type RevisionService struct {
	base
}

// withRevisionIncludes preloads a revision's document, versions newest first
// and workflow with ordered steps.
func withRevisionIncludes(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Document").
		Preload("Document.DocumentType").
		Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Order("document_versions.version_number DESC")
		}).
		Preload("Workflow").
		Preload("Workflow.Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("review_steps.step_order ASC")
		})
}

// CreateRevisionInput opens a new revision with its first version.
type CreateRevisionInput struct {
	// RevisionCode overrides the generated code when set.
	RevisionCode string `json:"revisionCode,omitempty"`
	Comment      string `json:"comment,omitempty"`

	File FileInput `json:"file"`
}

// CreateRevision opens a new DRAFT revision of a document together with
// version 1. Fails with ConflictError while the document still has a DRAFT
// or IN_REVIEW revision; that one must be resolved first.
func (s *RevisionService) CreateRevision(ctx context.Context, ident auth.Identity, documentID uint, in CreateRevisionInput) (*models.DocumentRevision, error) {
	const op = "CREATE_REVISION"
	if err := ident.Require(auth.PermDocumentCreate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if err := in.File.Validate(); err != nil {
		return nil, s.fail(op, ident.UserID, apperr.Validation("%v", err))
	}

	var rev models.DocumentRevision
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the document row for the transaction: the active-revision
		// check and the insert must not interleave with a concurrent
		// CreateRevision on the same document.
		var doc models.Document
		if err := lockForUpdate(tx).First(&doc, documentID).Error; err != nil {
			return apperr.FromStorage(err, "the document does not exist", "")
		}

		if active, err := models.GetActiveRevision(tx, documentID); err == nil {
			return apperr.Conflict(
				"revision %s is still %s; resolve it before creating a new revision",
				active.RevisionCode, active.Status)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.FromStorage(err, "", "")
		}

		revisionCode := in.RevisionCode
		if revisionCode == "" {
			var err error
			revisionCode, err = s.nextRevisionCode(tx, &doc)
			if err != nil {
				return err
			}
		}

		rev = models.DocumentRevision{
			DocumentID:   documentID,
			RevisionCode: revisionCode,
			Status:       models.RevisionStatusDraft,
			Comment:      optional(in.Comment),
			CreatedByID:  ident.UserID,
			UpdatedByID:  ident.UserID,
			Versions: []models.DocumentVersion{{
				VersionNumber: 1,
				FileKey:       in.File.FileKey,
				FileName:      in.File.FileName,
				FileSize:      in.File.FileSize,
				MimeType:      in.File.MimeType,
				Checksum:      optional(in.File.Checksum),
				Comment:       optional(in.Comment),
				CreatedByID:   ident.UserID,
			}},
		}
		if err := tx.Create(&rev).Error; err != nil {
			return apperr.FromStorage(err, "",
				"a revision with this code already exists for this document")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("revision %s opened for document %d", revisionCode, documentID),
			map[string]interface{}{"documentId": documentID, "revisionId": rev.ID})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getRevision(ctx, rev.ID)
}

// nextRevisionCode derives the next code from the document's latest revision
// under the document's scheme. Called with the document row locked.
func (s *RevisionService) nextRevisionCode(tx *gorm.DB, doc *models.Document) (string, error) {
	last, err := models.GetLatestRevision(tx, doc.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if doc.RevisionScheme == models.RevisionSchemeNumeric {
			return codes.FirstNumeric, nil
		}
		return codes.FirstAlphabetical, nil
	}
	if err != nil {
		return "", apperr.FromStorage(err, "", "")
	}

	if doc.RevisionScheme == models.RevisionSchemeNumeric {
		next, err := codes.NextNumeric(last.RevisionCode)
		if err != nil {
			return "", apperr.InvalidState(
				"revision code %q does not fit the NUMERIC scheme; supply a code explicitly",
				last.RevisionCode)
		}
		return next, nil
	}
	return codes.NextAlphabetical(last.RevisionCode), nil
}

// GetRevision returns a revision with document, versions and workflow loaded.
func (s *RevisionService) GetRevision(ctx context.Context, ident auth.Identity, id uint) (*models.DocumentRevision, error) {
	const op = "GET_REVISION_BY_ID"
	if err := ident.Require(auth.PermDocumentRead); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	rev, err := s.getRevision(ctx, id)
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	return rev, nil
}

func (s *RevisionService) getRevision(ctx context.Context, id uint) (*models.DocumentRevision, error) {
	var rev models.DocumentRevision
	err := withRevisionIncludes(s.conn(ctx)).First(&rev, id).Error
	if err != nil {
		return nil, apperr.FromStorage(err, "the revision does not exist", "")
	}
	return &rev, nil
}

// RegisterVersionInput adds a file snapshot to a DRAFT revision.
type RegisterVersionInput struct {
	Comment string    `json:"comment,omitempty"`
	File    FileInput `json:"file"`
}

// RegisterVersion appends the next version to a DRAFT revision. Versions are
// immutable once created; revisions past DRAFT accept no new versions.
func (s *RevisionService) RegisterVersion(ctx context.Context, ident auth.Identity, revisionID uint, in RegisterVersionInput) (*models.DocumentVersion, error) {
	const op = "REGISTER_VERSION"
	if err := ident.Require(auth.PermDocumentCreate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if err := in.File.Validate(); err != nil {
		return nil, s.fail(op, ident.UserID, apperr.Validation("%v", err))
	}

	var version models.DocumentVersion
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var rev models.DocumentRevision
		if err := lockForUpdate(tx).First(&rev, revisionID).Error; err != nil {
			return apperr.FromStorage(err, "the revision does not exist", "")
		}
		if rev.Status != models.RevisionStatusDraft {
			return apperr.InvalidState(
				"versions can only be added while the revision is DRAFT (current: %s)", rev.Status)
		}

		nextNumber := 1
		if last, err := models.GetLatestVersion(tx, revisionID); err == nil {
			nextNumber = last.VersionNumber + 1
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.FromStorage(err, "", "")
		}

		version = models.DocumentVersion{
			RevisionID:    revisionID,
			VersionNumber: nextNumber,
			FileKey:       in.File.FileKey,
			FileName:      in.File.FileName,
			FileSize:      in.File.FileSize,
			MimeType:      in.File.MimeType,
			Checksum:      optional(in.File.Checksum),
			Comment:       optional(in.Comment),
			CreatedByID:   ident.UserID,
		}
		if err := tx.Create(&version).Error; err != nil {
			return apperr.FromStorage(err, "",
				"a version with this number already exists for this revision")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("version %d registered for revision %d", nextNumber, revisionID),
			map[string]interface{}{"revisionId": revisionID, "versionId": version.ID})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	err = s.conn(ctx).
		Preload("Revision").
		Preload("Revision.Document").
		First(&version, version.ID).Error
	if err != nil {
		return nil, s.storage(op, ident.UserID, err, "the version does not exist", "")
	}
	return &version, nil
}
