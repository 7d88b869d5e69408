package service

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/codes"
	"github.com/docworks-io/docvault/pkg/models"
	"github.com/docworks-io/docvault/pkg/pagination"
)

// DocumentService owns the document aggregate and the per-document revision
// invariants: at most one active revision and at most one approved revision
// per document.
type DocumentService struct {
	base
}

// documentColumns maps list order fields to columns.
var documentColumns = map[string]string{
	"CODE":       "code",
	"TITLE":      "title",
	"CREATED_AT": "created_at",
	"UPDATED_AT": "updated_at",
	"MODULE":     "module",
}

// withDocumentIncludes preloads the full document aggregate: type, revisions
// newest first, each revision's versions newest first and its workflow with
// ordered steps.
func withDocumentIncludes(db *gorm.DB) *gorm.DB {
	return db.
		Preload("DocumentType").
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("document_revisions.created_at DESC")
		}).
		Preload("Revisions.Versions", func(db *gorm.DB) *gorm.DB {
			return db.Order("document_versions.version_number DESC")
		}).
		Preload("Revisions.Workflow").
		Preload("Revisions.Workflow.Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("review_steps.step_order ASC")
		})
}

// FileInput is the opaque file reference carried by a new version.
type FileInput struct {
	FileKey  string `json:"fileKey"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
	Checksum string `json:"checksum,omitempty"`
}

// Validate checks the file reference fields.
func (in FileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FileKey, validation.Required),
		validation.Field(&in.FileName, validation.Required),
		validation.Field(&in.FileSize, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.MimeType, validation.Required),
	)
}

// CreateDocumentInput creates a document together with its first revision and
// version.
type CreateDocumentInput struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Module      string `json:"module"`
	EntityType  string `json:"entityType,omitempty"`
	EntityID    uint   `json:"entityId,omitempty"`

	DocumentTypeID uint `json:"documentTypeId"`

	RevisionScheme      models.RevisionScheme `json:"revisionScheme,omitempty"`
	InitialRevisionCode string                `json:"initialRevisionCode,omitempty"`

	File FileInput `json:"file"`
}

// Validate checks required identity fields and the file reference.
func (in CreateDocumentInput) Validate() error {
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.Code, validation.Required),
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Module, validation.Required),
		validation.Field(&in.DocumentTypeID, validation.Required),
	); err != nil {
		return err
	}
	if in.RevisionScheme != "" && !in.RevisionScheme.Valid() {
		return fmt.Errorf("revisionScheme: must be ALPHABETICAL or NUMERIC")
	}
	return in.File.Validate()
}

// CreateDocument creates a document, its first DRAFT revision and version 1
// as one atomic unit.
func (s *DocumentService) CreateDocument(ctx context.Context, ident auth.Identity, in CreateDocumentInput) (*models.Document, error) {
	const op = "CREATE_DOCUMENT"
	if err := ident.Require(auth.PermDocumentCreate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if err := in.Validate(); err != nil {
		return nil, s.fail(op, ident.UserID, apperr.Validation("%v", err))
	}

	scheme := in.RevisionScheme
	if scheme == "" {
		scheme = models.RevisionSchemeAlphabetical
	}
	revisionCode := in.InitialRevisionCode
	if revisionCode == "" {
		revisionCode = codes.FirstAlphabetical
		if scheme == models.RevisionSchemeNumeric {
			revisionCode = codes.FirstNumeric
		}
	}

	doc := models.Document{
		Code:           in.Code,
		Title:          in.Title,
		Description:    optional(in.Description),
		Module:         in.Module,
		EntityType:     in.EntityType,
		EntityID:       in.EntityID,
		DocumentTypeID: in.DocumentTypeID,
		RevisionScheme: scheme,
		CreatedByID:    ident.UserID,
		UpdatedByID:    ident.UserID,
		Revisions: []models.DocumentRevision{{
			RevisionCode: revisionCode,
			Status:       models.RevisionStatusDraft,
			CreatedByID:  ident.UserID,
			UpdatedByID:  ident.UserID,
			Versions: []models.DocumentVersion{{
				VersionNumber: 1,
				FileKey:       in.File.FileKey,
				FileName:      in.File.FileName,
				FileSize:      in.File.FileSize,
				MimeType:      in.File.MimeType,
				Checksum:      optional(in.File.Checksum),
				CreatedByID:   ident.UserID,
			}},
		}},
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return apperr.FromStorage(err,
				"the document type does not exist",
				"a document with this code already exists in this context")
		}
		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("document %s created with revision %s", doc.Code, revisionCode),
			map[string]interface{}{"documentId": doc.ID})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getDocument(ctx, doc.ID)
}

// GetDocument returns a document with its full aggregate loaded.
func (s *DocumentService) GetDocument(ctx context.Context, ident auth.Identity, id uint) (*models.Document, error) {
	const op = "GET_DOCUMENT_BY_ID"
	if err := ident.Require(auth.PermDocumentRead); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	return doc, nil
}

func (s *DocumentService) getDocument(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	err := withDocumentIncludes(s.conn(ctx)).First(&doc, id).Error
	if err != nil {
		return nil, apperr.FromStorage(err, "the document does not exist", "")
	}
	return &doc, nil
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Query            string                  `json:"query,omitempty"`
	Module           string                  `json:"module,omitempty"`
	DocumentTypeID   uint                    `json:"documentTypeId,omitempty"`
	RevisionStatus   models.RevisionStatus   `json:"revisionStatus,omitempty"`
	TerminatedFilter models.TerminatedFilter `json:"terminatedFilter,omitempty"`
}

// ListDocuments returns a filtered, ordered page of documents.
func (s *DocumentService) ListDocuments(ctx context.Context, ident auth.Identity, filter DocumentFilter, page *pagination.Input, order *OrderBy) (*pagination.ListResponse[models.Document], error) {
	const op = "GET_DOCUMENTS"
	if err := ident.Require(auth.PermDocumentList); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	skip, take := pagination.Normalize(page)

	q := s.conn(ctx).Model(&models.Document{}).
		Scopes(terminatedScope(filter.TerminatedFilter))
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("code LIKE ? OR title LIKE ? OR description LIKE ?", like, like, like)
	}
	if filter.Module != "" {
		q = q.Where("module = ?", filter.Module)
	}
	if filter.DocumentTypeID != 0 {
		q = q.Where("document_type_id = ?", filter.DocumentTypeID)
	}
	if filter.RevisionStatus != "" {
		q = q.Where("EXISTS (SELECT 1 FROM document_revisions r WHERE r.document_id = documents.id AND r.status = ?)",
			filter.RevisionStatus)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	var docs []models.Document
	err := withDocumentIncludes(q.Session(&gorm.Session{})).
		Order(orderClause(order, documentColumns, "created_at DESC")).
		Offset(skip).Limit(take).
		Find(&docs).Error
	if err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	resp := pagination.NewListResponse(docs, total, skip, take)
	return &resp, nil
}

// DocumentOptions returns live documents as value/label pairs for selection
// lists, ordered by code.
func (s *DocumentService) DocumentOptions(ctx context.Context, ident auth.Identity, filter DocumentFilter) ([]SelectOption, error) {
	const op = "GET_DOCUMENT_OPTIONS"
	if err := ident.Require(auth.PermDocumentSelect); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	q := s.conn(ctx).Model(&models.Document{}).Where("terminated_at IS NULL")
	if filter.Module != "" {
		q = q.Where("module = ?", filter.Module)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("code LIKE ? OR title LIKE ?", like, like)
	}

	var docs []models.Document
	if err := q.Select("id", "code", "title").Order("code ASC").Find(&docs).Error; err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	options := make([]SelectOption, 0, len(docs))
	for _, d := range docs {
		options = append(options, SelectOption{
			Value: fmt.Sprint(d.ID),
			Label: d.Code + " - " + d.Title,
		})
	}
	return options, nil
}

// UpdateDocumentInput changes a document's descriptive fields. Nil fields are
// left untouched.
type UpdateDocumentInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UpdateDocument updates title and/or description.
func (s *DocumentService) UpdateDocument(ctx context.Context, ident auth.Identity, id uint, in UpdateDocumentInput) (*models.Document, error) {
	const op = "UPDATE_DOCUMENT"
	if err := ident.Require(auth.PermDocumentUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if in.Title != nil && *in.Title == "" {
		return nil, s.fail(op, ident.UserID, apperr.Validation("title cannot be empty"))
	}

	updates := map[string]interface{}{"updated_by_id": ident.UserID}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Document{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return apperr.FromStorage(res.Error, "", "")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("the document does not exist")
		}
		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("document %d updated", id),
			map[string]interface{}{"documentId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	return s.getDocument(ctx, id)
}

// TerminateDocument soft-deletes a document. Its revisions stay readable.
func (s *DocumentService) TerminateDocument(ctx context.Context, ident auth.Identity, id uint) (*models.Document, error) {
	return s.setTerminated(ctx, ident, id, auth.PermDocumentDelete, "TERMINATE_DOCUMENT", true)
}

// ActivateDocument clears the soft-delete marker.
func (s *DocumentService) ActivateDocument(ctx context.Context, ident auth.Identity, id uint) (*models.Document, error) {
	return s.setTerminated(ctx, ident, id, auth.PermDocumentUpdate, "ACTIVATE_DOCUMENT", false)
}

func (s *DocumentService) setTerminated(ctx context.Context, ident auth.Identity, id uint, perm, op string, terminated bool) (*models.Document, error) {
	if err := ident.Require(perm); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	var terminatedAt interface{}
	if terminated {
		terminatedAt = time.Now()
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Document{}).Where("id = ?", id).Updates(map[string]interface{}{
			"terminated_at": terminatedAt,
			"updated_by_id": ident.UserID,
		})
		if res.Error != nil {
			return apperr.FromStorage(res.Error, "", "")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("the document does not exist")
		}
		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("document %d terminated=%t", id, terminated),
			map[string]interface{}{"documentId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	return s.getDocument(ctx, id)
}

// SwitchRevisionScheme changes how future revision codes are generated.
// Requesting the scheme already in force is rejected, not treated as a no-op.
func (s *DocumentService) SwitchRevisionScheme(ctx context.Context, ident auth.Identity, id uint, scheme models.RevisionScheme) (*models.Document, error) {
	const op = "SWITCH_REVISION_SCHEME"
	if err := ident.Require(auth.PermDocumentUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if !scheme.Valid() {
		return nil, s.fail(op, ident.UserID,
			apperr.Validation("revision scheme must be ALPHABETICAL or NUMERIC"))
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := lockForUpdate(tx).First(&doc, id).Error; err != nil {
			return apperr.FromStorage(err, "the document does not exist", "")
		}
		if doc.RevisionScheme == scheme {
			return apperr.InvalidState("the document already uses the %s revision scheme", scheme)
		}
		if err := tx.Model(&doc).Updates(map[string]interface{}{
			"revision_scheme": scheme,
			"updated_by_id":   ident.UserID,
		}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}
		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("document %d switched to %s revisions", id, scheme),
			map[string]interface{}{"documentId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	return s.getDocument(ctx, id)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
