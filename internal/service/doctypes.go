package service

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/models"
)

// DocumentTypeService manages the document type reference data.
type DocumentTypeService struct {
	base
}

// CreateDocumentTypeInput registers a new type.
type CreateDocumentTypeInput struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks the code and name.
func (in CreateDocumentTypeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Code, validation.Required, validation.Length(1, 50)),
		validation.Field(&in.Name, validation.Required),
	)
}

// CreateDocumentType registers a new document type. Codes are unique.
func (s *DocumentTypeService) CreateDocumentType(ctx context.Context, ident auth.Identity, in CreateDocumentTypeInput) (*models.DocumentType, error) {
	const op = "CREATE_DOCUMENT_TYPE"
	if err := ident.Require(auth.PermDocumentTypeCreate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if err := in.Validate(); err != nil {
		return nil, s.fail(op, ident.UserID, apperr.Validation("%v", err))
	}

	dt := models.DocumentType{
		Code:        in.Code,
		Name:        in.Name,
		Description: optional(in.Description),
	}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dt).Error; err != nil {
			return apperr.FromStorage(err, "", "a document type with this code already exists")
		}
		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("document type %s created", dt.Code),
			map[string]interface{}{"documentTypeId": dt.ID})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	return &dt, nil
}

// GetDocumentType returns one type by id.
func (s *DocumentTypeService) GetDocumentType(ctx context.Context, ident auth.Identity, id uint) (*models.DocumentType, error) {
	const op = "GET_DOCUMENT_TYPE_BY_ID"
	if err := ident.Require(auth.PermDocumentTypeRead); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	var dt models.DocumentType
	if err := s.conn(ctx).First(&dt, id).Error; err != nil {
		return nil, s.storage(op, ident.UserID, err, "the document type does not exist", "")
	}
	return &dt, nil
}

// ListDocumentTypes returns types ordered by code.
func (s *DocumentTypeService) ListDocumentTypes(ctx context.Context, ident auth.Identity, filter models.TerminatedFilter) ([]models.DocumentType, error) {
	const op = "GET_DOCUMENT_TYPES"
	if err := ident.Require(auth.PermDocumentTypeList); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	var types []models.DocumentType
	err := s.conn(ctx).
		Scopes(terminatedScope(filter)).
		Order("code ASC").
		Find(&types).Error
	if err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}
	return types, nil
}

// DocumentTypeOptions returns live types as value/label pairs.
func (s *DocumentTypeService) DocumentTypeOptions(ctx context.Context, ident auth.Identity) ([]SelectOption, error) {
	const op = "GET_DOCUMENT_TYPE_OPTIONS"
	if err := ident.Require(auth.PermDocumentTypeList); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	var types []models.DocumentType
	err := s.conn(ctx).
		Where("terminated_at IS NULL").
		Order("code ASC").
		Find(&types).Error
	if err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	options := make([]SelectOption, 0, len(types))
	for _, dt := range types {
		options = append(options, SelectOption{
			Value: fmt.Sprint(dt.ID),
			Label: dt.Code + " - " + dt.Name,
		})
	}
	return options, nil
}
