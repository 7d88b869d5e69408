package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/internal/notify"
	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/codes"
	"github.com/docworks-io/docvault/pkg/models"
	"github.com/docworks-io/docvault/pkg/pagination"
)

// TransmittalService drives the transmittal lifecycle:
// DRAFT -> ISSUED -> (ACKNOWLEDGED) -> RESPONDED -> CLOSED. Codes are
// sequential (TR-001, TR-002, ...) and assigned inside the creating
// transaction so no two transmittals can draw the same number.
type TransmittalService struct {
	base
}

var transmittalColumns = map[string]string{
	"CODE":       "code",
	"STATUS":     "status",
	"ISSUED_TO":  "issued_to",
	"CREATED_AT": "created_at",
	"ISSUED_AT":  "issued_at",
}

// withTransmittalIncludes preloads the items with their revisions and the
// revisions' documents.
func withTransmittalIncludes(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("transmittal_items.id ASC")
		}).
		Preload("Items.DocumentRevision").
		Preload("Items.DocumentRevision.Document")
}

// TransmittalItemInput names one revision to transmit and why.
type TransmittalItemInput struct {
	DocumentRevisionID uint   `json:"documentRevisionId"`
	PurposeCode        string `json:"purposeCode"`
}

// CreateTransmittalInput assembles a DRAFT transmittal.
type CreateTransmittalInput struct {
	IssuedTo string                 `json:"issuedTo"`
	Items    []TransmittalItemInput `json:"items"`
}

// Validate checks the recipient and that every item is fully specified.
func (in CreateTransmittalInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.IssuedTo, validation.Required),
		validation.Field(&in.Items, validation.Required, validation.Each(validation.By(func(v interface{}) error {
			item := v.(TransmittalItemInput)
			if item.DocumentRevisionID == 0 {
				return fmt.Errorf("documentRevisionId is required")
			}
			if item.PurposeCode == "" {
				return fmt.Errorf("purposeCode is required")
			}
			return nil
		}))),
	)
}

// CreateTransmittal creates a DRAFT transmittal with the next sequential
// code. Every referenced revision must exist; the set of revisions is fixed
// at creation.
func (s *TransmittalService) CreateTransmittal(ctx context.Context, ident auth.Identity, in CreateTransmittalInput) (*models.Transmittal, error) {
	const op = "CREATE_TRANSMITTAL"
	if err := ident.Require(auth.PermTransmittalCreate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if err := in.Validate(); err != nil {
		return nil, s.fail(op, ident.UserID, apperr.Validation("%v", err))
	}

	var tr models.Transmittal
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(in.Items))
		for _, item := range in.Items {
			ids = append(ids, item.DocumentRevisionID)
		}
		var found int64
		if err := tx.Model(&models.DocumentRevision{}).
			Where("id IN ?", ids).
			Count(&found).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}
		if found != int64(len(ids)) {
			return apperr.NotFound("one or more referenced revisions do not exist")
		}

		// Lock the latest transmittal row while deriving the next code so a
		// concurrent creator waits and sees this transaction's insert.
		code := codes.FormatTransmittalCode(1)
		if last, err := models.GetLastTransmittal(lockForUpdate(tx)); err == nil {
			code = codes.NextTransmittalCode(last.Code)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.FromStorage(err, "", "")
		}

		tr = models.Transmittal{
			Code:        code,
			Status:      models.TransmittalStatusDraft,
			IssuedTo:    in.IssuedTo,
			CreatedByID: ident.UserID,
			UpdatedByID: ident.UserID,
		}
		for _, item := range in.Items {
			tr.Items = append(tr.Items, models.TransmittalItem{
				DocumentRevisionID: item.DocumentRevisionID,
				PurposeCode:        item.PurposeCode,
			})
		}
		if err := tx.Create(&tr).Error; err != nil {
			return apperr.FromStorage(err, "", "a transmittal with this code already exists")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("transmittal %s created with %d items for %s", code, len(in.Items), in.IssuedTo),
			map[string]interface{}{"transmittalId": tr.ID, "code": code})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getTransmittal(ctx, tr.ID)
}

// GetTransmittal returns a transmittal with items and revisions loaded.
func (s *TransmittalService) GetTransmittal(ctx context.Context, ident auth.Identity, id uint) (*models.Transmittal, error) {
	const op = "GET_TRANSMITTAL_BY_ID"
	if err := ident.Require(auth.PermTransmittalRead); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	tr, err := s.getTransmittal(ctx, id)
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	return tr, nil
}

func (s *TransmittalService) getTransmittal(ctx context.Context, id uint) (*models.Transmittal, error) {
	var tr models.Transmittal
	err := withTransmittalIncludes(s.conn(ctx)).First(&tr, id).Error
	if err != nil {
		return nil, apperr.FromStorage(err, "the transmittal does not exist", "")
	}
	return &tr, nil
}

// TransmittalFilter narrows transmittal listings.
type TransmittalFilter struct {
	Query  string                   `json:"query,omitempty"`
	Status models.TransmittalStatus `json:"status,omitempty"`
}

// ListTransmittals returns a filtered, ordered page of transmittals.
func (s *TransmittalService) ListTransmittals(ctx context.Context, ident auth.Identity, filter TransmittalFilter, page *pagination.Input, order *OrderBy) (*pagination.ListResponse[models.Transmittal], error) {
	const op = "GET_TRANSMITTALS"
	if err := ident.Require(auth.PermTransmittalList); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	skip, take := pagination.Normalize(page)

	q := s.conn(ctx).Model(&models.Transmittal{})
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("code LIKE ? OR issued_to LIKE ?", like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	var trs []models.Transmittal
	err := withTransmittalIncludes(q.Session(&gorm.Session{})).
		Order(orderClause(order, transmittalColumns, "created_at DESC")).
		Offset(skip).Limit(take).
		Find(&trs).Error
	if err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	resp := pagination.NewListResponse(trs, total, skip, take)
	return &resp, nil
}

// IssueTransmittal moves a DRAFT transmittal to ISSUED, stamping the issuer
// and issue time. Issued transmittals are immutable except for the response
// path.
func (s *TransmittalService) IssueTransmittal(ctx context.Context, ident auth.Identity, id uint) (*models.Transmittal, error) {
	const op = "ISSUE_TRANSMITTAL"
	now := time.Now()
	tr, err := s.transition(ctx, ident, op, id,
		[]models.TransmittalStatus{models.TransmittalStatusDraft},
		map[string]interface{}{
			"status":        models.TransmittalStatusIssued,
			"issued_by_id":  ident.UserID,
			"issued_at":     now,
			"updated_by_id": ident.UserID,
		})
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(notify.NewMessage(notify.EventTransmittalIssued, ident.UserID,
		fmt.Sprintf("Transmittal %s issued", tr.Code),
		fmt.Sprintf("Transmittal %s with %d items was issued to %s.",
			tr.Code, len(tr.Items), tr.IssuedTo),
		map[string]any{"transmittalId": tr.ID, "code": tr.Code}))
	return tr, nil
}

// AcknowledgeTransmittal records the recipient's receipt of an ISSUED
// transmittal. Acknowledgement is optional; a response may arrive first.
func (s *TransmittalService) AcknowledgeTransmittal(ctx context.Context, ident auth.Identity, id uint) (*models.Transmittal, error) {
	const op = "ACKNOWLEDGE_TRANSMITTAL"
	return s.transition(ctx, ident, op, id,
		[]models.TransmittalStatus{models.TransmittalStatusIssued},
		map[string]interface{}{
			"status":          models.TransmittalStatusAcknowledged,
			"acknowledged_at": time.Now(),
			"updated_by_id":   ident.UserID,
		})
}

// ItemResponseInput is the recipient's verdict on one transmitted revision.
type ItemResponseInput struct {
	ItemID       uint                `json:"itemId"`
	ClientStatus models.ClientStatus `json:"clientStatus"`
	Comments     string              `json:"comments,omitempty"`
}

// RespondTransmittalInput records the recipient's response.
type RespondTransmittalInput struct {
	Comments string              `json:"comments,omitempty"`
	Items    []ItemResponseInput `json:"items"`
}

// RespondTransmittal records the recipient's verdicts on an ISSUED or
// ACKNOWLEDGED transmittal and moves it to RESPONDED. Every referenced item
// must belong to this transmittal and carry a known client status.
func (s *TransmittalService) RespondTransmittal(ctx context.Context, ident auth.Identity, id uint, in RespondTransmittalInput) (*models.Transmittal, error) {
	const op = "RESPOND_TRANSMITTAL"
	if err := ident.Require(auth.PermTransmittalUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if len(in.Items) == 0 {
		return nil, s.fail(op, ident.UserID,
			apperr.Validation("a response must cover at least one item"))
	}
	for _, item := range in.Items {
		if !item.ClientStatus.Valid() {
			return nil, s.fail(op, ident.UserID,
				apperr.Validation("unknown client status %q for item %d", item.ClientStatus, item.ItemID))
		}
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var tr models.Transmittal
		if err := lockForUpdate(tx).First(&tr, id).Error; err != nil {
			return apperr.FromStorage(err, "the transmittal does not exist", "")
		}
		if tr.Status != models.TransmittalStatusIssued &&
			tr.Status != models.TransmittalStatusAcknowledged {
			return apperr.InvalidState(
				"a response can only be recorded on an ISSUED or ACKNOWLEDGED transmittal (current: %s)",
				tr.Status)
		}

		for _, item := range in.Items {
			res := tx.Model(&models.TransmittalItem{}).
				Where("id = ? AND transmittal_id = ?", item.ItemID, id).
				Updates(map[string]interface{}{
					"client_status":   item.ClientStatus,
					"client_comments": optional(item.Comments),
				})
			if res.Error != nil {
				return apperr.FromStorage(res.Error, "", "")
			}
			if res.RowsAffected == 0 {
				return apperr.NotFound("item %d does not belong to transmittal %s", item.ItemID, tr.Code)
			}
		}

		if err := tx.Model(&tr).Updates(map[string]interface{}{
			"status":            models.TransmittalStatusResponded,
			"response_at":       time.Now(),
			"response_comments": optional(in.Comments),
			"updated_by_id":     ident.UserID,
		}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("response recorded on transmittal %s covering %d items", tr.Code, len(in.Items)),
			map[string]interface{}{"transmittalId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getTransmittal(ctx, id)
}

// CloseTransmittal closes an issued transmittal, with or without a recorded
// response. DRAFT transmittals must be issued first; CLOSED is terminal.
func (s *TransmittalService) CloseTransmittal(ctx context.Context, ident auth.Identity, id uint) (*models.Transmittal, error) {
	const op = "CLOSE_TRANSMITTAL"
	return s.transition(ctx, ident, op, id,
		[]models.TransmittalStatus{
			models.TransmittalStatusIssued,
			models.TransmittalStatusAcknowledged,
			models.TransmittalStatusResponded,
		},
		map[string]interface{}{
			"status":        models.TransmittalStatusClosed,
			"updated_by_id": ident.UserID,
		})
}

// transition applies a guarded single-state transmittal update.
func (s *TransmittalService) transition(ctx context.Context, ident auth.Identity, op string, id uint, from []models.TransmittalStatus, updates map[string]interface{}) (*models.Transmittal, error) {
	if err := ident.Require(auth.PermTransmittalUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var tr models.Transmittal
		if err := lockForUpdate(tx).First(&tr, id).Error; err != nil {
			return apperr.FromStorage(err, "the transmittal does not exist", "")
		}

		allowed := false
		for _, status := range from {
			if tr.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperr.InvalidState(
				"transmittal %s cannot make this transition from %s", tr.Code, tr.Status)
		}

		if err := tx.Model(&tr).Updates(updates).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("transmittal %s moved from %s to %s", tr.Code, tr.Status, updates["status"]),
			map[string]interface{}{"transmittalId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getTransmittal(ctx, id)
}
