package service

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/models"
	"github.com/docworks-io/docvault/pkg/pagination"
)

// ScannedFileService runs the two disposition machines over digitized legacy
// records: the digital one (PENDING -> ACCEPTED -> UPLOADED, or PENDING ->
// DISCARDED) and the physical one (PENDING -> DESTROY/ARCHIVE -> confirmed
// DESTROYED/ARCHIVED). The machines are independent; soft-deleted files
// accept no transitions on either.
type ScannedFileService struct {
	base
}

var scannedFileColumns = map[string]string{
	"TITLE":      "title",
	"CREATED_AT": "created_at",
	"UPDATED_AT": "updated_at",
	"DIGITAL":    "digital_disposition",
	"PHYSICAL":   "physical_disposition",
}

// CreateScannedFileInput registers one digitized record.
type CreateScannedFileInput struct {
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	OriginalReference string `json:"originalReference,omitempty"`
	PhysicalLocation  string `json:"physicalLocation,omitempty"`

	File FileInput `json:"file"`
}

// Validate checks the title and the scan file reference.
func (in CreateScannedFileInput) Validate() error {
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required),
	); err != nil {
		return err
	}
	return in.File.Validate()
}

// CreateScannedFile registers a scanned file with both dispositions PENDING.
func (s *ScannedFileService) CreateScannedFile(ctx context.Context, ident auth.Identity, in CreateScannedFileInput) (*models.ScannedFile, error) {
	const op = "CREATE_SCANNED_FILE"
	if err := ident.Require(auth.PermScannedFileCreate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if err := in.Validate(); err != nil {
		return nil, s.fail(op, ident.UserID, apperr.Validation("%v", err))
	}

	file := models.ScannedFile{
		Title:               in.Title,
		Description:         optional(in.Description),
		OriginalReference:   optional(in.OriginalReference),
		PhysicalLocation:    optional(in.PhysicalLocation),
		FileKey:             in.File.FileKey,
		FileName:            in.File.FileName,
		FileSize:            in.File.FileSize,
		MimeType:            in.File.MimeType,
		DigitalDisposition:  models.DigitalPending,
		PhysicalDisposition: models.PhysicalPending,
		CreatedByID:         ident.UserID,
		UpdatedByID:         ident.UserID,
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&file).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}
		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("scanned file %q registered", in.Title),
			map[string]interface{}{"scannedFileId": file.ID})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getScannedFile(ctx, file.ID)
}

// GetScannedFile returns a scanned file with its classification type loaded.
func (s *ScannedFileService) GetScannedFile(ctx context.Context, ident auth.Identity, id uint) (*models.ScannedFile, error) {
	const op = "GET_SCANNED_FILE_BY_ID"
	if err := ident.Require(auth.PermScannedFileRead); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	file, err := s.getScannedFile(ctx, id)
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	return file, nil
}

func (s *ScannedFileService) getScannedFile(ctx context.Context, id uint) (*models.ScannedFile, error) {
	var file models.ScannedFile
	err := s.conn(ctx).Preload("DocumentType").First(&file, id).Error
	if err != nil {
		return nil, apperr.FromStorage(err, "the scanned file does not exist", "")
	}
	return &file, nil
}

// ScannedFileFilter narrows scanned file listings.
type ScannedFileFilter struct {
	Query               string                     `json:"query,omitempty"`
	DigitalDisposition  models.DigitalDisposition  `json:"digitalDisposition,omitempty"`
	PhysicalDisposition models.PhysicalDisposition `json:"physicalDisposition,omitempty"`
	TerminatedFilter    models.TerminatedFilter    `json:"terminatedFilter,omitempty"`
}

// ListScannedFiles returns a filtered, ordered page of scanned files.
func (s *ScannedFileService) ListScannedFiles(ctx context.Context, ident auth.Identity, filter ScannedFileFilter, page *pagination.Input, order *OrderBy) (*pagination.ListResponse[models.ScannedFile], error) {
	const op = "GET_SCANNED_FILES"
	if err := ident.Require(auth.PermScannedFileList); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	skip, take := pagination.Normalize(page)

	q := s.conn(ctx).Model(&models.ScannedFile{}).
		Scopes(terminatedScope(filter.TerminatedFilter))
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("title LIKE ? OR description LIKE ? OR original_reference LIKE ?", like, like, like)
	}
	if filter.DigitalDisposition != "" {
		q = q.Where("digital_disposition = ?", filter.DigitalDisposition)
	}
	if filter.PhysicalDisposition != "" {
		q = q.Where("physical_disposition = ?", filter.PhysicalDisposition)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	var files []models.ScannedFile
	err := q.Session(&gorm.Session{}).
		Preload("DocumentType").
		Order(orderClause(order, scannedFileColumns, "created_at DESC")).
		Offset(skip).Limit(take).
		Find(&files).Error
	if err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	resp := pagination.NewListResponse(files, total, skip, take)
	return &resp, nil
}

// Stats returns the per-disposition census of live (non-terminated) files.
func (s *ScannedFileService) Stats(ctx context.Context, ident auth.Identity) (*models.ScannedFileStats, error) {
	const op = "GET_SCANNED_FILE_STATS"
	if err := ident.Require(auth.PermScannedFileList); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	live := func() *gorm.DB {
		return s.conn(ctx).Model(&models.ScannedFile{}).Where("terminated_at IS NULL")
	}

	var stats models.ScannedFileStats
	counts := []struct {
		dest   *int64
		column string
		value  interface{}
	}{
		{&stats.Total, "", nil},
		{&stats.Pending, "digital_disposition", models.DigitalPending},
		{&stats.Accepted, "digital_disposition", models.DigitalAccepted},
		{&stats.Uploaded, "digital_disposition", models.DigitalUploaded},
		{&stats.Discarded, "digital_disposition", models.DigitalDiscarded},
		{&stats.PhysicalPending, "physical_disposition", models.PhysicalPending},
		{&stats.PhysicalDestroy, "physical_disposition", models.PhysicalDestroy},
		{&stats.PhysicalDestroyed, "physical_disposition", models.PhysicalDestroyed},
		{&stats.PhysicalArchive, "physical_disposition", models.PhysicalArchive},
		{&stats.PhysicalArchived, "physical_disposition", models.PhysicalArchived},
	}
	for _, c := range counts {
		q := live()
		if c.column != "" {
			q = q.Where(c.column+" = ?", c.value)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, s.storage(op, ident.UserID, err, "", "")
		}
	}
	return &stats, nil
}

// ClassifyScannedFileInput is the digital verdict on a PENDING scan: accept
// it into the document corpus under a type, or discard it with a reason.
type ClassifyScannedFileInput struct {
	Accept bool `json:"accept"`

	// Required when accepting.
	DocumentTypeID      uint   `json:"documentTypeId,omitempty"`
	ClassificationNotes string `json:"classificationNotes,omitempty"`

	// Required when discarding.
	DiscardReason string `json:"discardReason,omitempty"`
}

// ClassifyScannedFile decides a PENDING scan's digital fate. Accepting
// requires a document type, discarding requires a reason; both stamp the
// classifier and time.
func (s *ScannedFileService) ClassifyScannedFile(ctx context.Context, ident auth.Identity, id uint, in ClassifyScannedFileInput) (*models.ScannedFile, error) {
	const op = "CLASSIFY_SCANNED_FILE"
	if err := ident.Require(auth.PermScannedFileUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if in.Accept && in.DocumentTypeID == 0 {
		return nil, s.fail(op, ident.UserID,
			apperr.Validation("accepting a scanned file requires a document type"))
	}
	if !in.Accept && in.DiscardReason == "" {
		return nil, s.fail(op, ident.UserID,
			apperr.Validation("discarding a scanned file requires a reason"))
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := s.lockLiveFile(tx, id)
		if err != nil {
			return err
		}
		if file.DigitalDisposition != models.DigitalPending {
			return apperr.InvalidState(
				"only a PENDING scan can be classified (current: %s)", file.DigitalDisposition)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"classified_by_id": ident.UserID,
			"classified_at":    now,
			"updated_by_id":    ident.UserID,
		}
		if in.Accept {
			updates["digital_disposition"] = models.DigitalAccepted
			updates["document_type_id"] = in.DocumentTypeID
			updates["classification_notes"] = optional(in.ClassificationNotes)
		} else {
			updates["digital_disposition"] = models.DigitalDiscarded
			updates["discard_reason"] = in.DiscardReason
		}
		if err := tx.Model(file).Updates(updates).Error; err != nil {
			return apperr.FromStorage(err, "the document type does not exist", "")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("scanned file %d classified as %s", id, updates["digital_disposition"]),
			map[string]interface{}{"scannedFileId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getScannedFile(ctx, id)
}

// MarkAsUploaded finalizes an ACCEPTED scan once it lives in the target
// system, recording where it went.
func (s *ScannedFileService) MarkAsUploaded(ctx context.Context, ident auth.Identity, id uint, externalReference string) (*models.ScannedFile, error) {
	const op = "MARK_SCANNED_FILE_UPLOADED"
	if err := ident.Require(auth.PermScannedFileUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if externalReference == "" {
		return nil, s.fail(op, ident.UserID,
			apperr.Validation("marking a scan as uploaded requires the external reference"))
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := s.lockLiveFile(tx, id)
		if err != nil {
			return err
		}
		if file.DigitalDisposition != models.DigitalAccepted {
			return apperr.InvalidState(
				"only an ACCEPTED scan can be marked uploaded (current: %s)", file.DigitalDisposition)
		}

		if err := tx.Model(file).Updates(map[string]interface{}{
			"digital_disposition": models.DigitalUploaded,
			"external_reference":  externalReference,
			"updated_by_id":       ident.UserID,
		}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("scanned file %d uploaded as %s", id, externalReference),
			map[string]interface{}{"scannedFileId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getScannedFile(ctx, id)
}

// UpdatePhysicalDisposition records the intent for the paper original:
// DESTROY or ARCHIVE, only while the physical disposition is still PENDING.
func (s *ScannedFileService) UpdatePhysicalDisposition(ctx context.Context, ident auth.Identity, id uint, disposition models.PhysicalDisposition) (*models.ScannedFile, error) {
	const op = "UPDATE_PHYSICAL_DISPOSITION"
	if err := ident.Require(auth.PermScannedFileUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if disposition != models.PhysicalDestroy && disposition != models.PhysicalArchive {
		return nil, s.fail(op, ident.UserID,
			apperr.Validation("physical disposition must be DESTROY or ARCHIVE"))
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := s.lockLiveFile(tx, id)
		if err != nil {
			return err
		}
		if file.PhysicalDisposition != models.PhysicalPending {
			return apperr.InvalidState(
				"the physical disposition is already %s", file.PhysicalDisposition)
		}

		if err := tx.Model(file).Updates(map[string]interface{}{
			"physical_disposition": disposition,
			"updated_by_id":        ident.UserID,
		}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("scanned file %d physical disposition set to %s", id, disposition),
			map[string]interface{}{"scannedFileId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getScannedFile(ctx, id)
}

// ConfirmPhysicalDisposition confirms a declared intent: DESTROY becomes
// DESTROYED, ARCHIVE becomes ARCHIVED, stamped with confirmer and time. A
// file with no declared intent cannot be confirmed.
func (s *ScannedFileService) ConfirmPhysicalDisposition(ctx context.Context, ident auth.Identity, id uint) (*models.ScannedFile, error) {
	const op = "CONFIRM_PHYSICAL_DISPOSITION"
	if err := ident.Require(auth.PermScannedFileUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := s.lockLiveFile(tx, id)
		if err != nil {
			return err
		}

		var confirmed models.PhysicalDisposition
		switch file.PhysicalDisposition {
		case models.PhysicalDestroy:
			confirmed = models.PhysicalDestroyed
		case models.PhysicalArchive:
			confirmed = models.PhysicalArchived
		default:
			return apperr.InvalidState(
				"no physical disposition awaits confirmation (current: %s)", file.PhysicalDisposition)
		}

		if err := tx.Model(file).Updates(map[string]interface{}{
			"physical_disposition":     confirmed,
			"physical_confirmed_by_id": ident.UserID,
			"physical_confirmed_at":    time.Now(),
			"updated_by_id":            ident.UserID,
		}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("scanned file %d physical disposition confirmed as %s", id, confirmed),
			map[string]interface{}{"scannedFileId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getScannedFile(ctx, id)
}

// TerminateScannedFile soft-deletes a scanned file, freezing both machines.
func (s *ScannedFileService) TerminateScannedFile(ctx context.Context, ident auth.Identity, id uint) (*models.ScannedFile, error) {
	return s.setTerminated(ctx, ident, id, auth.PermScannedFileDelete, "TERMINATE_SCANNED_FILE", true)
}

// ActivateScannedFile clears the soft-delete marker.
func (s *ScannedFileService) ActivateScannedFile(ctx context.Context, ident auth.Identity, id uint) (*models.ScannedFile, error) {
	return s.setTerminated(ctx, ident, id, auth.PermScannedFileUpdate, "ACTIVATE_SCANNED_FILE", false)
}

func (s *ScannedFileService) setTerminated(ctx context.Context, ident auth.Identity, id uint, perm, op string, terminated bool) (*models.ScannedFile, error) {
	if err := ident.Require(perm); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	var terminatedAt interface{}
	if terminated {
		terminatedAt = time.Now()
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ScannedFile{}).Where("id = ?", id).Updates(map[string]interface{}{
			"terminated_at": terminatedAt,
			"updated_by_id": ident.UserID,
		})
		if res.Error != nil {
			return apperr.FromStorage(res.Error, "", "")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("the scanned file does not exist")
		}
		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("scanned file %d terminated=%t", id, terminated),
			map[string]interface{}{"scannedFileId": id})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	return s.getScannedFile(ctx, id)
}

// lockLiveFile locks the row and rejects transitions on terminated files.
func (s *ScannedFileService) lockLiveFile(tx *gorm.DB, id uint) (*models.ScannedFile, error) {
	var file models.ScannedFile
	if err := lockForUpdate(tx).First(&file, id).Error; err != nil {
		return nil, apperr.FromStorage(err, "the scanned file does not exist", "")
	}
	if file.Terminated() {
		return nil, apperr.InvalidState("the scanned file is terminated")
	}
	return &file, nil
}
