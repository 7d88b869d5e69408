package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docworks-io/docvault/pkg/models"
)

func TestConnect_SQLiteInMemory(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite}, nil)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	t.Run("schema usable after migrate", func(t *testing.T) {
		dt := models.DocumentType{Code: "DRW", Name: "Drawing"}
		require.NoError(t, db.Create(&dt).Error)
		assert.NotZero(t, dt.ID)

		var count int64
		require.NoError(t, db.Model(&models.DocumentType{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("duplicate key translated", func(t *testing.T) {
		dup := models.DocumentType{Code: "DRW", Name: "Drawing again"}
		err := db.Create(&dup).Error
		assert.Error(t, err)
	})

	t.Run("revision relations preload", func(t *testing.T) {
		var dt models.DocumentType
		require.NoError(t, db.Where("code = ?", "DRW").First(&dt).Error)

		doc := models.Document{
			Code: "DRW-001", Title: "Pump layout", Module: "PLANT",
			DocumentTypeID: dt.ID, CreatedByID: 1, UpdatedByID: 1,
		}
		require.NoError(t, db.Create(&doc).Error)

		rev := models.DocumentRevision{
			DocumentID: doc.ID, RevisionCode: "A",
			Status: models.RevisionStatusDraft, CreatedByID: 1, UpdatedByID: 1,
			Versions: []models.DocumentVersion{{
				VersionNumber: 1, FileKey: "k", FileName: "a.pdf",
				FileSize: 1, MimeType: "application/pdf", CreatedByID: 1,
			}},
			Workflow: &models.ReviewWorkflow{
				Status: models.WorkflowStatusInProgress, InitiatedByID: 1,
				Steps: []models.ReviewStep{{
					StepOrder: 1, StepType: models.StepTypeApprove,
					Status: models.StepStatusPending, AssignedToID: 2,
				}},
			},
		}
		require.NoError(t, db.Create(&rev).Error)

		var got models.DocumentRevision
		require.NoError(t, db.
			Preload("Versions").
			Preload("Workflow.Steps").
			First(&got, rev.ID).Error)
		require.Len(t, got.Versions, 1)
		assert.Equal(t, 1, got.Versions[0].VersionNumber)
		require.NotNil(t, got.Workflow)
		require.Len(t, got.Workflow.Steps, 1)
		assert.Equal(t, uint(2), got.Workflow.Steps[0].AssignedToID)
	})
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}
