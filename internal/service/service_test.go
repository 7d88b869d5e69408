package service

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/pkg/database"
	"github.com/docworks-io/docvault/pkg/models"
)

// newTestServices wires the full service registry against a fresh in-memory
// database.
func newTestServices(t *testing.T, opts ...Option) (*Services, *gorm.DB) {
	t.Helper()

	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Path:   ":memory:",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return New(db, hclog.NewNullLogger(), opts...), db
}

// admin is a caller holding every permission.
func admin(userID uint) auth.Identity {
	return auth.Identity{
		UserID: userID,
		Permissions: []string{
			auth.PermDocumentRead, auth.PermDocumentList, auth.PermDocumentCreate,
			auth.PermDocumentUpdate, auth.PermDocumentDelete, auth.PermDocumentSelect,
			auth.PermWorkflowList, auth.PermWorkflowCreate, auth.PermWorkflowUpdate,
			auth.PermTransmittalRead, auth.PermTransmittalList,
			auth.PermTransmittalCreate, auth.PermTransmittalUpdate,
			auth.PermScannedFileRead, auth.PermScannedFileList,
			auth.PermScannedFileCreate, auth.PermScannedFileUpdate, auth.PermScannedFileDelete,
			auth.PermDocumentTypeRead, auth.PermDocumentTypeList, auth.PermDocumentTypeCreate,
			auth.PermSysLogRead, auth.PermSysLogList,
		},
	}
}

func testFile(name string) FileInput {
	return FileInput{
		FileKey:  "files/" + name,
		FileName: name,
		FileSize: 2048,
		MimeType: "application/pdf",
	}
}

// seedDocumentType creates a document type directly.
func seedDocumentType(t *testing.T, db *gorm.DB, code string) *models.DocumentType {
	t.Helper()
	dt := &models.DocumentType{Code: code, Name: "Type " + code}
	require.NoError(t, db.Create(dt).Error)
	return dt
}

// seedDocument creates a document with one DRAFT revision and version through
// the service, returning the full aggregate.
func seedDocument(t *testing.T, svc *Services, typeID uint, code string) *models.Document {
	t.Helper()
	doc, err := svc.Documents.CreateDocument(context.Background(), admin(1), CreateDocumentInput{
		Code:           code,
		Title:          "Document " + code,
		Module:         "engineering",
		DocumentTypeID: typeID,
		File:           testFile(code + ".pdf"),
	})
	require.NoError(t, err)
	return doc
}

// approveAll walks a workflow's blocking steps in order through the review
// service, approving each.
func approveAll(t *testing.T, svc *Services, ident auth.Identity, workflowID uint) {
	t.Helper()
	var steps []models.ReviewStep
	require.NoError(t, svc.Review.db.
		Where("workflow_id = ?", workflowID).
		Order("step_order ASC").
		Find(&steps).Error)
	for _, step := range steps {
		if !step.Blocking() {
			continue
		}
		_, err := svc.Review.ApproveStep(context.Background(), ident, step.ID, "ok")
		require.NoError(t, err)
	}
}
