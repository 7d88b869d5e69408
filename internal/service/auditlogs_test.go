package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/models"
	"github.com/docworks-io/docvault/pkg/pagination"
)

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestServices(t)
	dt := seedDocumentType(t, db, "DWG")
	seedDocument(t, svc, dt.ID, "AUD-001")

	t.Run("successful mutations leave INFO records", func(t *testing.T) {
		resp, err := svc.AuditLogs.ListAuditLogs(ctx, admin(1),
			AuditLogFilter{Name: "CREATE_DOCUMENT"}, nil, nil)
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)

		record := resp.Items[0]
		assert.Equal(t, models.LogLevelInfo, record.Level)
		assert.Equal(t, uint(1), record.UserID)
		assert.NotEqual(t, uuid.Nil, record.TraceID)
		assert.NotEmpty(t, record.Meta)
	})

	t.Run("failed operations leave ERROR records", func(t *testing.T) {
		_, err := svc.Documents.GetDocument(ctx, admin(3), 9999)
		require.Error(t, err)

		resp, err := svc.AuditLogs.ListAuditLogs(ctx, admin(1),
			AuditLogFilter{Name: "GET_DOCUMENT_BY_ID", Level: models.LogLevelError}, nil, nil)
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, uint(3), resp.Items[0].UserID)
	})

	t.Run("rolled back mutations leave no success record", func(t *testing.T) {
		_, err := svc.Documents.CreateDocument(ctx, admin(1), CreateDocumentInput{
			Code:           "AUD-001",
			Title:          "Duplicate",
			Module:         "engineering",
			DocumentTypeID: dt.ID,
			File:           testFile("dup.pdf"),
		})
		require.Error(t, err)

		resp, err := svc.AuditLogs.ListAuditLogs(ctx, admin(1),
			AuditLogFilter{Name: "CREATE_DOCUMENT", Level: models.LogLevelInfo}, nil, nil)
		require.NoError(t, err)
		assert.Len(t, resp.Items, 1)

		resp, err = svc.AuditLogs.ListAuditLogs(ctx, admin(1),
			AuditLogFilter{Name: "CREATE_DOCUMENT", Level: models.LogLevelError}, nil, nil)
		require.NoError(t, err)
		assert.Len(t, resp.Items, 1)
	})

	t.Run("filters by user", func(t *testing.T) {
		resp, err := svc.AuditLogs.ListAuditLogs(ctx, admin(1),
			AuditLogFilter{UserID: 3}, nil, nil)
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
	})

	t.Run("paginates newest first", func(t *testing.T) {
		resp, err := svc.AuditLogs.ListAuditLogs(ctx, admin(1), AuditLogFilter{},
			&pagination.Input{Take: 2}, nil)
		require.NoError(t, err)
		assert.Len(t, resp.Items, 2)
		assert.True(t, resp.Pagination.TotalItems >= 3)
	})

	t.Run("requires the sys-log permission", func(t *testing.T) {
		ident := admin(1)
		ident.Permissions = []string{}
		_, err := svc.AuditLogs.ListAuditLogs(ctx, ident, AuditLogFilter{}, nil, nil)
		assert.True(t, apperr.Is(err, apperr.CodeForbidden), "got %v", err)
	})

	t.Run("fetches one record by id", func(t *testing.T) {
		resp, err := svc.AuditLogs.ListAuditLogs(ctx, admin(1), AuditLogFilter{}, nil, nil)
		require.NoError(t, err)
		require.NotEmpty(t, resp.Items)

		record, err := svc.AuditLogs.GetAuditLog(ctx, admin(1), resp.Items[0].ID)
		require.NoError(t, err)
		assert.Equal(t, resp.Items[0].Name, record.Name)
	})
}
