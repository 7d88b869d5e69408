package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/models"
	"github.com/docworks-io/docvault/pkg/pagination"
)

func TestCreateDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("creates document with first revision and version", func(t *testing.T) {
		svc, db := newTestServices(t)
		dt := seedDocumentType(t, db, "DWG")

		doc, err := svc.Documents.CreateDocument(ctx, admin(1), CreateDocumentInput{
			Code:           "PIP-001",
			Title:          "Piping layout",
			Module:         "engineering",
			DocumentTypeID: dt.ID,
			File:           testFile("pip-001.pdf"),
		})
		require.NoError(t, err)

		assert.Equal(t, models.RevisionSchemeAlphabetical, doc.RevisionScheme)
		require.Len(t, doc.Revisions, 1)
		rev := doc.Revisions[0]
		assert.Equal(t, "A", rev.RevisionCode)
		assert.Equal(t, models.RevisionStatusDraft, rev.Status)
		require.Len(t, rev.Versions, 1)
		assert.Equal(t, 1, rev.Versions[0].VersionNumber)
		assert.Equal(t, "pip-001.pdf", rev.Versions[0].FileName)
	})

	t.Run("numeric scheme starts at 0", func(t *testing.T) {
		svc, db := newTestServices(t)
		dt := seedDocumentType(t, db, "DWG")

		doc, err := svc.Documents.CreateDocument(ctx, admin(1), CreateDocumentInput{
			Code:           "PIP-002",
			Title:          "Piping layout",
			Module:         "engineering",
			DocumentTypeID: dt.ID,
			RevisionScheme: models.RevisionSchemeNumeric,
			File:           testFile("pip-002.pdf"),
		})
		require.NoError(t, err)
		assert.Equal(t, "0", doc.Revisions[0].RevisionCode)
	})

	t.Run("rejects duplicate code in the same context", func(t *testing.T) {
		svc, db := newTestServices(t)
		dt := seedDocumentType(t, db, "DWG")
		seedDocument(t, svc, dt.ID, "PIP-003")

		_, err := svc.Documents.CreateDocument(ctx, admin(1), CreateDocumentInput{
			Code:           "PIP-003",
			Title:          "Duplicate",
			Module:         "engineering",
			DocumentTypeID: dt.ID,
			File:           testFile("dup.pdf"),
		})
		assert.True(t, apperr.Is(err, apperr.CodeConflict), "got %v", err)
	})

	t.Run("same code in a different module is allowed", func(t *testing.T) {
		svc, db := newTestServices(t)
		dt := seedDocumentType(t, db, "DWG")
		seedDocument(t, svc, dt.ID, "PIP-004")

		_, err := svc.Documents.CreateDocument(ctx, admin(1), CreateDocumentInput{
			Code:           "PIP-004",
			Title:          "Same code elsewhere",
			Module:         "quality",
			DocumentTypeID: dt.ID,
			File:           testFile("other.pdf"),
		})
		assert.NoError(t, err)
	})

	t.Run("validates required fields", func(t *testing.T) {
		svc, _ := newTestServices(t)
		_, err := svc.Documents.CreateDocument(ctx, admin(1), CreateDocumentInput{})
		assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)
	})

	t.Run("requires authentication and permission", func(t *testing.T) {
		svc, db := newTestServices(t)
		dt := seedDocumentType(t, db, "DWG")
		in := CreateDocumentInput{
			Code: "PIP-005", Title: "t", Module: "m",
			DocumentTypeID: dt.ID, File: testFile("a.pdf"),
		}

		_, err := svc.Documents.CreateDocument(ctx, auth.Identity{}, in)
		assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated), "got %v", err)

		_, err = svc.Documents.CreateDocument(ctx, auth.Identity{UserID: 7}, in)
		assert.True(t, apperr.Is(err, apperr.CodeForbidden), "got %v", err)
	})
}

func TestGetDocument(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestServices(t)
	dt := seedDocumentType(t, db, "SPC")
	doc := seedDocument(t, svc, dt.ID, "SPC-001")

	t.Run("returns the full aggregate", func(t *testing.T) {
		got, err := svc.Documents.GetDocument(ctx, admin(1), doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "SPC-001", got.Code)
		require.NotNil(t, got.DocumentType)
		assert.Equal(t, "SPC", got.DocumentType.Code)
		require.Len(t, got.Revisions, 1)
	})

	t.Run("unknown id is NOT_FOUND", func(t *testing.T) {
		_, err := svc.Documents.GetDocument(ctx, admin(1), 9999)
		assert.True(t, apperr.Is(err, apperr.CodeNotFound), "got %v", err)
	})
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestServices(t)
	dt := seedDocumentType(t, db, "DWG")
	for _, code := range []string{"A-001", "A-002", "A-003"} {
		seedDocument(t, svc, dt.ID, code)
	}

	t.Run("paginates with envelope", func(t *testing.T) {
		resp, err := svc.Documents.ListDocuments(ctx, admin(1), DocumentFilter{},
			&pagination.Input{Skip: 0, Take: 2}, nil)
		require.NoError(t, err)
		assert.Len(t, resp.Items, 2)
		assert.Equal(t, int64(3), resp.Pagination.TotalItems)
		assert.Equal(t, 2, resp.Pagination.TotalPages)
		assert.True(t, resp.Pagination.HasNext)
		assert.False(t, resp.Pagination.HasPrev)
	})

	t.Run("filters by query", func(t *testing.T) {
		resp, err := svc.Documents.ListDocuments(ctx, admin(1),
			DocumentFilter{Query: "A-002"}, nil, nil)
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "A-002", resp.Items[0].Code)
	})

	t.Run("orders by requested field", func(t *testing.T) {
		resp, err := svc.Documents.ListDocuments(ctx, admin(1), DocumentFilter{}, nil,
			&OrderBy{Field: "CODE", Direction: models.SortAsc})
		require.NoError(t, err)
		require.Len(t, resp.Items, 3)
		assert.Equal(t, "A-001", resp.Items[0].Code)
	})

	t.Run("excludes terminated documents by default", func(t *testing.T) {
		extra := seedDocument(t, svc, dt.ID, "A-004")
		_, err := svc.Documents.TerminateDocument(ctx, admin(1), extra.ID)
		require.NoError(t, err)

		resp, err := svc.Documents.ListDocuments(ctx, admin(1), DocumentFilter{}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.Pagination.TotalItems)

		resp, err = svc.Documents.ListDocuments(ctx, admin(1),
			DocumentFilter{TerminatedFilter: models.TerminatedFilterAll}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), resp.Pagination.TotalItems)
	})
}

func TestUpdateDocument(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestServices(t)
	dt := seedDocumentType(t, db, "DWG")
	doc := seedDocument(t, svc, dt.ID, "UPD-001")

	t.Run("updates title and description", func(t *testing.T) {
		title := "Renamed"
		desc := "New description"
		got, err := svc.Documents.UpdateDocument(ctx, admin(2), doc.ID,
			UpdateDocumentInput{Title: &title, Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		require.NotNil(t, got.Description)
		assert.Equal(t, "New description", *got.Description)
		assert.Equal(t, uint(2), got.UpdatedByID)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		empty := ""
		_, err := svc.Documents.UpdateDocument(ctx, admin(1), doc.ID,
			UpdateDocumentInput{Title: &empty})
		assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)
	})

	t.Run("unknown id is NOT_FOUND", func(t *testing.T) {
		title := "x"
		_, err := svc.Documents.UpdateDocument(ctx, admin(1), 9999,
			UpdateDocumentInput{Title: &title})
		assert.True(t, apperr.Is(err, apperr.CodeNotFound), "got %v", err)
	})
}

func TestTerminateActivateDocument(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestServices(t)
	dt := seedDocumentType(t, db, "DWG")
	doc := seedDocument(t, svc, dt.ID, "TRM-001")

	got, err := svc.Documents.TerminateDocument(ctx, admin(1), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TerminatedAt)

	got, err = svc.Documents.ActivateDocument(ctx, admin(1), doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TerminatedAt)
}

func TestSwitchRevisionScheme(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestServices(t)
	dt := seedDocumentType(t, db, "DWG")
	doc := seedDocument(t, svc, dt.ID, "SCH-001")

	t.Run("switches to numeric", func(t *testing.T) {
		got, err := svc.Documents.SwitchRevisionScheme(ctx, admin(1), doc.ID, models.RevisionSchemeNumeric)
		require.NoError(t, err)
		assert.Equal(t, models.RevisionSchemeNumeric, got.RevisionScheme)
	})

	t.Run("same scheme is INVALID_STATE", func(t *testing.T) {
		_, err := svc.Documents.SwitchRevisionScheme(ctx, admin(1), doc.ID, models.RevisionSchemeNumeric)
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState), "got %v", err)
	})

	t.Run("unknown scheme is VALIDATION", func(t *testing.T) {
		_, err := svc.Documents.SwitchRevisionScheme(ctx, admin(1), doc.ID, "ROMAN")
		assert.True(t, apperr.Is(err, apperr.CodeValidation), "got %v", err)
	})
}

func TestDocumentOptions(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestServices(t)
	dt := seedDocumentType(t, db, "DWG")
	seedDocument(t, svc, dt.ID, "OPT-002")
	seedDocument(t, svc, dt.ID, "OPT-001")

	options, err := svc.Documents.DocumentOptions(ctx, admin(1), DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "OPT-001 - Document OPT-001", options[0].Label)
	assert.Equal(t, "OPT-002 - Document OPT-002", options[1].Label)
}
