package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/internal/config"
	"github.com/docworks-io/docvault/internal/server"
	"github.com/docworks-io/docvault/internal/service"
	"github.com/docworks-io/docvault/pkg/database"
	"github.com/docworks-io/docvault/pkg/models"
	"github.com/docworks-io/docvault/pkg/pagination"
)

// newTestServer boots the full API over an in-memory database and returns a
// bearer token holding every permission.
func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = ":memory:"

	db, err := database.Connect(cfg.DatabaseSettings(), nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	srv := server.New(cfg, db, hclog.NewNullLogger())
	ts := httptest.NewServer(NewRouter(srv))
	t.Cleanup(ts.Close)

	return ts, mintToken(t, cfg.Auth.JWTSecret, 1, []string{
		auth.PermDocumentRead, auth.PermDocumentList, auth.PermDocumentCreate,
		auth.PermDocumentUpdate, auth.PermDocumentDelete, auth.PermDocumentSelect,
		auth.PermWorkflowList, auth.PermWorkflowCreate, auth.PermWorkflowUpdate,
		auth.PermTransmittalRead, auth.PermTransmittalList,
		auth.PermTransmittalCreate, auth.PermTransmittalUpdate,
		auth.PermScannedFileRead, auth.PermScannedFileList,
		auth.PermScannedFileCreate, auth.PermScannedFileUpdate, auth.PermScannedFileDelete,
		auth.PermDocumentTypeRead, auth.PermDocumentTypeList, auth.PermDocumentTypeCreate,
		auth.PermSysLogRead, auth.PermSysLogList,
	})
}

func mintToken(t *testing.T, secret string, userID uint, perms []string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID:      userID,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// call performs a JSON request and decodes the response body into out (when
// out is non-nil).
func call(t *testing.T, ts *httptest.Server, token, method, path string, body, out interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createType(t *testing.T, ts *httptest.Server, token, code string) *models.DocumentType {
	t.Helper()
	var dt models.DocumentType
	resp := call(t, ts, token, http.MethodPost, "/api/v1/document-types", map[string]string{
		"code": code,
		"name": "Type " + code,
	}, &dt)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return &dt
}

func createDocument(t *testing.T, ts *httptest.Server, token string, typeID uint, code string) *models.Document {
	t.Helper()
	var doc models.Document
	resp := call(t, ts, token, http.MethodPost, "/api/v1/documents", map[string]interface{}{
		"code":           code,
		"title":          "Document " + code,
		"module":         "engineering",
		"documentTypeId": typeID,
		"file": map[string]interface{}{
			"fileKey":  "files/" + code + ".pdf",
			"fileName": code + ".pdf",
			"fileSize": 2048,
			"mimeType": "application/pdf",
		},
	}, &doc)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return &doc
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	var body map[string]string
	resp := call(t, ts, "", http.MethodGet, "/health", nil, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestAuthentication(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		var body errorBody
		resp := call(t, ts, "", http.MethodGet, "/api/v1/documents", nil, &body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHENTICATED", body.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := call(t, ts, "not-a-jwt", http.MethodGet, "/api/v1/documents", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token without the needed permission", func(t *testing.T) {
		limited := mintToken(t, config.Default().Auth.JWTSecret, 9, []string{auth.PermDocumentRead})
		var body errorBody
		resp := call(t, ts, limited, http.MethodGet, "/api/v1/documents", nil, &body)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", body.Code)
	})
}

func TestDocumentEndpoints(t *testing.T) {
	ts, token := newTestServer(t)
	dt := createType(t, ts, token, "SPEC")

	doc := createDocument(t, ts, token, dt.ID, "SPEC-001")
	assert.Equal(t, "SPEC-001", doc.Code)
	require.Len(t, doc.Revisions, 1)
	assert.Equal(t, "A", doc.Revisions[0].RevisionCode)

	t.Run("duplicate code conflicts", func(t *testing.T) {
		var body errorBody
		resp := call(t, ts, token, http.MethodPost, "/api/v1/documents", map[string]interface{}{
			"code":           "SPEC-001",
			"title":          "Duplicate",
			"module":         "engineering",
			"documentTypeId": dt.ID,
			"file": map[string]interface{}{
				"fileKey":  "files/dup.pdf",
				"fileName": "dup.pdf",
				"fileSize": 10,
				"mimeType": "application/pdf",
			},
		}, &body)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", body.Code)
	})

	t.Run("validation failure is a 400", func(t *testing.T) {
		resp := call(t, ts, token, http.MethodPost, "/api/v1/documents", map[string]interface{}{
			"code": "SPEC-002",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list returns the pagination envelope", func(t *testing.T) {
		var list pagination.ListResponse[models.Document]
		resp := call(t, ts, token, http.MethodGet, "/api/v1/documents", nil, &list)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, list.Items, 1)
		assert.Equal(t, int64(1), list.Pagination.TotalItems)
	})

	t.Run("get by id", func(t *testing.T) {
		var got models.Document
		resp := call(t, ts, token, http.MethodGet, fmt.Sprintf("/api/v1/documents/%d", doc.ID), nil, &got)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, doc.ID, got.ID)
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		var body errorBody
		resp := call(t, ts, token, http.MethodGet, "/api/v1/documents/9999", nil, &body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", body.Code)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		resp := call(t, ts, token, http.MethodGet, "/api/v1/documents/abc", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestReviewEndpoints(t *testing.T) {
	ts, token := newTestServer(t)
	dt := createType(t, ts, token, "SPEC")
	doc := createDocument(t, ts, token, dt.ID, "SPEC-001")
	revID := doc.Revisions[0].ID

	var wf models.ReviewWorkflow
	resp := call(t, ts, token, http.MethodPost,
		fmt.Sprintf("/api/v1/revisions/%d/review", revID),
		map[string]interface{}{
			"steps": []service.StepInput{
				{StepOrder: 1, StepType: models.StepTypeApprove, AssignedToID: 1},
			},
		}, &wf)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, wf.Steps, 1)
	assert.Equal(t, models.WorkflowStatusInProgress, wf.Status)

	t.Run("approving out-of-state step is a 422", func(t *testing.T) {
		var step models.ReviewStep
		resp := call(t, ts, token, http.MethodPost,
			fmt.Sprintf("/api/v1/steps/%d/approve", wf.Steps[0].ID),
			map[string]string{"comments": "lgtm"}, &step)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.StepStatusApproved, step.Status)
		assert.NotNil(t, step.SignatureHash)

		var body errorBody
		again := call(t, ts, token, http.MethodPost,
			fmt.Sprintf("/api/v1/steps/%d/approve", wf.Steps[0].ID),
			map[string]string{"comments": "again"}, &body)
		assert.Equal(t, http.StatusUnprocessableEntity, again.StatusCode)
		assert.Equal(t, "INVALID_STATE", body.Code)
	})

	t.Run("completed review approves the revision", func(t *testing.T) {
		var rev models.DocumentRevision
		resp := call(t, ts, token, http.MethodGet,
			fmt.Sprintf("/api/v1/revisions/%d", revID), nil, &rev)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.RevisionStatusApproved, rev.Status)
	})

	t.Run("workflows listing requires a status", func(t *testing.T) {
		resp := call(t, ts, token, http.MethodGet, "/api/v1/workflows", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var workflows []models.ReviewWorkflow
		ok := call(t, ts, token, http.MethodGet, "/api/v1/workflows?status=COMPLETED", nil, &workflows)
		assert.Equal(t, http.StatusOK, ok.StatusCode)
		assert.Len(t, workflows, 1)
	})

	t.Run("review queue defaults to the caller", func(t *testing.T) {
		var steps []models.ReviewStep
		resp := call(t, ts, token, http.MethodGet, "/api/v1/review-queue", nil, &steps)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, steps)
	})
}

func TestTransmittalEndpoints(t *testing.T) {
	ts, token := newTestServer(t)
	dt := createType(t, ts, token, "SPEC")
	doc := createDocument(t, ts, token, dt.ID, "SPEC-001")
	revID := doc.Revisions[0].ID

	var tr models.Transmittal
	resp := call(t, ts, token, http.MethodPost, "/api/v1/transmittals", map[string]interface{}{
		"issuedTo": "Acme Corp",
		"items": []map[string]interface{}{
			{"documentRevisionId": revID, "purposeCode": "FOR_REVIEW"},
		},
	}, &tr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "TR-001", tr.Code)
	assert.Equal(t, models.TransmittalStatusDraft, tr.Status)

	t.Run("respond before issue is a 422", func(t *testing.T) {
		resp := call(t, ts, token, http.MethodPost,
			fmt.Sprintf("/api/v1/transmittals/%d/respond", tr.ID),
			map[string]interface{}{
				"items": []map[string]interface{}{
					{"itemId": tr.Items[0].ID, "clientStatus": "APPROVED"},
				},
			}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("issue then respond then close", func(t *testing.T) {
		var issued models.Transmittal
		resp := call(t, ts, token, http.MethodPost,
			fmt.Sprintf("/api/v1/transmittals/%d/issue", tr.ID), nil, &issued)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.TransmittalStatusIssued, issued.Status)
		assert.NotNil(t, issued.IssuedAt)

		var responded models.Transmittal
		resp = call(t, ts, token, http.MethodPost,
			fmt.Sprintf("/api/v1/transmittals/%d/respond", tr.ID),
			map[string]interface{}{
				"comments": "reviewed",
				"items": []map[string]interface{}{
					{"itemId": tr.Items[0].ID, "clientStatus": "APPROVED"},
				},
			}, &responded)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.TransmittalStatusResponded, responded.Status)

		var closed models.Transmittal
		resp = call(t, ts, token, http.MethodPost,
			fmt.Sprintf("/api/v1/transmittals/%d/close", tr.ID), nil, &closed)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.TransmittalStatusClosed, closed.Status)
	})
}

func TestScannedFileEndpoints(t *testing.T) {
	ts, token := newTestServer(t)
	dt := createType(t, ts, token, "SCAN")

	var sf models.ScannedFile
	resp := call(t, ts, token, http.MethodPost, "/api/v1/scanned-files", map[string]interface{}{
		"title": "Box 1 scan 0001",
		"file": map[string]interface{}{
			"fileKey":  "scans/box-1/0001.tif",
			"fileName": "0001.tif",
			"fileSize": 4096,
			"mimeType": "image/tiff",
		},
	}, &sf)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.DigitalPending, sf.DigitalDisposition)

	t.Run("classify accept", func(t *testing.T) {
		var got models.ScannedFile
		resp := call(t, ts, token, http.MethodPost,
			fmt.Sprintf("/api/v1/scanned-files/%d/classify", sf.ID),
			map[string]interface{}{"accept": true, "documentTypeId": dt.ID}, &got)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.DigitalAccepted, got.DigitalDisposition)
	})

	t.Run("stats census", func(t *testing.T) {
		var stats models.ScannedFileStats
		resp := call(t, ts, token, http.MethodGet, "/api/v1/scanned-files/stats", nil, &stats)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(1), stats.Total)
		assert.Equal(t, int64(1), stats.Accepted)
	})
}
