package api

import (
	"net/http"

	"github.com/docworks-io/docvault/internal/server"
)

// NewRouter registers every API route on a fresh mux.
func NewRouter(srv *server.Server) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", HealthHandler(srv))

	mux.Handle("POST /api/v1/documents", DocumentsCreateHandler(srv))
	mux.Handle("GET /api/v1/documents", DocumentsListHandler(srv))
	mux.Handle("GET /api/v1/documents/options", DocumentOptionsHandler(srv))
	mux.Handle("GET /api/v1/documents/{id}", DocumentsGetHandler(srv))
	mux.Handle("PATCH /api/v1/documents/{id}", DocumentsUpdateHandler(srv))
	mux.Handle("DELETE /api/v1/documents/{id}", DocumentsTerminateHandler(srv))
	mux.Handle("POST /api/v1/documents/{id}/activate", DocumentsActivateHandler(srv))
	mux.Handle("POST /api/v1/documents/{id}/revision-scheme", RevisionSchemeHandler(srv))
	mux.Handle("POST /api/v1/documents/{id}/revisions", RevisionsCreateHandler(srv))

	mux.Handle("GET /api/v1/revisions/{id}", RevisionsGetHandler(srv))
	mux.Handle("POST /api/v1/revisions/{id}/versions", VersionsCreateHandler(srv))
	mux.Handle("POST /api/v1/revisions/{id}/review", ReviewInitiateHandler(srv))

	mux.Handle("GET /api/v1/workflows", WorkflowsListHandler(srv))
	mux.Handle("POST /api/v1/workflows/{id}/cancel", WorkflowCancelHandler(srv))
	mux.Handle("POST /api/v1/steps/{id}/approve", StepApproveHandler(srv))
	mux.Handle("POST /api/v1/steps/{id}/reject", StepRejectHandler(srv))
	mux.Handle("GET /api/v1/review-queue", ReviewQueueHandler(srv))

	mux.Handle("POST /api/v1/transmittals", TransmittalsCreateHandler(srv))
	mux.Handle("GET /api/v1/transmittals", TransmittalsListHandler(srv))
	mux.Handle("GET /api/v1/transmittals/{id}", TransmittalsGetHandler(srv))
	mux.Handle("POST /api/v1/transmittals/{id}/issue", TransmittalIssueHandler(srv))
	mux.Handle("POST /api/v1/transmittals/{id}/acknowledge", TransmittalAcknowledgeHandler(srv))
	mux.Handle("POST /api/v1/transmittals/{id}/respond", TransmittalRespondHandler(srv))
	mux.Handle("POST /api/v1/transmittals/{id}/close", TransmittalCloseHandler(srv))

	mux.Handle("POST /api/v1/scanned-files", ScannedFilesCreateHandler(srv))
	mux.Handle("GET /api/v1/scanned-files", ScannedFilesListHandler(srv))
	mux.Handle("GET /api/v1/scanned-files/stats", ScannedFileStatsHandler(srv))
	mux.Handle("GET /api/v1/scanned-files/{id}", ScannedFilesGetHandler(srv))
	mux.Handle("POST /api/v1/scanned-files/{id}/classify", ScannedFileClassifyHandler(srv))
	mux.Handle("POST /api/v1/scanned-files/{id}/upload", ScannedFileUploadHandler(srv))
	mux.Handle("POST /api/v1/scanned-files/{id}/physical-disposition", PhysicalDispositionHandler(srv))
	mux.Handle("POST /api/v1/scanned-files/{id}/physical-disposition/confirm", PhysicalConfirmHandler(srv))
	mux.Handle("DELETE /api/v1/scanned-files/{id}", ScannedFileTerminateHandler(srv))
	mux.Handle("POST /api/v1/scanned-files/{id}/activate", ScannedFileActivateHandler(srv))

	mux.Handle("POST /api/v1/document-types", DocumentTypesCreateHandler(srv))
	mux.Handle("GET /api/v1/document-types", DocumentTypesListHandler(srv))
	mux.Handle("GET /api/v1/document-types/options", DocumentTypeOptionsHandler(srv))
	mux.Handle("GET /api/v1/document-types/{id}", DocumentTypesGetHandler(srv))

	mux.Handle("GET /api/v1/audit-logs", AuditLogsListHandler(srv))
	mux.Handle("GET /api/v1/audit-logs/{id}", AuditLogsGetHandler(srv))

	return mux
}
