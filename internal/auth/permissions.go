package auth

// Permission codes granted by the external identity service. Every core
// operation names the capability it requires; the token must carry it.
const (
	PermDocumentRead   = "document:document:read"
	PermDocumentList   = "document:document:list"
	PermDocumentCreate = "document:document:create"
	PermDocumentUpdate = "document:document:update"
	PermDocumentDelete = "document:document:delete"
	PermDocumentSelect = "document:document:select"

	PermWorkflowList   = "document:workflow:list"
	PermWorkflowCreate = "document:workflow:create"
	PermWorkflowUpdate = "document:workflow:update"

	PermTransmittalRead   = "document:transmittal:read"
	PermTransmittalList   = "document:transmittal:list"
	PermTransmittalCreate = "document:transmittal:create"
	PermTransmittalUpdate = "document:transmittal:update"

	PermScannedFileRead   = "document:scanned-file:read"
	PermScannedFileList   = "document:scanned-file:list"
	PermScannedFileCreate = "document:scanned-file:create"
	PermScannedFileUpdate = "document:scanned-file:update"
	PermScannedFileDelete = "document:scanned-file:delete"

	PermDocumentTypeRead   = "document:document-type:read"
	PermDocumentTypeList   = "document:document-type:list"
	PermDocumentTypeCreate = "document:document-type:create"

	PermSysLogRead = "document:sys-log:read"
	PermSysLogList = "document:sys-log:list"
)
