package models

// RevisionScheme selects how a document's revision codes are generated.
type RevisionScheme string

const (
	RevisionSchemeAlphabetical RevisionScheme = "ALPHABETICAL"
	RevisionSchemeNumeric      RevisionScheme = "NUMERIC"
)

// Valid reports whether s is a known scheme.
func (s RevisionScheme) Valid() bool {
	return s == RevisionSchemeAlphabetical || s == RevisionSchemeNumeric
}

// RevisionStatus is the lifecycle state of a document revision.
type RevisionStatus string

const (
	RevisionStatusDraft      RevisionStatus = "DRAFT"
	RevisionStatusInReview   RevisionStatus = "IN_REVIEW"
	RevisionStatusApproved   RevisionStatus = "APPROVED"
	RevisionStatusSuperseded RevisionStatus = "SUPERSEDED"
)

// Active reports whether the revision still has an open line of work. A
// document may hold at most one active revision at a time.
func (s RevisionStatus) Active() bool {
	return s == RevisionStatusDraft || s == RevisionStatusInReview
}

// WorkflowStatus is the lifecycle state of a review workflow.
type WorkflowStatus string

const (
	WorkflowStatusPending    WorkflowStatus = "PENDING"
	WorkflowStatusInProgress WorkflowStatus = "IN_PROGRESS"
	WorkflowStatusCompleted  WorkflowStatus = "COMPLETED"
	WorkflowStatusRejected   WorkflowStatus = "REJECTED"
)

// Terminal reports whether no further transition may leave this state.
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusRejected
}

// StepStatus is the state of one review step. PENDING is the only state that
// permits further mutation.
type StepStatus string

const (
	StepStatusPending  StepStatus = "PENDING"
	StepStatusApproved StepStatus = "APPROVED"
	StepStatusRejected StepStatus = "REJECTED"
	StepStatusSkipped  StepStatus = "SKIPPED"
)

// StepType distinguishes blocking approval steps from advisory acknowledge
// steps, which never gate workflow completion.
type StepType string

const (
	StepTypeReview      StepType = "REVIEW"
	StepTypeApprove     StepType = "APPROVE"
	StepTypeAcknowledge StepType = "ACKNOWLEDGE"
)

// Valid reports whether t is a known step type.
func (t StepType) Valid() bool {
	return t == StepTypeReview || t == StepTypeApprove || t == StepTypeAcknowledge
}

// TransmittalStatus is the lifecycle state of a transmittal.
type TransmittalStatus string

const (
	TransmittalStatusDraft        TransmittalStatus = "DRAFT"
	TransmittalStatusIssued       TransmittalStatus = "ISSUED"
	TransmittalStatusAcknowledged TransmittalStatus = "ACKNOWLEDGED"
	TransmittalStatusResponded    TransmittalStatus = "RESPONDED"
	TransmittalStatusClosed       TransmittalStatus = "CLOSED"
)

// ClientStatus is the recipient's verdict on a transmitted revision.
type ClientStatus string

const (
	ClientStatusApproved         ClientStatus = "APPROVED"
	ClientStatusApprovedWithNote ClientStatus = "APPROVED_WITH_COMMENTS"
	ClientStatusRejected         ClientStatus = "REJECTED"
	ClientStatusForInformation   ClientStatus = "FOR_INFORMATION"
)

// Valid reports whether c is a known client status.
func (c ClientStatus) Valid() bool {
	switch c {
	case ClientStatusApproved, ClientStatusApprovedWithNote,
		ClientStatusRejected, ClientStatusForInformation:
		return true
	}
	return false
}

// DigitalDisposition tracks the digitization outcome of a scanned file.
type DigitalDisposition string

const (
	DigitalPending   DigitalDisposition = "PENDING"
	DigitalAccepted  DigitalDisposition = "ACCEPTED"
	DigitalDiscarded DigitalDisposition = "DISCARDED"
	DigitalUploaded  DigitalDisposition = "UPLOADED"
)

// PhysicalDisposition tracks the retention decision for the paper original.
// DESTROY and ARCHIVE are intents; DESTROYED and ARCHIVED record the
// confirmed outcome.
type PhysicalDisposition string

const (
	PhysicalPending   PhysicalDisposition = "PENDING"
	PhysicalDestroy   PhysicalDisposition = "DESTROY"
	PhysicalArchive   PhysicalDisposition = "ARCHIVE"
	PhysicalDestroyed PhysicalDisposition = "DESTROYED"
	PhysicalArchived  PhysicalDisposition = "ARCHIVED"
)

// LogLevel classifies an audit record.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// SortDirection orders list results.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// TerminatedFilter selects soft-deleted rows, live rows, or both.
type TerminatedFilter string

const (
	TerminatedFilterActive   TerminatedFilter = "ACTIVE"
	TerminatedFilterDisabled TerminatedFilter = "DISABLED"
	TerminatedFilterAll      TerminatedFilter = "ALL"
)
