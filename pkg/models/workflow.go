package models

import "time"

// ReviewWorkflow is the ordered set of approval steps gating a revision's
// approval. A revision has at most one workflow for its lifetime; a rejected
// review reverts the revision to DRAFT and any new review requires a fresh
// revision cycle.
type ReviewWorkflow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	RevisionID uint              `gorm:"not null;uniqueIndex" json:"revisionId"`
	Revision   *DocumentRevision `json:"revision,omitempty"`

	Status WorkflowStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	InitiatedByID uint       `gorm:"not null" json:"initiatedById"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`

	Steps []ReviewStep `gorm:"foreignKey:WorkflowID" json:"steps,omitempty"`
}

// TableName specifies the table name.
func (ReviewWorkflow) TableName() string {
	return "review_workflows"
}

// ReviewStep is one assigned approval checkpoint within a workflow. Steps are
// evaluated in stepOrder; once a step leaves PENDING it is immutable.
type ReviewStep struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	WorkflowID uint            `gorm:"not null;index;uniqueIndex:idx_steps_workflow_order" json:"workflowId"`
	Workflow   *ReviewWorkflow `json:"workflow,omitempty"`

	StepOrder int        `gorm:"not null;uniqueIndex:idx_steps_workflow_order" json:"stepOrder"`
	StepType  StepType   `gorm:"type:varchar(20);not null" json:"stepType"`
	Status    StepStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	AssignedToID uint    `gorm:"not null;index" json:"assignedToId"`
	Comments     *string `gorm:"type:text" json:"comments,omitempty"`

	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// SignatureHash is the tamper-evident fingerprint of the approval or
	// rejection event, computed once when the step is evaluated and never
	// recomputed.
	SignatureHash *string `gorm:"type:varchar(64)" json:"signatureHash,omitempty"`
}

// TableName specifies the table name.
func (ReviewStep) TableName() string {
	return "review_steps"
}

// Blocking reports whether the step gates workflow completion. ACKNOWLEDGE
// steps are advisory: they are created PENDING and may be approved, but they
// never hold up completion.
func (s *ReviewStep) Blocking() bool {
	return s.StepType != StepTypeAcknowledge
}
