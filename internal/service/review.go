package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/internal/notify"
	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/models"
)

// ReviewService runs the sequential approval state machine over a revision's
// workflow. Approving the last blocking step approves the revision and
// supersedes any previously approved sibling; a single rejection terminates
// the whole review and reverts the revision to DRAFT.
type ReviewService struct {
	base
}

// signatureHash fingerprints an approval or rejection event for the audit
// trail: SHA-256 over "<stepID>-<userID>-<RFC3339 timestamp>-<action>".
// Computed once at evaluation time and never recomputed.
func signatureHash(stepID, userID uint, ts time.Time, action string) string {
	data := fmt.Sprintf("%d-%d-%s-%s", stepID, userID, ts.UTC().Format(time.RFC3339), action)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// withWorkflowIncludes preloads a workflow's revision (with document) and its
// ordered steps.
func withWorkflowIncludes(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Revision").
		Preload("Revision.Document").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("review_steps.step_order ASC")
		})
}

// withStepIncludes preloads a step's workflow, the workflow's revision and
// document, and the sibling steps in order.
func withStepIncludes(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Workflow").
		Preload("Workflow.Revision").
		Preload("Workflow.Revision.Document").
		Preload("Workflow.Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("review_steps.step_order ASC")
		})
}

// StepInput defines one step of a new review workflow.
type StepInput struct {
	StepOrder    int             `json:"stepOrder"`
	StepType     models.StepType `json:"stepType"`
	AssignedToID uint            `json:"assignedToId"`
}

// validateSteps checks a workflow's step definitions as a whole, collecting
// every fault rather than stopping at the first.
func validateSteps(steps []StepInput) error {
	if len(steps) == 0 {
		return apperr.Validation("a workflow requires at least one step")
	}

	var errs *multierror.Error
	seen := map[int]bool{}
	for i, step := range steps {
		if step.StepOrder < 1 {
			errs = multierror.Append(errs, fmt.Errorf("step %d: stepOrder must be positive", i+1))
		}
		if seen[step.StepOrder] {
			errs = multierror.Append(errs, fmt.Errorf("step %d: duplicate stepOrder %d", i+1, step.StepOrder))
		}
		seen[step.StepOrder] = true
		if !step.StepType.Valid() {
			errs = multierror.Append(errs, fmt.Errorf("step %d: unknown stepType %q", i+1, step.StepType))
		}
		if step.AssignedToID == 0 {
			errs = multierror.Append(errs, fmt.Errorf("step %d: assignedToId is required", i+1))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return apperr.Validation("%v", err)
	}
	return nil
}

// InitiateReview creates a workflow over a DRAFT revision and moves the
// revision into IN_REVIEW, atomically. A revision gets one workflow for its
// lifetime.
func (s *ReviewService) InitiateReview(ctx context.Context, ident auth.Identity, revisionID uint, steps []StepInput) (*models.ReviewWorkflow, error) {
	const op = "INITIATE_REVIEW"
	if err := ident.Require(auth.PermWorkflowCreate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if err := validateSteps(steps); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	var workflow models.ReviewWorkflow
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var rev models.DocumentRevision
		if err := lockForUpdate(tx).First(&rev, revisionID).Error; err != nil {
			return apperr.FromStorage(err, "the revision does not exist", "")
		}
		if rev.Status != models.RevisionStatusDraft {
			return apperr.InvalidState(
				"a review can only be initiated on a DRAFT revision (current: %s)", rev.Status)
		}

		var existing int64
		if err := tx.Model(&models.ReviewWorkflow{}).
			Where("revision_id = ?", revisionID).
			Count(&existing).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}
		if existing > 0 {
			return apperr.Conflict("this revision already has a review workflow")
		}

		workflow = models.ReviewWorkflow{
			RevisionID:    revisionID,
			Status:        models.WorkflowStatusInProgress,
			InitiatedByID: ident.UserID,
		}
		for _, in := range steps {
			workflow.Steps = append(workflow.Steps, models.ReviewStep{
				StepOrder:    in.StepOrder,
				StepType:     in.StepType,
				Status:       models.StepStatusPending,
				AssignedToID: in.AssignedToID,
			})
		}
		if err := tx.Create(&workflow).Error; err != nil {
			return apperr.FromStorage(err, "", "this revision already has a review workflow")
		}

		if err := tx.Model(&rev).Updates(map[string]interface{}{
			"status":        models.RevisionStatusInReview,
			"updated_by_id": ident.UserID,
		}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("review initiated on revision %d with %d steps", revisionID, len(steps)),
			map[string]interface{}{"revisionId": revisionID, "workflowId": workflow.ID})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	wf, err := s.getWorkflow(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(notify.NewMessage(notify.EventReviewRequested, ident.UserID,
		fmt.Sprintf("Review requested: %s rev %s",
			wf.Revision.Document.Code, wf.Revision.RevisionCode),
		fmt.Sprintf("A review with %d steps was initiated on revision %s of %s.",
			len(steps), wf.Revision.RevisionCode, wf.Revision.Document.Code),
		map[string]any{"workflowId": wf.ID, "revisionId": wf.RevisionID}))
	return wf, nil
}

// ApproveStep approves a PENDING step. Every blocking step with a smaller
// stepOrder must already be APPROVED or SKIPPED; pending ACKNOWLEDGE steps
// never hold up later approvals. When the approval completes the last
// blocking step, a single transaction completes the workflow, approves the
// revision and supersedes every other APPROVED revision of the same document.
func (s *ReviewService) ApproveStep(ctx context.Context, ident auth.Identity, stepID uint, comments string) (*models.ReviewStep, error) {
	const op = "APPROVE_STEP"
	if err := ident.Require(auth.PermWorkflowUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		step, workflow, siblings, err := s.loadStepForEvaluation(tx, stepID)
		if err != nil {
			return err
		}

		for _, sib := range siblings {
			if sib.StepOrder >= step.StepOrder || !sib.Blocking() {
				continue
			}
			if sib.Status != models.StepStatusApproved && sib.Status != models.StepStatusSkipped {
				return apperr.InvalidState(
					"step %d must be completed before step %d can be evaluated",
					sib.StepOrder, step.StepOrder)
			}
		}

		now := time.Now()
		hash := signatureHash(step.ID, ident.UserID, now, "APPROVED")
		if err := tx.Model(step).Updates(map[string]interface{}{
			"status":         models.StepStatusApproved,
			"comments":       optional(comments),
			"completed_at":   now,
			"signature_hash": hash,
		}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		if !workflowComplete(siblings, step.ID) {
			s.audit.Success(tx, op, ident.UserID,
				fmt.Sprintf("step %d of workflow %d approved", step.StepOrder, workflow.ID),
				map[string]interface{}{"stepId": step.ID, "workflowId": workflow.ID})
			return nil
		}

		// Last blocking step approved: complete the workflow, approve the
		// revision and supersede any previously approved sibling revision.
		// Partial visibility of this set of writes is never acceptable.
		if err := tx.Model(&models.ReviewWorkflow{}).
			Where("id = ?", workflow.ID).
			Updates(map[string]interface{}{
				"status":       models.WorkflowStatusCompleted,
				"completed_at": now,
			}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		if err := tx.Model(&models.DocumentRevision{}).
			Where("id = ?", workflow.RevisionID).
			Updates(map[string]interface{}{
				"status":         models.RevisionStatusApproved,
				"approved_at":    now,
				"approved_by_id": ident.UserID,
				"updated_by_id":  ident.UserID,
			}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		if err := tx.Model(&models.DocumentRevision{}).
			Where("document_id = ? AND id <> ? AND status = ?",
				workflow.Revision.DocumentID, workflow.RevisionID, models.RevisionStatusApproved).
			Update("status", models.RevisionStatusSuperseded).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("workflow %d completed; revision %d approved", workflow.ID, workflow.RevisionID),
			map[string]interface{}{
				"stepId":     step.ID,
				"workflowId": workflow.ID,
				"revisionId": workflow.RevisionID,
			})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	result, err := s.getStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if result.Workflow != nil && result.Workflow.Status == models.WorkflowStatusCompleted {
		rev := result.Workflow.Revision
		s.notifier.Publish(notify.NewMessage(notify.EventRevisionApproved, ident.UserID,
			fmt.Sprintf("Revision approved: %s rev %s", rev.Document.Code, rev.RevisionCode),
			fmt.Sprintf("Revision %s of %s passed review and is now APPROVED.",
				rev.RevisionCode, rev.Document.Code),
			map[string]any{"workflowId": result.WorkflowID, "revisionId": rev.ID}))
	}
	return result, nil
}

// RejectStep rejects a PENDING step. The remaining PENDING steps are
// skipped, the workflow terminates REJECTED and the revision reverts to
// DRAFT; a fresh review must start from scratch.
func (s *ReviewService) RejectStep(ctx context.Context, ident auth.Identity, stepID uint, comments string) (*models.ReviewStep, error) {
	const op = "REJECT_STEP"
	if err := ident.Require(auth.PermWorkflowUpdate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if comments == "" {
		return nil, s.fail(op, ident.UserID,
			apperr.Validation("rejecting a step requires comments"))
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		step, workflow, _, err := s.loadStepForEvaluation(tx, stepID)
		if err != nil {
			return err
		}

		now := time.Now()
		hash := signatureHash(step.ID, ident.UserID, now, "REJECTED")
		if err := tx.Model(step).Updates(map[string]interface{}{
			"status":         models.StepStatusRejected,
			"comments":       comments,
			"completed_at":   now,
			"signature_hash": hash,
		}).Error; err != nil {
			return apperr.FromStorage(err, "", "")
		}

		if err := s.terminateWorkflow(tx, workflow, step.ID, now, ident.UserID); err != nil {
			return err
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("step %d of workflow %d rejected; revision %d back to DRAFT",
				step.StepOrder, workflow.ID, workflow.RevisionID),
			map[string]interface{}{"stepId": step.ID, "workflowId": workflow.ID})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	result, err := s.getStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if result.Workflow != nil && result.Workflow.Revision != nil {
		rev := result.Workflow.Revision
		s.notifier.Publish(notify.NewMessage(notify.EventReviewRejected, ident.UserID,
			fmt.Sprintf("Review rejected: %s rev %s", rev.Document.Code, rev.RevisionCode),
			fmt.Sprintf("Revision %s of %s was rejected at step %d and reverted to DRAFT.",
				rev.RevisionCode, rev.Document.Code, result.StepOrder),
			map[string]any{"workflowId": result.WorkflowID, "revisionId": rev.ID}))
	}
	return result, nil
}

// CancelWorkflow aborts a non-terminal workflow: pending steps are skipped,
// the workflow terminates REJECTED and the revision reverts to DRAFT. The
// reason is recorded in the audit trail.
func (s *ReviewService) CancelWorkflow(ctx context.Context, ident auth.Identity, workflowID uint, reason string) (*models.ReviewWorkflow, error) {
	const op = "CANCEL_WORKFLOW"
	if err := ident.Require(auth.PermWorkflowCreate); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}
	if reason == "" {
		return nil, s.fail(op, ident.UserID,
			apperr.Validation("cancelling a workflow requires a reason"))
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var workflow models.ReviewWorkflow
		if err := lockForUpdate(tx).First(&workflow, workflowID).Error; err != nil {
			return apperr.FromStorage(err, "the workflow does not exist", "")
		}
		if workflow.Status.Terminal() {
			return apperr.InvalidState(
				"a %s workflow cannot be cancelled", workflow.Status)
		}

		if err := s.terminateWorkflow(tx, &workflow, 0, time.Now(), ident.UserID); err != nil {
			return err
		}

		s.audit.Success(tx, op, ident.UserID,
			fmt.Sprintf("workflow %d cancelled: %s", workflowID, reason),
			map[string]interface{}{"workflowId": workflowID, "reason": reason})
		return nil
	})
	if err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	return s.getWorkflow(ctx, workflowID)
}

// loadStepForEvaluation locks the step's workflow row (serializing
// concurrent evaluations of the same workflow), then loads the step and its
// ordered siblings. The workflow must be IN_PROGRESS and the step still
// PENDING.
func (s *ReviewService) loadStepForEvaluation(tx *gorm.DB, stepID uint) (*models.ReviewStep, *models.ReviewWorkflow, []models.ReviewStep, error) {
	var step models.ReviewStep
	if err := tx.First(&step, stepID).Error; err != nil {
		return nil, nil, nil, apperr.FromStorage(err, "the review step does not exist", "")
	}

	var workflow models.ReviewWorkflow
	if err := lockForUpdate(tx).
		Preload("Revision").
		First(&workflow, step.WorkflowID).Error; err != nil {
		return nil, nil, nil, apperr.FromStorage(err, "the workflow does not exist", "")
	}
	// A completed workflow may still hold PENDING ACKNOWLEDGE steps;
	// evaluating one must not reopen a terminal workflow.
	if workflow.Status != models.WorkflowStatusInProgress {
		return nil, nil, nil, apperr.InvalidState(
			"steps of a %s workflow can no longer be evaluated", workflow.Status)
	}

	// Re-read the step under the workflow lock; its status may have changed
	// between the unlocked read and acquiring the lock.
	if err := tx.First(&step, stepID).Error; err != nil {
		return nil, nil, nil, apperr.FromStorage(err, "the review step does not exist", "")
	}
	if step.Status != models.StepStatusPending {
		return nil, nil, nil, apperr.InvalidState("this step was already evaluated")
	}

	var siblings []models.ReviewStep
	if err := tx.Where("workflow_id = ?", workflow.ID).
		Order("step_order ASC").
		Find(&siblings).Error; err != nil {
		return nil, nil, nil, apperr.FromStorage(err, "", "")
	}

	return &step, &workflow, siblings, nil
}

// workflowComplete reports whether every blocking step is APPROVED, counting
// the step just approved in this transaction. ACKNOWLEDGE steps are advisory
// and never gate completion.
func workflowComplete(siblings []models.ReviewStep, approvedStepID uint) bool {
	for _, sib := range siblings {
		if !sib.Blocking() {
			continue
		}
		if sib.ID == approvedStepID {
			continue
		}
		if sib.Status != models.StepStatusApproved {
			return false
		}
	}
	return true
}

// terminateWorkflow skips the remaining PENDING steps (except exceptID, the
// step evaluated in this transaction), marks the workflow REJECTED and
// reverts its revision to DRAFT.
func (s *ReviewService) terminateWorkflow(tx *gorm.DB, workflow *models.ReviewWorkflow, exceptID uint, now time.Time, userID uint) error {
	skip := tx.Model(&models.ReviewStep{}).
		Where("workflow_id = ? AND status = ?", workflow.ID, models.StepStatusPending)
	if exceptID != 0 {
		skip = skip.Where("id <> ?", exceptID)
	}
	if err := skip.Update("status", models.StepStatusSkipped).Error; err != nil {
		return apperr.FromStorage(err, "", "")
	}

	if err := tx.Model(&models.ReviewWorkflow{}).
		Where("id = ?", workflow.ID).
		Updates(map[string]interface{}{
			"status":       models.WorkflowStatusRejected,
			"completed_at": now,
		}).Error; err != nil {
		return apperr.FromStorage(err, "", "")
	}

	if err := tx.Model(&models.DocumentRevision{}).
		Where("id = ?", workflow.RevisionID).
		Updates(map[string]interface{}{
			"status":        models.RevisionStatusDraft,
			"updated_by_id": userID,
		}).Error; err != nil {
		return apperr.FromStorage(err, "", "")
	}
	return nil
}

// PendingReviewSteps lists the PENDING steps assigned to a user in open
// workflows, oldest first.
func (s *ReviewService) PendingReviewSteps(ctx context.Context, ident auth.Identity, userID uint) ([]models.ReviewStep, error) {
	const op = "GET_PENDING_REVIEW_STEPS"
	if err := ident.Require(auth.PermWorkflowList); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	var steps []models.ReviewStep
	err := withStepIncludes(s.conn(ctx)).
		Joins("JOIN review_workflows w ON w.id = review_steps.workflow_id").
		Where("review_steps.assigned_to_id = ? AND review_steps.status = ?",
			userID, models.StepStatusPending).
		Where("w.status IN ?", []models.WorkflowStatus{
			models.WorkflowStatusPending, models.WorkflowStatusInProgress,
		}).
		Order("review_steps.created_at ASC").
		Find(&steps).Error
	if err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}
	return steps, nil
}

// WorkflowsByStatus lists workflows in a given state, newest first.
func (s *ReviewService) WorkflowsByStatus(ctx context.Context, ident auth.Identity, status models.WorkflowStatus) ([]models.ReviewWorkflow, error) {
	const op = "GET_WORKFLOWS_BY_STATUS"
	if err := ident.Require(auth.PermWorkflowList); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	var workflows []models.ReviewWorkflow
	err := withWorkflowIncludes(s.conn(ctx)).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&workflows).Error
	if err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}
	return workflows, nil
}

func (s *ReviewService) getWorkflow(ctx context.Context, id uint) (*models.ReviewWorkflow, error) {
	var workflow models.ReviewWorkflow
	err := withWorkflowIncludes(s.conn(ctx)).First(&workflow, id).Error
	if err != nil {
		return nil, apperr.FromStorage(err, "the workflow does not exist", "")
	}
	return &workflow, nil
}

func (s *ReviewService) getStep(ctx context.Context, id uint) (*models.ReviewStep, error) {
	var step models.ReviewStep
	err := withStepIncludes(s.conn(ctx)).First(&step, id).Error
	if err != nil {
		return nil, apperr.FromStorage(err, "the review step does not exist", "")
	}
	return &step, nil
}
