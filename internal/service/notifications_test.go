package service

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docworks-io/docvault/internal/notify"
	"github.com/docworks-io/docvault/pkg/models"
)

// waitForEvent polls the backend until one message for the event arrives.
func waitForEvent(t *testing.T, mem *notify.MemoryBackend, event notify.Event) *notify.Message {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(mem.ByEvent(event)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	return mem.ByEvent(event)[0]
}

func TestWorkflowNotifications(t *testing.T) {
	ctx := context.Background()

	newNotifyingServices := func(t *testing.T) (*Services, *notify.MemoryBackend) {
		t.Helper()
		notifier := notify.NewNotifier(nil, hclog.NewNullLogger())
		mem := notify.NewMemoryBackend()
		notifier.Register(mem)
		svc, _ := newTestServices(t, WithNotifier(notifier))
		return svc, mem
	}

	t.Run("initiating a review publishes review_requested", func(t *testing.T) {
		svc, mem := newNotifyingServices(t)
		dt := seedDocumentType(t, svc.Documents.db, "SPEC")
		doc := seedDocument(t, svc, dt.ID, "SPEC-001")

		wf, err := svc.Review.InitiateReview(ctx, admin(5), doc.Revisions[0].ID, []StepInput{
			{StepOrder: 1, StepType: models.StepTypeApprove, AssignedToID: 2},
		})
		require.NoError(t, err)

		msg := waitForEvent(t, mem, notify.EventReviewRequested)
		assert.Equal(t, uint(5), msg.ActorID)
		assert.Contains(t, msg.Subject, "SPEC-001")
		assert.Contains(t, msg.Subject, "rev A")
		assert.Equal(t, wf.ID, msg.Meta["workflowId"])
	})

	t.Run("completing the review publishes revision_approved", func(t *testing.T) {
		svc, mem := newNotifyingServices(t)
		dt := seedDocumentType(t, svc.Documents.db, "SPEC")
		doc := seedDocument(t, svc, dt.ID, "SPEC-001")

		wf, err := svc.Review.InitiateReview(ctx, admin(1), doc.Revisions[0].ID, []StepInput{
			{StepOrder: 1, StepType: models.StepTypeApprove, AssignedToID: 2},
		})
		require.NoError(t, err)
		_, err = svc.Review.ApproveStep(ctx, admin(2), wf.Steps[0].ID, "ok")
		require.NoError(t, err)

		msg := waitForEvent(t, mem, notify.EventRevisionApproved)
		assert.Equal(t, uint(2), msg.ActorID)
		assert.Contains(t, msg.Subject, "SPEC-001")
	})

	t.Run("a mid-workflow approval publishes nothing", func(t *testing.T) {
		svc, mem := newNotifyingServices(t)
		dt := seedDocumentType(t, svc.Documents.db, "SPEC")
		doc := seedDocument(t, svc, dt.ID, "SPEC-001")

		wf, err := svc.Review.InitiateReview(ctx, admin(1), doc.Revisions[0].ID, []StepInput{
			{StepOrder: 1, StepType: models.StepTypeApprove, AssignedToID: 2},
			{StepOrder: 2, StepType: models.StepTypeApprove, AssignedToID: 3},
		})
		require.NoError(t, err)
		_, err = svc.Review.ApproveStep(ctx, admin(2), wf.Steps[0].ID, "ok")
		require.NoError(t, err)

		waitForEvent(t, mem, notify.EventReviewRequested)
		assert.Empty(t, mem.ByEvent(notify.EventRevisionApproved))
	})

	t.Run("rejecting a step publishes review_rejected", func(t *testing.T) {
		svc, mem := newNotifyingServices(t)
		dt := seedDocumentType(t, svc.Documents.db, "SPEC")
		doc := seedDocument(t, svc, dt.ID, "SPEC-001")

		wf, err := svc.Review.InitiateReview(ctx, admin(1), doc.Revisions[0].ID, []StepInput{
			{StepOrder: 1, StepType: models.StepTypeApprove, AssignedToID: 2},
		})
		require.NoError(t, err)
		_, err = svc.Review.RejectStep(ctx, admin(2), wf.Steps[0].ID, "missing sections")
		require.NoError(t, err)

		msg := waitForEvent(t, mem, notify.EventReviewRejected)
		assert.Contains(t, msg.Body, "reverted to DRAFT")
	})

	t.Run("issuing a transmittal publishes transmittal_issued", func(t *testing.T) {
		svc, mem := newNotifyingServices(t)
		dt := seedDocumentType(t, svc.Documents.db, "SPEC")
		revID := seedApprovedRevision(t, svc, dt.ID, "SPEC-001")

		tr, err := svc.Transmittals.CreateTransmittal(ctx, admin(1), CreateTransmittalInput{
			IssuedTo: "Acme Corp",
			Items: []TransmittalItemInput{
				{DocumentRevisionID: revID, PurposeCode: "FOR_APPROVAL"},
			},
		})
		require.NoError(t, err)
		_, err = svc.Transmittals.IssueTransmittal(ctx, admin(4), tr.ID)
		require.NoError(t, err)

		msg := waitForEvent(t, mem, notify.EventTransmittalIssued)
		assert.Equal(t, uint(4), msg.ActorID)
		assert.Contains(t, msg.Subject, tr.Code)
		assert.Contains(t, msg.Body, "Acme Corp")
	})
}
