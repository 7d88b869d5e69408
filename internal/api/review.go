package api

import (
	"net/http"
	"strconv"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/internal/server"
	"github.com/docworks-io/docvault/internal/service"
	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/models"
)

// ReviewInitiateHandler starts a review workflow over a DRAFT revision.
func ReviewInitiateHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		id, err := pathID(r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		var in struct {
			Steps []service.StepInput `json:"steps"`
		}
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		wf, err := srv.Services.Review.InitiateReview(r.Context(), ident, id, in.Steps)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusCreated, wf)
	})
}

// StepApproveHandler approves a pending review step.
func StepApproveHandler(srv *server.Server) http.Handler {
	return stepEvaluationHandler(srv, func(r *http.Request, ident auth.Identity, id uint, comments string) (interface{}, error) {
		return srv.Services.Review.ApproveStep(r.Context(), ident, id, comments)
	})
}

// StepRejectHandler rejects a pending review step.
func StepRejectHandler(srv *server.Server) http.Handler {
	return stepEvaluationHandler(srv, func(r *http.Request, ident auth.Identity, id uint, comments string) (interface{}, error) {
		return srv.Services.Review.RejectStep(r.Context(), ident, id, comments)
	})
}

// stepEvaluationHandler shares the decode/respond plumbing of the two step
// verdict routes.
func stepEvaluationHandler(srv *server.Server, evaluate func(*http.Request, auth.Identity, uint, string) (interface{}, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		id, err := pathID(r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		var in struct {
			Comments string `json:"comments,omitempty"`
		}
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		step, err := evaluate(r, ident, id, in.Comments)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, step)
	})
}

// WorkflowCancelHandler aborts an open workflow.
func WorkflowCancelHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		id, err := pathID(r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		var in struct {
			Reason string `json:"reason"`
		}
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		wf, err := srv.Services.Review.CancelWorkflow(r.Context(), ident, id, in.Reason)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, wf)
	})
}

// WorkflowsListHandler lists workflows in a given state.
func WorkflowsListHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		status := models.WorkflowStatus(r.URL.Query().Get("status"))
		if status == "" {
			respondError(srv, w, apperr.Validation("the status query parameter is required"))
			return
		}

		workflows, err := srv.Services.Review.WorkflowsByStatus(r.Context(), ident, status)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, workflows)
	})
}

// ReviewQueueHandler lists a user's pending review steps.
func ReviewQueueHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		// Default to the caller's own queue.
		userID := ident.UserID
		if raw := r.URL.Query().Get("userId"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				respondError(srv, w, apperr.Validation("invalid userId %q", raw))
				return
			}
			userID = uint(parsed)
		}

		steps, err := srv.Services.Review.PendingReviewSteps(r.Context(), ident, userID)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, steps)
	})
}
