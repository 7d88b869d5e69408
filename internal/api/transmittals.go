package api

import (
	"context"
	"net/http"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/internal/server"
	"github.com/docworks-io/docvault/internal/service"
	"github.com/docworks-io/docvault/pkg/models"
)

// TransmittalsCreateHandler assembles a DRAFT transmittal.
func TransmittalsCreateHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		var in service.CreateTransmittalInput
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		tr, err := srv.Services.Transmittals.CreateTransmittal(r.Context(), ident, in)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusCreated, tr)
	})
}

// TransmittalsListHandler lists transmittals with filters and paging.
func TransmittalsListHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		q := r.URL.Query()
		filter := service.TransmittalFilter{
			Query:  q.Get("query"),
			Status: models.TransmittalStatus(q.Get("status")),
		}

		resp, err := srv.Services.Transmittals.ListTransmittals(r.Context(), ident,
			filter, pageFromQuery(r), orderFromQuery(r))
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, resp)
	})
}

// TransmittalsGetHandler returns one transmittal with its items.
func TransmittalsGetHandler(srv *server.Server) http.Handler {
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

		tr, err := srv.Services.Transmittals.GetTransmittal(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, tr)
	})
}

// TransmittalIssueHandler issues a DRAFT transmittal.
func TransmittalIssueHandler(srv *server.Server) http.Handler {
	return transmittalTransitionHandler(srv, srv.Services.Transmittals.IssueTransmittal)
}

// TransmittalAcknowledgeHandler records the recipient's receipt.
func TransmittalAcknowledgeHandler(srv *server.Server) http.Handler {
	return transmittalTransitionHandler(srv, srv.Services.Transmittals.AcknowledgeTransmittal)
}

// TransmittalCloseHandler closes an issued transmittal.
func TransmittalCloseHandler(srv *server.Server) http.Handler {
	return transmittalTransitionHandler(srv, srv.Services.Transmittals.CloseTransmittal)
}

// transmittalTransitionHandler shares the plumbing of the body-less
// transition routes.
func transmittalTransitionHandler(srv *server.Server, transition func(context.Context, auth.Identity, uint) (*models.Transmittal, error)) http.Handler {
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

		tr, err := transition(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, tr)
	})
}

// TransmittalRespondHandler records the recipient's per-item verdicts.
func TransmittalRespondHandler(srv *server.Server) http.Handler {
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

		var in service.RespondTransmittalInput
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		tr, err := srv.Services.Transmittals.RespondTransmittal(r.Context(), ident, id, in)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, tr)
	})
}
