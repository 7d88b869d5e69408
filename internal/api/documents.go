package api

import (
	"net/http"
	"strconv"

	"github.com/docworks-io/docvault/internal/server"
	"github.com/docworks-io/docvault/internal/service"
	"github.com/docworks-io/docvault/pkg/models"
)

// DocumentsCreateHandler creates a document with its first revision.
func DocumentsCreateHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		var in service.CreateDocumentInput
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		doc, err := srv.Services.Documents.CreateDocument(r.Context(), ident, in)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusCreated, doc)
	})
}

// documentFilterFromQuery reads the document list filter parameters.
func documentFilterFromQuery(r *http.Request) service.DocumentFilter {
	q := r.URL.Query()
	typeID, _ := strconv.ParseUint(q.Get("documentTypeId"), 10, 64)
	return service.DocumentFilter{
		Query:            q.Get("query"),
		Module:           q.Get("module"),
		DocumentTypeID:   uint(typeID),
		RevisionStatus:   models.RevisionStatus(q.Get("revisionStatus")),
		TerminatedFilter: models.TerminatedFilter(q.Get("terminated")),
	}
}

// DocumentsListHandler lists documents with filters, paging and ordering.
func DocumentsListHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		resp, err := srv.Services.Documents.ListDocuments(r.Context(), ident,
			documentFilterFromQuery(r), pageFromQuery(r), orderFromQuery(r))
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, resp)
	})
}

// DocumentOptionsHandler returns documents as selection options.
func DocumentOptionsHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		options, err := srv.Services.Documents.DocumentOptions(r.Context(), ident,
			documentFilterFromQuery(r))
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, options)
	})
}

// DocumentsGetHandler returns one document aggregate.
func DocumentsGetHandler(srv *server.Server) http.Handler {
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

		doc, err := srv.Services.Documents.GetDocument(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, doc)
	})
}

// DocumentsUpdateHandler updates a document's descriptive fields.
func DocumentsUpdateHandler(srv *server.Server) http.Handler {
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

		var in service.UpdateDocumentInput
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		doc, err := srv.Services.Documents.UpdateDocument(r.Context(), ident, id, in)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, doc)
	})
}

// DocumentsTerminateHandler soft-deletes a document.
func DocumentsTerminateHandler(srv *server.Server) http.Handler {
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

		doc, err := srv.Services.Documents.TerminateDocument(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, doc)
	})
}

// DocumentsActivateHandler clears a document's soft-delete marker.
func DocumentsActivateHandler(srv *server.Server) http.Handler {
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

		doc, err := srv.Services.Documents.ActivateDocument(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, doc)
	})
}

// RevisionSchemeHandler switches a document's revision code scheme.
func RevisionSchemeHandler(srv *server.Server) http.Handler {
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
			Scheme models.RevisionScheme `json:"scheme"`
		}
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		doc, err := srv.Services.Documents.SwitchRevisionScheme(r.Context(), ident, id, in.Scheme)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, doc)
	})
}

// RevisionsCreateHandler opens a new revision of a document.
func RevisionsCreateHandler(srv *server.Server) http.Handler {
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

		var in service.CreateRevisionInput
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rev, err := srv.Services.Revisions.CreateRevision(r.Context(), ident, id, in)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusCreated, rev)
	})
}

// RevisionsGetHandler returns one revision aggregate.
func RevisionsGetHandler(srv *server.Server) http.Handler {
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

		rev, err := srv.Services.Revisions.GetRevision(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, rev)
	})
}

// VersionsCreateHandler registers a new version on a DRAFT revision.
func VersionsCreateHandler(srv *server.Server) http.Handler {
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

		var in service.RegisterVersionInput
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		version, err := srv.Services.Revisions.RegisterVersion(r.Context(), ident, id, in)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusCreated, version)
	})
}
