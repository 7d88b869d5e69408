package api

import (
	"net/http"

	"github.com/docworks-io/docvault/internal/server"
	"github.com/docworks-io/docvault/internal/service"
	"github.com/docworks-io/docvault/pkg/models"
)

// ScannedFilesCreateHandler registers a digitized record.
func ScannedFilesCreateHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		var in service.CreateScannedFileInput
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		file, err := srv.Services.ScannedFiles.CreateScannedFile(r.Context(), ident, in)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusCreated, file)
	})
}

// ScannedFilesListHandler lists scanned files with filters and paging.
func ScannedFilesListHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		q := r.URL.Query()
		filter := service.ScannedFileFilter{
			Query:               q.Get("query"),
			DigitalDisposition:  models.DigitalDisposition(q.Get("digital")),
			PhysicalDisposition: models.PhysicalDisposition(q.Get("physical")),
			TerminatedFilter:    models.TerminatedFilter(q.Get("terminated")),
		}

		resp, err := srv.Services.ScannedFiles.ListScannedFiles(r.Context(), ident,
			filter, pageFromQuery(r), orderFromQuery(r))
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, resp)
	})
}

// ScannedFileStatsHandler returns the disposition census.
func ScannedFileStatsHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		stats, err := srv.Services.ScannedFiles.Stats(r.Context(), ident)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, stats)
	})
}

// ScannedFilesGetHandler returns one scanned file.
func ScannedFilesGetHandler(srv *server.Server) http.Handler {
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

		file, err := srv.Services.ScannedFiles.GetScannedFile(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, file)
	})
}

// ScannedFileClassifyHandler records the digital verdict on a PENDING scan.
func ScannedFileClassifyHandler(srv *server.Server) http.Handler {
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

		var in service.ClassifyScannedFileInput
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		file, err := srv.Services.ScannedFiles.ClassifyScannedFile(r.Context(), ident, id, in)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, file)
	})
}

// ScannedFileUploadHandler finalizes an accepted scan with its external
// reference.
func ScannedFileUploadHandler(srv *server.Server) http.Handler {
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
			ExternalReference string `json:"externalReference"`
		}
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		file, err := srv.Services.ScannedFiles.MarkAsUploaded(r.Context(), ident, id, in.ExternalReference)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, file)
	})
}

// PhysicalDispositionHandler records the intent for the paper original.
func PhysicalDispositionHandler(srv *server.Server) http.Handler {
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
			Disposition models.PhysicalDisposition `json:"disposition"`
		}
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		file, err := srv.Services.ScannedFiles.UpdatePhysicalDisposition(r.Context(), ident, id, in.Disposition)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, file)
	})
}

// PhysicalConfirmHandler confirms the declared physical disposition.
func PhysicalConfirmHandler(srv *server.Server) http.Handler {
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

		file, err := srv.Services.ScannedFiles.ConfirmPhysicalDisposition(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, file)
	})
}

// ScannedFileTerminateHandler soft-deletes a scanned file.
func ScannedFileTerminateHandler(srv *server.Server) http.Handler {
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

		file, err := srv.Services.ScannedFiles.TerminateScannedFile(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, file)
	})
}

// ScannedFileActivateHandler clears the soft-delete marker.
func ScannedFileActivateHandler(srv *server.Server) http.Handler {
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

		file, err := srv.Services.ScannedFiles.ActivateScannedFile(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, file)
	})
}
