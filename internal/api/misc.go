package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/docworks-io/docvault/internal/server"
	"github.com/docworks-io/docvault/internal/service"
	"github.com/docworks-io/docvault/internal/version"
	"github.com/docworks-io/docvault/pkg/models"
)

// HealthHandler reports process and database health. Unauthenticated.
func HealthHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK

		sqlDB, err := srv.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			srv.Logger.Error("health check failed", "error", err)
			status = "unavailable"
			code = http.StatusServiceUnavailable
		}

		respondJSON(srv, w, code, map[string]string{
			"status":  status,
			"version": version.Version,
		})
	})
}

// DocumentTypesCreateHandler registers a document type.
func DocumentTypesCreateHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		var in service.CreateDocumentTypeInput
		if err := decodeRequest(r, &in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		dt, err := srv.Services.Types.CreateDocumentType(r.Context(), ident, in)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusCreated, dt)
	})
}

// DocumentTypesListHandler lists document types.
func DocumentTypesListHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		filter := models.TerminatedFilter(r.URL.Query().Get("terminated"))
		types, err := srv.Services.Types.ListDocumentTypes(r.Context(), ident, filter)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, types)
	})
}

// DocumentTypeOptionsHandler returns types as selection options.
func DocumentTypeOptionsHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		options, err := srv.Services.Types.DocumentTypeOptions(r.Context(), ident)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, options)
	})
}

// DocumentTypesGetHandler returns one document type.
func DocumentTypesGetHandler(srv *server.Server) http.Handler {
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

		dt, err := srv.Services.Types.GetDocumentType(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, dt)
	})
}

// AuditLogsListHandler queries the audit trail.
func AuditLogsListHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := identity(srv, r)
		if err != nil {
			respondError(srv, w, err)
			return
		}

		q := r.URL.Query()
		filter := service.AuditLogFilter{
			Name:  q.Get("name"),
			Level: models.LogLevel(q.Get("level")),
		}
		if raw := q.Get("userId"); raw != "" {
			if userID, err := strconv.ParseUint(raw, 10, 64); err == nil {
				filter.UserID = uint(userID)
			}
		}
		if raw := q.Get("from"); raw != "" {
			if from, err := time.Parse(time.RFC3339, raw); err == nil {
				filter.From = &from
			}
		}
		if raw := q.Get("to"); raw != "" {
			if to, err := time.Parse(time.RFC3339, raw); err == nil {
				filter.To = &to
			}
		}

		resp, err := srv.Services.AuditLogs.ListAuditLogs(r.Context(), ident,
			filter, pageFromQuery(r), orderFromQuery(r))
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, resp)
	})
}

// AuditLogsGetHandler returns one audit record.
func AuditLogsGetHandler(srv *server.Server) http.Handler {
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

		record, err := srv.Services.AuditLogs.GetAuditLog(r.Context(), ident, id)
		if err != nil {
			respondError(srv, w, err)
			return
		}
		respondJSON(srv, w, http.StatusOK, record)
	})
}
