// Package audit appends operation outcomes to the append-only audit trail.
// Every core operation records one entry on success and one on failure;
// entries are also mirrored to the application log under the same trace id.
package audit

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/models"
)

// Recorder writes audit records. The zero value is unusable; construct with
// NewRecorder.
type Recorder struct {
	db  *gorm.DB
	log hclog.Logger
}

// NewRecorder returns a Recorder writing to db and mirroring to log.
func NewRecorder(db *gorm.DB, log hclog.Logger) *Recorder {
	return &Recorder{db: db, log: log.Named("audit")}
}

// Success appends an INFO record for a completed operation. When tx is
// non-nil the record joins the operation's transaction so the audit entry and
// the state change commit together.
func (r *Recorder) Success(tx *gorm.DB, name string, userID uint, message string, meta map[string]interface{}) {
	db := tx
	if db == nil {
		db = r.db
	}
	r.append(db, name, models.LogLevelInfo, userID, message, meta)
}

// Failure appends an ERROR record for a failed operation, serializing the
// typed error as metadata. Always written outside the rolled-back
// transaction.
func (r *Recorder) Failure(name string, userID uint, opErr error) {
	meta := map[string]interface{}{
		"code":  string(apperr.CodeOf(opErr)),
		"error": opErr.Error(),
	}
	r.append(r.db, name, models.LogLevelError, userID, opErr.Error(), meta)
}

func (r *Recorder) append(db *gorm.DB, name string, level models.LogLevel, userID uint, message string, meta map[string]interface{}) {
	record := models.AuditLog{
		TraceID: uuid.New(),
		Name:    name,
		Level:   level,
		Message: message,
		UserID:  userID,
	}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err == nil {
			record.Meta = models.JSON(raw)
		}
	}

	if err := db.Create(&record).Error; err != nil {
		// The trail must never take an operation down with it.
		r.log.Error("failed to append audit record",
			"name", name,
			"user_id", userID,
			"error", err,
		)
		return
	}

	logArgs := []interface{}{
		"trace_id", record.TraceID,
		"user_id", userID,
		"message", message,
	}
	switch level {
	case models.LogLevelError:
		r.log.Error(name, logArgs...)
	case models.LogLevelWarn:
		r.log.Warn(name, logArgs...)
	default:
		r.log.Info(name, logArgs...)
	}
}
