package audit

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/database"
	"github.com/docworks-io/docvault/pkg/models"
)

func TestRecorder(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	rec := NewRecorder(db, hclog.NewNullLogger())

	t.Run("success record", func(t *testing.T) {
		rec.Success(nil, "CREATE_DOCUMENT", 7, "document 1 created", map[string]interface{}{
			"documentId": 1,
		})

		var logs []models.AuditLog
		require.NoError(t, db.Where("name = ?", "CREATE_DOCUMENT").Find(&logs).Error)
		require.Len(t, logs, 1)
		assert.Equal(t, models.LogLevelInfo, logs[0].Level)
		assert.Equal(t, uint(7), logs[0].UserID)
		assert.NotZero(t, logs[0].TraceID)
		assert.Contains(t, logs[0].Meta.String(), "documentId")
	})

	t.Run("failure record serializes error", func(t *testing.T) {
		rec.Failure("APPROVE_STEP", 9, apperr.InvalidState("step already evaluated"))

		var logs []models.AuditLog
		require.NoError(t, db.Where("name = ?", "APPROVE_STEP").Find(&logs).Error)
		require.Len(t, logs, 1)
		assert.Equal(t, models.LogLevelError, logs[0].Level)
		assert.Contains(t, logs[0].Meta.String(), "INVALID_STATE")
	})

	t.Run("record inside rolled-back transaction is discarded", func(t *testing.T) {
		rollback := errors.New("force rollback")
		err := db.Transaction(func(tx *gorm.DB) error {
			rec.Success(tx, "TX_ONLY", 7, "inside tx", nil)
			return rollback
		})
		require.ErrorIs(t, err, rollback)

		var count int64
		require.NoError(t, db.Model(&models.AuditLog{}).Where("name = ?", "TX_ONLY").Count(&count).Error)
		assert.Zero(t, count)
	})
}
