// Package service implements the document revision and review workflow
// engine: revision lifecycle, sequential review approval, transmittal
// lifecycle and scanned-file disposition. Each operation validates its
// caller's permissions, loads the aggregate it owns, checks state, applies
// one atomic multi-row update and appends an audit record. Inputs and
// outputs are plain structs; any transport adapts them.
package service

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docworks-io/docvault/internal/audit"
	"github.com/docworks-io/docvault/internal/notify"
	"github.com/docworks-io/docvault/pkg/apperr"
)

// base carries the dependencies shared by every domain service.
type base struct {
	db       *gorm.DB
	log      hclog.Logger
	audit    *audit.Recorder
	notifier *notify.Notifier
}

// fail appends a failure audit record and returns the typed error unchanged.
// Every operation error path funnels through here so failures are always
// audited.
func (b *base) fail(name string, userID uint, err error) error {
	b.audit.Failure(name, userID, err)
	return err
}

// storage translates a storage error, audits it, and returns it. Used on
// paths where the storage layer itself is the precondition check (lookups,
// unique constraints).
func (b *base) storage(name string, userID uint, err error, notFoundMsg, conflictMsg string) error {
	return b.fail(name, userID, apperr.FromStorage(err, notFoundMsg, conflictMsg))
}

func (b *base) conn(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx)
}

// lockForUpdate takes a row-level lock for the duration of the transaction
// so a precondition read and its dependent write cannot interleave with a
// concurrent writer. SQLite serializes writers globally and rejects the
// FOR UPDATE syntax, so the explicit lock is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Services bundles the wired domain services over one storage handle. The
// handle's lifecycle is owned by the process entry point, not by operations.
type Services struct {
	Documents    *DocumentService
	Revisions    *RevisionService
	Review       *ReviewService
	Transmittals *TransmittalService
	ScannedFiles *ScannedFileService
	Types        *DocumentTypeService
	AuditLogs    *AuditLogService
}

// Option customizes the wired services.
type Option func(*base)

// WithNotifier routes workflow events through the given notifier.
func WithNotifier(n *notify.Notifier) Option {
	return func(b *base) {
		b.notifier = n
	}
}

// New wires every domain service against the given database and logger.
func New(db *gorm.DB, log hclog.Logger, opts ...Option) *Services {
	b := base{
		db:    db,
		log:   log.Named("service"),
		audit: audit.NewRecorder(db, log),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return &Services{
		Documents:    &DocumentService{base: b},
		Revisions:    &RevisionService{base: b},
		Review:       &ReviewService{base: b},
		Transmittals: &TransmittalService{base: b},
		ScannedFiles: &ScannedFileService{base: b},
		Types:        &DocumentTypeService{base: b},
		AuditLogs:    &AuditLogService{base: b},
	}
}
