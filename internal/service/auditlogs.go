package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/pkg/models"
	"github.com/docworks-io/docvault/pkg/pagination"
)

// AuditLogService queries the append-only audit trail. Nothing here mutates;
// records are written by the operations themselves.
type AuditLogService struct {
	base
}

var auditLogColumns = map[string]string{
	"CREATED_AT": "created_at",
	"NAME":       "name",
	"LEVEL":      "level",
	"USER_ID":    "user_id",
}

// AuditLogFilter narrows audit trail queries.
type AuditLogFilter struct {
	Name   string          `json:"name,omitempty"`
	Level  models.LogLevel `json:"level,omitempty"`
	UserID uint            `json:"userId,omitempty"`
	From   *time.Time      `json:"from,omitempty"`
	To     *time.Time      `json:"to,omitempty"`
}

// ListAuditLogs returns a filtered, ordered page of audit records, newest
// first by default.
func (s *AuditLogService) ListAuditLogs(ctx context.Context, ident auth.Identity, filter AuditLogFilter, page *pagination.Input, order *OrderBy) (*pagination.ListResponse[models.AuditLog], error) {
	const op = "GET_AUDIT_LOGS"
	if err := ident.Require(auth.PermSysLogList); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	skip, take := pagination.Normalize(page)

	q := s.conn(ctx).Model(&models.AuditLog{})
	if filter.Name != "" {
		q = q.Where("name = ?", filter.Name)
	}
	if filter.Level != "" {
		q = q.Where("level = ?", filter.Level)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	var logs []models.AuditLog
	err := q.Session(&gorm.Session{}).
		Order(orderClause(order, auditLogColumns, "created_at DESC")).
		Offset(skip).Limit(take).
		Find(&logs).Error
	if err != nil {
		return nil, s.storage(op, ident.UserID, err, "", "")
	}

	resp := pagination.NewListResponse(logs, total, skip, take)
	return &resp, nil
}

// GetAuditLog returns one audit record by id.
func (s *AuditLogService) GetAuditLog(ctx context.Context, ident auth.Identity, id uint) (*models.AuditLog, error) {
	const op = "GET_AUDIT_LOG_BY_ID"
	if err := ident.Require(auth.PermSysLogRead); err != nil {
		return nil, s.fail(op, ident.UserID, err)
	}

	var log models.AuditLog
	if err := s.conn(ctx).First(&log, id).Error; err != nil {
		return nil, s.storage(op, ident.UserID, err, "the audit record does not exist", "")
	}
	return &log, nil
}
