package service

import (
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/pkg/models"
)

// SelectOption is a value/label pair for selection lists.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OrderBy selects a sort field (one of the operation's enumerated field
// names) and a direction.
type OrderBy struct {
	Field     string               `json:"field"`
	Direction models.SortDirection `json:"direction"`
}

// orderClause maps an optional OrderBy onto a SQL order expression using the
// operation's field-to-column map, falling back to def for unknown fields.
func orderClause(ob *OrderBy, columns map[string]string, def string) string {
	if ob == nil {
		return def
	}
	col, ok := columns[ob.Field]
	if !ok {
		return def
	}
	dir := "ASC"
	if ob.Direction == models.SortDesc {
		dir = "DESC"
	}
	return col + " " + dir
}

// terminatedScope applies the soft-delete filter. The zero filter shows only
// live rows.
func terminatedScope(f models.TerminatedFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch f {
		case models.TerminatedFilterDisabled:
			return db.Where("terminated_at IS NOT NULL")
		case models.TerminatedFilterAll:
			return db
		default:
			return db.Where("terminated_at IS NULL")
		}
	}
}
