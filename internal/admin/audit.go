package admin

import (
	"context"
	"strconv"
	"strings"
)

// AuditEntry это одна строка журнала изменений записи.
type AuditEntry struct {
	Table   string
	Item    uint
	Message string
}

// Auditor принимает записи журнала. Если он не задан, журнал не ведётся.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry) error
}

type AssociationChange struct {
	Label   string
	Added   []uint
	Removed []uint
}

// Changes собирает то, что изменилось за одно успешное обновление.
type Changes struct {
	Associations []AssociationChange
	Fields       []string
}

func (c Changes) Empty() bool {
	return len(c.Associations) == 0 && len(c.Fields) == 0
}

// Message: "Added Divisions #7 associations, Removed Divisions #2, #3 associations, Changed name"
func (c Changes) Message() string {
	var parts []string
	for _, a := range c.Associations {
		if len(a.Added) > 0 {
			parts = append(parts, "Added "+a.Label+" "+joinIDs(a.Added)+" associations")
		}
		if len(a.Removed) > 0 {
			parts = append(parts, "Removed "+a.Label+" "+joinIDs(a.Removed)+" associations")
		}
	}
	for _, f := range c.Fields {
		parts = append(parts, "Changed "+f)
	}
	return strings.Join(parts, ", ")
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ", ")
}
