// SPDX-License-Identifier: AGPL-3.0-only
package store

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hli-yohan-lee/dev-mcp/internal/errors"
)

// GeneralistRole matches every role-specific filter.
const GeneralistRole = "fullstack"

// tableColumns whitelists the queryable columns of each table, in
// SELECT order.
var tableColumns = map[string][]string{
	"users":  {"id", "name", "email", "role", "experience"},
	"guides": {"id", "title", "category", "content", "author", "created_at"},
}

// widenedRoles are the role filter values that also match GeneralistRole.
var widenedRoles = map[string]bool{
	"backend":  true,
	"frontend": true,
	"database": true,
}

// Tables returns the names of the queryable tables, sorted.
func Tables() []string {
	names := make([]string, 0, len(tableColumns))
	for name := range tableColumns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns the queryable columns of table.
func Columns(table string) ([]string, bool) {
	cols, ok := tableColumns[table]
	return cols, ok
}

type query struct {
	sql     string
	args    []interface{}
	columns []string
}

// buildQuery renders a parameterized SELECT. Table and column names come
// only from tableColumns; filter values are always bound.
func buildQuery(table string, filters map[string]interface{}) (query, error) {
	columns, ok := tableColumns[table]
	if !ok {
		return query{}, errors.NotFound("table", table)
	}
	allowed := make(map[string]bool, len(columns))
	for _, c := range columns {
		allowed[c] = true
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var where []string
	var args []interface{}
	for _, key := range keys {
		if !allowed[key] {
			return query{}, errors.InvalidInput(fmt.Sprintf("unknown column %q for table %s", key, table))
		}
		value, err := normalizeValue(filters[key])
		if err != nil {
			return query{}, errors.InvalidInput(fmt.Sprintf("filter %s: %v", key, err))
		}
		if key == "role" {
			if role, ok := value.(string); ok && widenedRoles[role] {
				where = append(where, "(role = ? OR role = '"+GeneralistRole+"')")
				args = append(args, value)
				continue
			}
		}
		where = append(where, key+" = ?")
		args = append(args, value)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY id")

	return query{sql: b.String(), args: args, columns: columns}, nil
}

// normalizeValue accepts JSON scalars and turns integral floats into
// integers so they compare equal to INTEGER columns.
func normalizeValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a valid filter value")
	case string, bool, int, int64:
		return val, nil
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val), nil
		}
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
