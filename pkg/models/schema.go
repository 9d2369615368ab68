package models

import (
	"sort"
	"strings"
)

// ColumnInfo describes one column as exposed to the generator.
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

// TableInfo describes one table that survived policy filtering.
type TableInfo struct {
	Name          string       `json:"name"`
	Columns       []ColumnInfo `json:"columns"`
	HasSoftDelete bool         `json:"has_soft_delete"`

	// HasExcludedColumns records that policy filtering stripped at least
	// one column from this table. The guard uses it to reject SELECT *,
	// which would pull the stripped columns back in.
	HasExcludedColumns bool `json:"has_excluded_columns"`
}

// Column returns the named column, or nil.
func (t *TableInfo) Column(name string) *ColumnInfo {
	lowered := strings.ToLower(name)
	for i := range t.Columns {
		if strings.ToLower(t.Columns[i].Name) == lowered {
			return &t.Columns[i]
		}
	}
	return nil
}

// SchemaSnapshot is the cached, policy-filtered view of the target database.
// Every table and column it contains has already passed allow/restrict and
// column-exclusion filtering; downstream components never re-apply those
// lists to schema metadata, only to untrusted generated SQL.
type SchemaSnapshot struct {
	Tables  []TableInfo `json:"tables"`
	Dialect string      `json:"dialect"`

	// ConnectionError marks a snapshot built after a failed introspection.
	// It carries no tables and callers degrade to an out-of-scope response.
	ConnectionError bool `json:"connection_error"`
}

// Table returns the named table, or nil if it is out of scope.
func (s *SchemaSnapshot) Table(name string) *TableInfo {
	lowered := strings.ToLower(name)
	for i := range s.Tables {
		if strings.ToLower(s.Tables[i].Name) == lowered {
			return &s.Tables[i]
		}
	}
	return nil
}

// Empty reports whether no tables are in scope.
func (s *SchemaSnapshot) Empty() bool {
	return len(s.Tables) == 0
}

// SchemaText renders the snapshot for inclusion in a generation prompt.
// Tables are sorted by name for stable prompts.
func (s *SchemaSnapshot) SchemaText() string {
	if s.Empty() {
		return ""
	}
	tables := make([]TableInfo, len(s.Tables))
	copy(tables, s.Tables)
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })

	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Table: ")
		b.WriteString(t.Name)
		b.WriteString("\nColumns: ")
		if len(t.Columns) == 0 {
			b.WriteString("(no allowed columns)")
			continue
		}
		for j, c := range t.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			b.WriteString(" (")
			b.WriteString(c.DataType)
			b.WriteString(")")
		}
	}
	return b.String()
}
