package models

import "strings"

// DefaultSoftDeletePredicate is the filter shape accepted on a soft-delete
// column when the operator configures none.
const DefaultSoftDeletePredicate = "IS NULL"

// Policy is the operator-configured access policy. It is loaded once at
// startup and treated as immutable afterwards; every component that consults
// it receives the same instance.
//
// Precedence: a table named in both the allow list and the restricted list
// is restricted. Restriction always wins.
type Policy struct {
	// AllowedTables is the allow list. Empty means every non-restricted
	// table is in scope.
	AllowedTables map[string]struct{}
	// RestrictedTables are never queryable, whatever the allow list says.
	RestrictedTables map[string]struct{}
	// ExcludedColumns are stripped from the schema snapshot, rejected in
	// generated SQL, and redacted from result rows.
	ExcludedColumns map[string]struct{}
	// MaxRows caps the LIMIT of any generated query.
	MaxRows int
	// ReadOnly is always true for this pipeline; it exists so the policy
	// records the guarantee explicitly.
	ReadOnly bool
	// SoftDeleteColumn, when non-empty, names the column whose presence on
	// a table demands a liveness filter in every query touching it.
	SoftDeleteColumn string
	// SoftDeletePredicates are the accepted filter shapes on the
	// soft-delete column, e.g. "IS NULL".
	SoftDeletePredicates []string
}

// NewPolicy normalizes the configured lists into a Policy. Table and column
// names are lowercased and trimmed so later lookups are case-insensitive.
func NewPolicy(allowed, restricted, excluded []string, maxRows int, softDeleteColumn string, softDeletePredicates []string) *Policy {
	if maxRows <= 0 {
		maxRows = 100
	}
	if len(softDeletePredicates) == 0 {
		softDeletePredicates = []string{DefaultSoftDeletePredicate}
	}
	return &Policy{
		AllowedTables:        toSet(allowed),
		RestrictedTables:     toSet(restricted),
		ExcludedColumns:      toSet(excluded),
		MaxRows:              maxRows,
		ReadOnly:             true,
		SoftDeleteColumn:     strings.ToLower(strings.TrimSpace(softDeleteColumn)),
		SoftDeletePredicates: softDeletePredicates,
	}
}

// TableRestricted reports whether the table is on the restricted list.
func (p *Policy) TableRestricted(name string) bool {
	_, ok := p.RestrictedTables[normalizeName(name)]
	return ok
}

// TableAllowed reports whether the table passes the allow list. Restriction
// is checked separately and takes precedence.
func (p *Policy) TableAllowed(name string) bool {
	if len(p.AllowedTables) == 0 {
		return true
	}
	_, ok := p.AllowedTables[normalizeName(name)]
	return ok
}

// ColumnExcluded reports whether the column is on the exclusion list.
func (p *Policy) ColumnExcluded(name string) bool {
	_, ok := p.ExcludedColumns[normalizeName(name)]
	return ok
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		normalized := normalizeName(name)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(name), `"`))
}
