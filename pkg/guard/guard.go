// Package guard validates candidate SQL against the access policy and the
// filtered schema snapshot. Validation is pure: no I/O, no clock, no
// randomness, so every rule is unit-testable without a database.
package guard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/sqlshape"
)

// Validate checks one candidate query. Violations are collected rather than
// short-circuited so a single retry round can fix several problems at once;
// only an unparseable statement stops checking early.
func Validate(candidate *models.CandidateQuery, snapshot *models.SchemaSnapshot, policy *models.Policy) models.ValidationResult {
	shape, err := sqlshape.Parse(candidate.Text)
	if err != nil {
		if errors.Is(err, sqlshape.ErrMultipleStatements) {
			return rejected(models.Violation{
				Kind:   models.ViolationNotReadOnly,
				Detail: "multiple statements",
			})
		}
		// A statement that opens with a mutation verb is a write attempt,
		// not garbage; the generator gets the read-only hint back.
		if errors.Is(err, sqlshape.ErrNotSelect) {
			if kw := sqlshape.FindMutationKeyword(candidate.Text); kw != "" {
				return rejected(models.Violation{
					Kind:   models.ViolationNotReadOnly,
					Detail: fmt.Sprintf("statement contains %q", strings.ToUpper(kw)),
				})
			}
		}
		return rejected(models.Violation{
			Kind:   models.ViolationMalformed,
			Detail: err.Error(),
		})
	}
	candidate.TargetTables = shape.Tables
	candidate.Limit = shape.Limit
	if len(shape.Tables) == 0 {
		return rejected(models.Violation{
			Kind:   models.ViolationMalformed,
			Detail: "no table reference",
		})
	}

	var violations []models.Violation

	if kw := sqlshape.FindMutationKeyword(candidate.Text); kw != "" {
		violations = append(violations, models.Violation{
			Kind:   models.ViolationNotReadOnly,
			Detail: fmt.Sprintf("statement contains %q", strings.ToUpper(kw)),
		})
	}
	if sqlshape.HasComment(candidate.Text) {
		violations = append(violations, models.Violation{
			Kind:   models.ViolationNotReadOnly,
			Detail: "comments are not allowed",
		})
	}

	tableSet := make(map[string]struct{}, len(candidate.TargetTables))
	for _, table := range candidate.TargetTables {
		tableSet[table] = struct{}{}
		switch {
		case policy.TableRestricted(table):
			violations = append(violations, models.Violation{
				Kind:   models.ViolationTableRestricted,
				Detail: table,
			})
		case snapshot.Table(table) == nil:
			violations = append(violations, models.Violation{
				Kind:   models.ViolationTableNotAllowed,
				Detail: table,
			})
		}
	}

	for _, ident := range shape.Identifiers {
		if _, isTable := tableSet[ident]; isTable {
			continue
		}
		if policy.ColumnExcluded(ident) {
			violations = append(violations, models.Violation{
				Kind:   models.ViolationColumnExcluded,
				Detail: ident,
			})
		}
	}

	// SELECT * never names an excluded column, so it is rejected whenever a
	// referenced table has columns the policy stripped from the snapshot.
	// Result redaction would catch the leak too; rejecting here lets the
	// generator pick explicit columns instead.
	if shape.SelectStar && len(policy.ExcludedColumns) > 0 {
		for _, table := range candidate.TargetTables {
			if info := snapshot.Table(table); info != nil && info.HasExcludedColumns {
				violations = append(violations, models.Violation{
					Kind:   models.ViolationColumnExcluded,
					Detail: fmt.Sprintf("SELECT * on table %q which has excluded columns", table),
				})
			}
		}
	}

	switch {
	case candidate.Limit == nil:
		violations = append(violations, models.Violation{
			Kind:   models.ViolationMissingLimit,
			Detail: "a LIMIT clause is required",
		})
	case *candidate.Limit > policy.MaxRows:
		violations = append(violations, models.Violation{
			Kind:   models.ViolationLimitTooLarge,
			Detail: fmt.Sprintf("LIMIT %d exceeds maximum %d", *candidate.Limit, policy.MaxRows),
		})
	}

	if policy.SoftDeleteColumn != "" {
		for _, table := range candidate.TargetTables {
			info := snapshot.Table(table)
			if info == nil || !info.HasSoftDelete {
				continue
			}
			if !sqlshape.HasColumnPredicate(candidate.Text, policy.SoftDeleteColumn, policy.SoftDeletePredicates) {
				violations = append(violations, models.Violation{
					Kind:   models.ViolationMissingSoftDeleteFilter,
					Detail: fmt.Sprintf("table %q requires a filter on %q", table, policy.SoftDeleteColumn),
				})
			}
		}
	}

	return models.ValidationResult{Accepted: len(violations) == 0, Violations: violations}
}

func rejected(v models.Violation) models.ValidationResult {
	return models.ValidationResult{Accepted: false, Violations: []models.Violation{v}}
}
