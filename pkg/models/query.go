package models

import (
	"fmt"
	"strings"
)

// GenerationStatus classifies a generator response.
type GenerationStatus string

const (
	// GenerationOK means the generator produced candidate SQL.
	GenerationOK GenerationStatus = "ok"
	// GenerationOutOfScope means the generator declined the question.
	GenerationOutOfScope GenerationStatus = "out_of_scope"
)

// CandidateQuery is one generator-produced, not-yet-validated query.
// It lives for a single attempt: the guard parses Text, fills in
// TargetTables and Limit, and the candidate is discarded after validation.
type CandidateQuery struct {
	Text         string
	TargetTables []string
	Limit        *int
	Status       GenerationStatus
	ScopeReason  string
}

// ViolationKind identifies one class of policy breach.
type ViolationKind string

const (
	ViolationNotReadOnly             ViolationKind = "NOT_READ_ONLY"
	ViolationTableNotAllowed         ViolationKind = "TABLE_NOT_ALLOWED"
	ViolationTableRestricted         ViolationKind = "TABLE_RESTRICTED"
	ViolationColumnExcluded          ViolationKind = "COLUMN_EXCLUDED"
	ViolationMissingLimit            ViolationKind = "MISSING_LIMIT"
	ViolationLimitTooLarge           ViolationKind = "LIMIT_TOO_LARGE"
	ViolationMissingSoftDeleteFilter ViolationKind = "MISSING_SOFT_DELETE_FILTER"
	ViolationMalformed               ViolationKind = "MALFORMED"
)

// Violation is one specific policy breach detected by the guard.
type Violation struct {
	Kind   ViolationKind
	Detail string
}

func (v Violation) String() string {
	if v.Detail == "" {
		return string(v.Kind)
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

// ValidationResult is the guard's verdict on one candidate query.
type ValidationResult struct {
	Accepted   bool
	Violations []Violation
}

// ErrorContext serializes the violation list for feedback into the next
// generation attempt so the generator can self-correct.
func (r ValidationResult) ErrorContext() string {
	if r.Accepted || len(r.Violations) == 0 {
		return ""
	}
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// ExecutionResult holds the rows of one executed query. The executor fills
// Rows up to the fetch limit; the orchestrator redacts them, trims to the
// policy row cap, and sets Truncated when the probe row past the cap was
// present. RowCount tracks Rows through those passes.
type ExecutionResult struct {
	Rows      []map[string]any
	RowCount  int
	Truncated bool
}
