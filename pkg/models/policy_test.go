package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPolicy_Normalization(t *testing.T) {
	p := NewPolicy(
		[]string{" Users ", "ORDERS", `"products"`},
		[]string{"Admin_Logs"},
		[]string{"Password_Hash", " ssn "},
		50,
		"Deleted_At",
		nil,
	)

	assert.True(t, p.TableAllowed("users"))
	assert.True(t, p.TableAllowed("USERS"))
	assert.True(t, p.TableAllowed("products"))
	assert.False(t, p.TableAllowed("sessions"))
	assert.True(t, p.TableRestricted("admin_logs"))
	assert.True(t, p.ColumnExcluded("password_hash"))
	assert.True(t, p.ColumnExcluded("SSN"))
	assert.Equal(t, "deleted_at", p.SoftDeleteColumn)
	assert.Equal(t, []string{DefaultSoftDeletePredicate}, p.SoftDeletePredicates)
	assert.True(t, p.ReadOnly)
}

func TestNewPolicy_EmptyAllowListMeansAll(t *testing.T) {
	p := NewPolicy(nil, []string{"admin_logs"}, nil, 100, "", nil)

	assert.True(t, p.TableAllowed("anything"))
	assert.True(t, p.TableRestricted("admin_logs"))
	// restriction wins even though the allow list would admit it
	assert.True(t, p.TableAllowed("admin_logs"))
}

func TestNewPolicy_RestrictionWinsOverAllowList(t *testing.T) {
	p := NewPolicy([]string{"users", "admin_logs"}, []string{"admin_logs"}, nil, 100, "", nil)

	assert.True(t, p.TableRestricted("admin_logs"))
}

func TestNewPolicy_Defaults(t *testing.T) {
	p := NewPolicy(nil, nil, nil, 0, "", nil)

	assert.Equal(t, 100, p.MaxRows)
	assert.Equal(t, []string{"IS NULL"}, p.SoftDeletePredicates)
}

func TestValidationResult_ErrorContext(t *testing.T) {
	r := ValidationResult{
		Violations: []Violation{
			{Kind: ViolationMissingLimit, Detail: "a LIMIT clause is required"},
			{Kind: ViolationTableRestricted, Detail: "admin_logs"},
		},
	}

	ctx := r.ErrorContext()
	assert.Contains(t, ctx, string(ViolationMissingLimit))
	assert.Contains(t, ctx, "admin_logs")

	assert.Empty(t, ValidationResult{Accepted: true}.ErrorContext())
}
