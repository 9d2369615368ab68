package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// fakeIntrospector returns canned tables or a canned error and counts calls.
type fakeIntrospector struct {
	tables []RawTable
	err    error
	calls  int
}

func (f *fakeIntrospector) Tables(ctx context.Context) ([]RawTable, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tables, nil
}

func (f *fakeIntrospector) Dialect() string { return "postgresql" }

func rawFixtures() []RawTable {
	return []RawTable{
		{
			Name: "users",
			Columns: []models.ColumnInfo{
				{Name: "id", DataType: "bigint"},
				{Name: "email", DataType: "text"},
				{Name: "password_hash", DataType: "text"},
				{Name: "deleted_at", DataType: "timestamp", Nullable: true},
			},
		},
		{
			Name: "orders",
			Columns: []models.ColumnInfo{
				{Name: "id", DataType: "bigint"},
				{Name: "total", DataType: "numeric"},
			},
		},
		{
			Name: "admin_logs",
			Columns: []models.ColumnInfo{
				{Name: "id", DataType: "bigint"},
				{Name: "action", DataType: "text"},
			},
		},
	}
}

func catalogPolicy() *models.Policy {
	return models.NewPolicy(
		nil,
		[]string{"admin_logs"},
		[]string{"password_hash"},
		100,
		"deleted_at",
		nil,
	)
}

func TestSnapshot_FiltersPerPolicy(t *testing.T) {
	intro := &fakeIntrospector{tables: rawFixtures()}
	catalog := NewCatalog(intro, catalogPolicy(), zap.NewNop())

	snapshot := catalog.Snapshot(context.Background())

	require.False(t, snapshot.ConnectionError)
	require.Len(t, snapshot.Tables, 2)
	assert.Nil(t, snapshot.Table("admin_logs"))

	users := snapshot.Table("users")
	require.NotNil(t, users)
	assert.Nil(t, users.Column("password_hash"))
	assert.NotNil(t, users.Column("email"))
	assert.True(t, users.HasSoftDelete)
	assert.True(t, users.HasExcludedColumns)

	orders := snapshot.Table("orders")
	require.NotNil(t, orders)
	assert.False(t, orders.HasSoftDelete)
	assert.False(t, orders.HasExcludedColumns)
}

func TestSnapshot_AllowListRestrictsScope(t *testing.T) {
	policy := models.NewPolicy([]string{"orders"}, nil, nil, 100, "", nil)
	catalog := NewCatalog(&fakeIntrospector{tables: rawFixtures()}, policy, zap.NewNop())

	snapshot := catalog.Snapshot(context.Background())

	require.Len(t, snapshot.Tables, 1)
	assert.Equal(t, "orders", snapshot.Tables[0].Name)
}

func TestSnapshot_BuiltOnce(t *testing.T) {
	intro := &fakeIntrospector{tables: rawFixtures()}
	catalog := NewCatalog(intro, catalogPolicy(), zap.NewNop())

	first := catalog.Snapshot(context.Background())
	second := catalog.Snapshot(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, 1, intro.calls)
}

func TestSnapshot_FailureNotCached(t *testing.T) {
	intro := &fakeIntrospector{err: errors.New("connection refused")}
	catalog := NewCatalog(intro, catalogPolicy(), zap.NewNop())

	failed := catalog.Snapshot(context.Background())
	require.True(t, failed.ConnectionError)
	assert.True(t, failed.Empty())

	// database comes back; the next call must re-introspect
	intro.err = nil
	intro.tables = rawFixtures()
	recovered := catalog.Snapshot(context.Background())

	assert.False(t, recovered.ConnectionError)
	assert.Equal(t, 2, intro.calls)
}

func TestInvalidate_ForcesRebuild(t *testing.T) {
	intro := &fakeIntrospector{tables: rawFixtures()}
	catalog := NewCatalog(intro, catalogPolicy(), zap.NewNop())

	catalog.Snapshot(context.Background())
	catalog.Invalidate()
	catalog.Snapshot(context.Background())

	assert.Equal(t, 2, intro.calls)
}

func TestSchemaText_RendersFilteredTables(t *testing.T) {
	catalog := NewCatalog(&fakeIntrospector{tables: rawFixtures()}, catalogPolicy(), zap.NewNop())

	text := catalog.Snapshot(context.Background()).SchemaText()

	assert.Contains(t, text, "Table: users")
	assert.Contains(t, text, "Table: orders")
	assert.NotContains(t, text, "admin_logs")
	assert.NotContains(t, text, "password_hash")
}
