package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// PostgresIntrospector reads table structure from information_schema.
type PostgresIntrospector struct {
	pool *pgxpool.Pool
}

// NewPostgresIntrospector creates an introspector over the given pool.
func NewPostgresIntrospector(pool *pgxpool.Pool) *PostgresIntrospector {
	return &PostgresIntrospector{pool: pool}
}

var _ Introspector = (*PostgresIntrospector)(nil)

// Dialect implements Introspector.
func (p *PostgresIntrospector) Dialect() string {
	return "postgresql"
}

// Tables returns all user tables and views with their columns, excluding
// system schemas. Column order follows ordinal position.
func (p *PostgresIntrospector) Tables(ctx context.Context) ([]RawTable, error) {
	const query = `
		SELECT
			t.table_name,
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES'
		FROM information_schema.tables t
		JOIN information_schema.columns c
		  ON c.table_schema = t.table_schema AND c.table_name = t.table_name
		WHERE t.table_type IN ('BASE TABLE', 'VIEW')
		  AND t.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY t.table_name, c.ordinal_position
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query information_schema: %w", err)
	}
	defer rows.Close()

	var tables []RawTable
	index := make(map[string]int)

	for rows.Next() {
		var tableName, columnName, dataType string
		var nullable bool
		if err := rows.Scan(&tableName, &columnName, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}

		i, ok := index[tableName]
		if !ok {
			i = len(tables)
			index[tableName] = i
			tables = append(tables, RawTable{Name: tableName})
		}
		tables[i].Columns = append(tables[i].Columns, models.ColumnInfo{
			Name:     columnName,
			DataType: dataType,
			Nullable: nullable,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return tables, nil
}
