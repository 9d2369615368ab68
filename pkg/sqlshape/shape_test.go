package sqlshape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ValidStatements(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantTables   []string
		wantStar     bool
		wantLimit    *int
		wantHasIdent string
	}{
		{
			name:       "simple select",
			input:      "SELECT name FROM users LIMIT 10",
			wantTables: []string{"users"},
			wantLimit:  intPtr(10),
		},
		{
			name:       "trailing semicolon stripped",
			input:      "SELECT name FROM users LIMIT 10;",
			wantTables: []string{"users"},
			wantLimit:  intPtr(10),
		},
		{
			name:       "select star",
			input:      "SELECT * FROM orders LIMIT 5",
			wantTables: []string{"orders"},
			wantStar:   true,
			wantLimit:  intPtr(5),
		},
		{
			name:       "qualified star",
			input:      "SELECT o.* FROM orders o LIMIT 5",
			wantTables: []string{"orders"},
			wantStar:   true,
			wantLimit:  intPtr(5),
		},
		{
			name:       "join collects both tables",
			input:      "SELECT u.name, o.total FROM users u JOIN orders o ON o.user_id = u.id LIMIT 20",
			wantTables: []string{"users", "orders"},
			wantLimit:  intPtr(20),
		},
		{
			name:       "schema-qualified table resolves to table segment",
			input:      "SELECT name FROM public.users LIMIT 10",
			wantTables: []string{"users"},
			wantLimit:  intPtr(10),
		},
		{
			name:       "quoted identifier table",
			input:      `SELECT name FROM "users" LIMIT 10`,
			wantTables: []string{"users"},
			wantLimit:  intPtr(10),
		},
		{
			name:       "no limit clause",
			input:      "SELECT name FROM users",
			wantTables: []string{"users"},
			wantLimit:  nil,
		},
		{
			name:       "limit inside string literal is ignored",
			input:      "SELECT name FROM users WHERE bio = 'limit 5'",
			wantTables: []string{"users"},
			wantLimit:  nil,
		},
		{
			name:       "last limit governs",
			input:      "SELECT * FROM (SELECT id FROM users LIMIT 500) sub LIMIT 10",
			wantTables: []string{"users"},
			wantStar:   true,
			wantLimit:  intPtr(10),
		},
		{
			name:       "cte starts with with",
			input:      "WITH recent AS (SELECT id FROM orders LIMIT 50) SELECT id FROM recent LIMIT 50",
			wantTables: []string{"orders", "recent"},
			wantLimit:  intPtr(50),
		},
		{
			name:         "identifiers include columns",
			input:        "SELECT email FROM users LIMIT 10",
			wantTables:   []string{"users"},
			wantLimit:    intPtr(10),
			wantHasIdent: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTables, shape.Tables)
			assert.Equal(t, tt.wantStar, shape.SelectStar)
			if tt.wantLimit == nil {
				assert.Nil(t, shape.Limit)
			} else {
				require.NotNil(t, shape.Limit)
				assert.Equal(t, *tt.wantLimit, *shape.Limit)
			}
			if tt.wantHasIdent != "" {
				assert.Contains(t, shape.Identifiers, tt.wantHasIdent)
			}
		})
	}
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrEmptyStatement},
		{"whitespace only", "   \n\t", ErrEmptyStatement},
		{"two statements", "SELECT 1; SELECT 2", ErrMultipleStatements},
		{"piggybacked drop", "SELECT name FROM users; DROP TABLE users", ErrMultipleStatements},
		{"update statement", "UPDATE users SET name = 'x'", ErrNotSelect},
		{"delete statement", "DELETE FROM users", ErrNotSelect},
		{"explain", "EXPLAIN SELECT 1", ErrNotSelect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_SemicolonInsideString(t *testing.T) {
	shape, err := Parse("SELECT name FROM users WHERE bio = 'a;b' LIMIT 10")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, shape.Tables)
}

func TestFindMutationKeyword(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean select", "SELECT name FROM users LIMIT 10", ""},
		{"for update lock", "SELECT id FROM users FOR UPDATE", "update"},
		{"select into", "SELECT id INTO backup FROM users", "into"},
		{"delete", "DELETE FROM users", "delete"},
		{"keyword inside string literal ignored", "SELECT name FROM users WHERE note = 'please update me' LIMIT 5", ""},
		{"keyword as substring ignored", "SELECT updated_at FROM users LIMIT 5", ""},
		{"truncate", "TRUNCATE users", "truncate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindMutationKeyword(tt.input))
		})
	}
}

func TestHasComment(t *testing.T) {
	assert.True(t, HasComment("SELECT 1 -- until end of line"))
	assert.True(t, HasComment("SELECT /* hidden */ 1"))
	assert.True(t, HasComment("SELECT 1 # mysql style"))
	assert.False(t, HasComment("SELECT name FROM users LIMIT 10"))
	assert.False(t, HasComment("SELECT name FROM users WHERE bio = 'not -- a comment'"))
}

func TestHasColumnPredicate(t *testing.T) {
	preds := []string{"IS NULL"}

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"bare column", "SELECT id FROM users WHERE deleted_at IS NULL LIMIT 10", true},
		{"qualified column", "SELECT id FROM users u WHERE u.deleted_at IS NULL LIMIT 10", true},
		{"extra whitespace", "SELECT id FROM users WHERE deleted_at   IS   NULL LIMIT 10", true},
		{"mixed case", "SELECT id FROM users WHERE Deleted_At is null LIMIT 10", true},
		{"missing predicate", "SELECT id FROM users LIMIT 10", false},
		{"wrong predicate", "SELECT id FROM users WHERE deleted_at IS NOT NULL LIMIT 10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasColumnPredicate(tt.input, "deleted_at", preds))
		})
	}
}

func TestHasColumnPredicate_AlternateShapes(t *testing.T) {
	preds := []string{"IS NULL", "= false"}
	assert.True(t, HasColumnPredicate("SELECT id FROM users WHERE is_deleted = false LIMIT 5", "is_deleted", preds))
	assert.False(t, HasColumnPredicate("SELECT id FROM users WHERE is_deleted = true LIMIT 5", "is_deleted", preds))
}

func intPtr(n int) *int { return &n }
