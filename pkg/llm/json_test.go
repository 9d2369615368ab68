package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"status": "ok"}`,
			want:  `{"status": "ok"}`,
		},
		{
			name:  "object inside prose",
			input: `Here is the result: {"status": "ok"} hope that helps`,
			want:  `{"status": "ok"}`,
		},
		{
			name:  "markdown code fence",
			input: "```json\n{\"status\": \"ok\"}\n```",
			want:  `{"status": "ok"}`,
		},
		{
			name:  "think tags stripped",
			input: "<think>reasoning about the schema</think>{\"status\": \"ok\"}",
			want:  `{"status": "ok"}`,
		},
		{
			name:  "nested object",
			input: `{"a": {"b": 1}, "c": 2}`,
			want:  `{"a": {"b": 1}, "c": 2}`,
		},
		{
			name:  "braces inside strings",
			input: `{"sql": "SELECT '{' FROM t"}`,
			want:  `{"sql": "SELECT '{' FROM t"}`,
		},
		{
			name:  "array",
			input: `[1, 2, 3]`,
			want:  `[1, 2, 3]`,
		},
		{
			name:    "no json at all",
			input:   "I cannot answer that.",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			input:   `{"status": "ok"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		Status string `json:"status"`
		SQL    string `json:"sql"`
	}

	got, err := ParseJSONResponse[payload](`noise {"status": "ok", "sql": "SELECT 1"} noise`)
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, "SELECT 1", got.SQL)

	_, err = ParseJSONResponse[payload]("not json")
	assert.Error(t, err)
}
