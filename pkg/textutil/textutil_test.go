package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"single word", "hello", 1},
		{"sentence with punctuation", "We shipped 42 orders, all on time.", 7},
		{"unicode words", "café naïve résumé", 3},
		{"underscored identifier counts once", "user_id is unique", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.input))
		})
	}
}

func TestTruncateToWords(t *testing.T) {
	assert.Equal(t, "one two three", TruncateToWords("one two three four five", 3))
	assert.Equal(t, "short answer", TruncateToWords("short answer", 10))
	assert.Equal(t, "", TruncateToWords("anything", 0))
}

func TestIsListingRequest(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     bool
	}{
		{"list all", "list all customers", true},
		{"show the", "show the open invoices", true},
		{"give me every", "give me every product in stock", true},
		{"show numbered", "show 20 recent orders", true},
		{"all plural noun", "what are all orders from March", true},
		{"aggregate vetoes listing", "how many orders did we ship", false},
		{"count vetoes listing", "count all customers", false},
		{"total vetoes listing", "show the total revenue", false},
		{"plain question", "who placed the largest order", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsListingRequest(tt.question))
		})
	}
}

func TestNormalizeCSVList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, NormalizeCSVList([]string{" a ", "", "b", "  "}))
	assert.Empty(t, NormalizeCSVList(nil))
}
