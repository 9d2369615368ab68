// Package textutil provides small text helpers shared by the answer
// pipeline: word counting, truncation, and question classification.
package textutil

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`\b[\p{L}\p{N}_]+\b`)

// CountWords counts unicode words in text.
func CountWords(text string) int {
	return len(wordPattern.FindAllString(text, -1))
}

// TruncateToWords keeps at most maxWords words of text.
func TruncateToWords(text string, maxWords int) string {
	if maxWords <= 0 {
		return ""
	}
	words := wordPattern.FindAllString(text, -1)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ")
}

// NormalizeCSVList trims entries and drops empties.
func NormalizeCSVList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Aggregate keywords veto listing detection: "how many orders" is a count,
// not a listing, even though it mentions all orders.
var aggregateKeywords = []string{
	"how many", "count", "total", "sum", "average", "avg",
	"maximum", "max", "minimum", "min", "statistics", "stat",
}

var listingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(list|show|display|get|fetch|give me|tell me)\s+(all|the|me|every)`),
	regexp.MustCompile(`\b(list|show|display)\s+\d+`),
	regexp.MustCompile(`\ball\s+(the\s+)?\w+s?\b`),
}

// IsListingRequest reports whether the question asks for records rather
// than an aggregate. Listing answers bypass the response word cap, since
// cutting a list mid-row would be wrong.
func IsListingRequest(question string) bool {
	lowered := strings.ToLower(question)
	for _, kw := range aggregateKeywords {
		if strings.Contains(lowered, kw) {
			return false
		}
	}
	for _, p := range listingPatterns {
		if p.MatchString(lowered) {
			return true
		}
	}
	return false
}
