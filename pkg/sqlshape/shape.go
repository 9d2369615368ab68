// Package sqlshape parses a constrained query shape out of generated SQL.
// It is not a full SQL parser: it recognizes single read-only SELECT
// statements well enough for policy checks, and reports anything else as
// unparseable. All functions are pure and I/O free.
package sqlshape

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrMultipleStatements indicates a semicolon outside string literals
	// after the trailing one was stripped.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed")
	// ErrEmptyStatement indicates there was nothing to parse.
	ErrEmptyStatement = errors.New("empty SQL statement")
	// ErrNotSelect indicates the statement is not SELECT/WITH shaped.
	ErrNotSelect = errors.New("statement is not a SELECT")
)

// Shape is the policy-relevant structure of one statement.
type Shape struct {
	// Normalized is the statement with the trailing semicolon stripped.
	Normalized string
	// Tables are the referenced table names (FROM/JOIN), lowercased,
	// unquoted, deduplicated in order of appearance.
	Tables []string
	// Identifiers are all bare identifier tokens outside string literals,
	// lowercased. Used for excluded-column checks; includes table names.
	Identifiers []string
	// SelectStar is true when the SELECT list contains a bare *.
	SelectStar bool
	// Limit is the value of the outermost LIMIT clause, if present.
	Limit *int
}

// Parse normalizes the statement and extracts its shape.
func Parse(sql string) (*Shape, error) {
	normalized := stripTrailingSemicolon(strings.TrimSpace(sql))
	if normalized == "" {
		return nil, ErrEmptyStatement
	}
	if hasSemicolonOutsideStrings(normalized) {
		return nil, ErrMultipleStatements
	}

	lowered := strings.ToLower(normalized)
	first := firstWord(lowered)
	if first != "select" && first != "with" {
		return nil, ErrNotSelect
	}

	masked := maskStrings(lowered)

	shape := &Shape{
		Normalized:  normalized,
		Tables:      extractTables(masked),
		Identifiers: extractIdentifiers(masked),
		SelectStar:  selectStarPattern.MatchString(masked),
		Limit:       extractLimit(masked),
	}
	return shape, nil
}

// HasComment reports whether the statement contains a SQL comment outside
// string literals. Comments can hide a trailing statement, so guarded SQL
// rejects them outright.
func HasComment(sql string) bool {
	masked := maskStrings(sql)
	return strings.Contains(masked, "--") || strings.Contains(masked, "/*") || strings.Contains(masked, "#")
}

// mutationKeywords are statement verbs that modify data or schema, or
// smuggle writes into a SELECT (INTO, FOR UPDATE hits "update").
var mutationKeywords = []string{
	"insert", "update", "delete", "merge", "replace", "upsert",
	"create", "drop", "alter", "truncate", "rename",
	"grant", "revoke", "exec", "execute", "call", "copy", "into",
}

// FindMutationKeyword returns the first mutation or DDL keyword found
// outside string literals, or "" if the statement looks read-only.
func FindMutationKeyword(sql string) string {
	masked := maskStrings(strings.ToLower(sql))
	for _, kw := range mutationKeywords {
		if wordBoundaryContains(masked, kw) {
			return kw
		}
	}
	return ""
}

var (
	tableRefPattern   = regexp.MustCompile(`\b(?:from|join)\s+("?[\w$]+"?(?:\."?[\w$]+"?)?)`)
	identifierPattern = regexp.MustCompile(`\b[a-z_][\w$]*\b`)
	selectStarPattern = regexp.MustCompile(`select\s+(?:distinct\s+)?(?:[\w$]+\.)?\*`)
	limitPattern      = regexp.MustCompile(`\blimit\s+(\d+)`)
)

func extractTables(masked string) []string {
	seen := make(map[string]struct{})
	var tables []string
	for _, m := range tableRefPattern.FindAllStringSubmatch(masked, -1) {
		ref := strings.ReplaceAll(m[1], `"`, "")
		// schema-qualified names resolve to the table segment
		if idx := strings.LastIndexByte(ref, '.'); idx >= 0 {
			ref = ref[idx+1:]
		}
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		tables = append(tables, ref)
	}
	return tables
}

// sqlKeywords are skipped during identifier extraction.
var sqlKeywords = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "join": {}, "inner": {}, "outer": {},
	"left": {}, "right": {}, "full": {}, "cross": {}, "on": {}, "as": {},
	"and": {}, "or": {}, "not": {}, "in": {}, "is": {}, "null": {}, "like": {},
	"ilike": {}, "between": {}, "exists": {}, "group": {}, "by": {}, "having": {},
	"order": {}, "asc": {}, "desc": {}, "limit": {}, "offset": {}, "distinct": {},
	"union": {}, "intersect": {}, "except": {}, "all": {}, "case": {}, "when": {},
	"then": {}, "else": {}, "end": {}, "with": {}, "count": {}, "sum": {},
	"avg": {}, "min": {}, "max": {}, "coalesce": {}, "cast": {}, "extract": {},
	"interval": {}, "current_date": {}, "current_timestamp": {}, "now": {},
	"date": {}, "true": {}, "false": {}, "using": {}, "nulls": {}, "first": {},
	"last": {}, "over": {}, "partition": {}, "row_number": {}, "rank": {},
}

func extractIdentifiers(masked string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range identifierPattern.FindAllString(masked, -1) {
		if _, ok := sqlKeywords[tok]; ok {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func extractLimit(masked string) *int {
	matches := limitPattern.FindAllStringSubmatch(masked, -1)
	if len(matches) == 0 {
		return nil
	}
	// the last LIMIT governs the outermost result
	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return nil
	}
	return &n
}

// HasColumnPredicate reports whether the statement applies one of the given
// predicate shapes to the column, e.g. column "deleted_at" with predicate
// "IS NULL" matches "WHERE t.deleted_at IS NULL". Predicate shapes are
// matched case-insensitively with flexible whitespace.
func HasColumnPredicate(sql, column string, predicates []string) bool {
	masked := maskStrings(strings.ToLower(sql))
	for _, pred := range predicates {
		re, err := columnPredicateRegexp(column, pred)
		if err != nil {
			continue
		}
		if re.MatchString(masked) {
			return true
		}
	}
	return false
}

func columnPredicateRegexp(column, predicate string) (*regexp.Regexp, error) {
	tokens := strings.Fields(strings.ToLower(predicate))
	for i, tok := range tokens {
		tokens[i] = regexp.QuoteMeta(tok)
	}
	pattern := `\b(?:[\w$]+\.)?"?` + regexp.QuoteMeta(strings.ToLower(column)) + `"?\s*` + strings.Join(tokens, `\s*`)
	return regexp.Compile(pattern)
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "(")
}

func wordBoundaryContains(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// maskStrings replaces the contents of string literals and quoted
// identifiers with spaces so pattern matching cannot be fooled by literal
// text. Quote characters themselves are preserved for identifiers.
func maskStrings(sql string) string {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	out := []byte(sql)
	state := stateNormal
	var prev byte

	for i := 0; i < len(out); i++ {
		c := out[i]
		switch state {
		case stateNormal:
			switch c {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if c == '\'' && prev != '\\' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		case stateDoubleQuote:
			// quoted identifiers keep their text so table checks still see them
			if c == '"' && prev != '\\' {
				state = stateNormal
			}
		}
		prev = c
	}
	return string(out)
}

func hasSemicolonOutsideStrings(sql string) bool {
	return strings.ContainsRune(maskStringsFully(sql), ';')
}

// maskStringsFully blanks single- and double-quoted runs entirely.
func maskStringsFully(sql string) string {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	out := []byte(sql)
	state := stateNormal
	var prev byte

	for i := 0; i < len(out); i++ {
		c := out[i]
		switch state {
		case stateNormal:
			switch c {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if c == '\'' && prev != '\\' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		case stateDoubleQuote:
			if c == '"' && prev != '\\' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		}
		prev = c
	}
	return string(out)
}

func stripTrailingSemicolon(sql string) string {
	sql = strings.TrimRight(sql, " \t\n\r")
	if strings.HasSuffix(sql, ";") {
		sql = strings.TrimRight(strings.TrimSuffix(sql, ";"), " \t\n\r")
	}
	return sql
}
