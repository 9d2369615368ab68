// Package llm adapts a text-generation backend into the two structured
// capabilities the query pipeline needs: turning a question into candidate
// SQL, and phrasing results as a short natural-language answer.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/jsonutil"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

// SQLRequest carries everything a generation attempt needs.
type SQLRequest struct {
	Question         string
	SchemaText       string
	Dialect          string
	ConstraintsText  string
	MaxRows          int
	SoftDeleteColumn string
	// ErrorContext carries the previous attempt's violations or execution
	// error so the model can self-correct. Empty on the first attempt.
	ErrorContext string
}

// SQLGeneration is the structured result of one generation attempt.
type SQLGeneration struct {
	Status models.GenerationStatus
	SQL    string
	Notes  string
}

// AnswerRequest carries the inputs for answer synthesis.
type AnswerRequest struct {
	Question       string
	SQL            string
	ResultPreview  string
	CurrencySymbol string
	MaxWords       int
}

// Generator is the external text-generation capability consumed by the
// orchestrator. Any call may fail with a transport error, which the
// orchestrator treats as a generation failure.
type Generator interface {
	GenerateSQL(ctx context.Context, req *SQLRequest) (*SQLGeneration, error)
	GenerateAnswer(ctx context.Context, req *AnswerRequest) (string, error)
	GenerateOffTopicReply(ctx context.Context, question string) (string, error)
}

// Client is a minimal chat-completion backend. Implementations own
// transport details; the generator owns prompts and response parsing.
type Client interface {
	Complete(ctx context.Context, systemMessage, prompt string, temperature float64, maxTokens int) (string, error)
	Model() string
}

// NewGenerator wraps a backend client into a Generator.
func NewGenerator(client Client, logger *zap.Logger) Generator {
	return &generator{
		client: client,
		logger: logger.Named("llm"),
	}
}

type generator struct {
	client Client
	logger *zap.Logger
}

var _ Generator = (*generator)(nil)

// sqlPayload is the JSON the model is instructed to return. SQL and notes
// are raw so sloppy models that emit numbers or booleans there still parse.
type sqlPayload struct {
	Status string          `json:"status"`
	SQL    json.RawMessage `json:"sql"`
	Notes  json.RawMessage `json:"notes"`
}

// GenerateSQL asks the model for candidate SQL. The response must be a
// JSON object; anything unparseable is surfaced as a malformed-response
// error, never coerced into a candidate.
func (g *generator) GenerateSQL(ctx context.Context, req *SQLRequest) (*SQLGeneration, error) {
	system := buildSQLSystemPrompt(req)
	raw, err := g.client.Complete(ctx, system, "Question: "+req.Question, 0.1, 800)
	if err != nil {
		return nil, ClassifyError(err)
	}

	payload, err := ParseJSONResponse[sqlPayload](raw)
	if err != nil {
		g.logger.Warn("unparseable generation response",
			zap.String("model", g.client.Model()),
			zap.Int("response_len", len(raw)))
		return nil, NewError(ErrorTypeMalformed, "response is not valid JSON", true, err)
	}

	status := models.GenerationStatus(strings.ToLower(payload.Status))
	notes := jsonutil.FlexibleStringValue(payload.Notes)
	sqlText := strings.TrimSpace(jsonutil.FlexibleStringValue(payload.SQL))

	switch status {
	case models.GenerationOK:
		if sqlText == "" {
			return nil, NewError(ErrorTypeMalformed, `status "ok" without SQL`, true, nil)
		}
		return &SQLGeneration{Status: models.GenerationOK, SQL: sqlText, Notes: notes}, nil
	case models.GenerationOutOfScope:
		return &SQLGeneration{Status: models.GenerationOutOfScope, Notes: notes}, nil
	default:
		return nil, NewError(ErrorTypeMalformed, fmt.Sprintf("unknown status %q", payload.Status), true, nil)
	}
}

// GenerateAnswer phrases redacted results as a short answer.
func (g *generator) GenerateAnswer(ctx context.Context, req *AnswerRequest) (string, error) {
	system := buildAnswerSystemPrompt(req)
	prompt := fmt.Sprintf("Question:\n%s\n\nSQL:\n%s\n\nResults:\n%s",
		req.Question, req.SQL, req.ResultPreview)

	raw, err := g.client.Complete(ctx, system, prompt, 0.3, 400)
	if err != nil {
		return "", ClassifyError(err)
	}

	answer := strings.TrimSpace(thinkTagPattern.ReplaceAllString(raw, ""))
	if answer == "" {
		return "", NewError(ErrorTypeMalformed, "empty answer", true, nil)
	}
	return answer, nil
}

// GenerateOffTopicReply produces a short friendly deflection for questions
// the model classified as unrelated to data.
func (g *generator) GenerateOffTopicReply(ctx context.Context, question string) (string, error) {
	system := strings.Join([]string{
		"You are a helpful and friendly data assistant.",
		"The user asked a question that is not related to data or databases.",
		"Reply with a SHORT (1-2 sentences), light but respectful response.",
		"Make it clear you are here for data questions.",
		"Max 15 words.",
	}, "\n")

	raw, err := g.client.Complete(ctx, system, "Off-topic question: "+question, 0.7, 100)
	if err != nil {
		return "", ClassifyError(err)
	}
	return strings.TrimSpace(thinkTagPattern.ReplaceAllString(raw, "")), nil
}

func buildSQLSystemPrompt(req *SQLRequest) string {
	quoteName := "double quotes"
	quoteOpen, quoteClose := `"`, `"`
	if req.Dialect == "mysql" {
		quoteName = "backticks"
		quoteOpen, quoteClose = "`", "`"
	}

	schemaText := req.SchemaText
	if schemaText == "" {
		schemaText = "(No accessible tables)"
	}

	parts := []string{
		"# SQL Generation Task",
		"Generate safe, read-only SQL queries for analytics.",
		"",
		"## Output Format",
		"Respond with ONLY a JSON object (no markdown, no code fences) with keys: status, sql, notes",
		`Example: {"status": "ok", "sql": "SELECT ...", "notes": null}`,
		"",
		"## Status Values",
		"- 'ok': generated valid SQL for a database question",
		"- 'out_of_scope': question is not database/analytics related OR cannot be answered with the available schema",
		"If the question is off-topic, use status 'out_of_scope' with notes 'off_topic'.",
		fmt.Sprintf("If the user asks for more than %d items, use status 'out_of_scope' with notes 'too_many_items'.", req.MaxRows),
		"",
		"## SQL Rules",
		"1. Read-only only: NO INSERT/UPDATE/DELETE/DDL operations, no comments, single statement",
		fmt.Sprintf("2. Copy table and column names EXACTLY as shown in the schema; wrap mixed-case names in %s: %sEmployee_task%s", quoteName, quoteOpen, quoteClose),
		fmt.Sprintf("3. ALWAYS add a LIMIT clause; never exceed LIMIT %d", req.MaxRows),
		fmt.Sprintf("4. If the user asks for 'all records', use LIMIT %d; if they name a number, use it as the LIMIT", req.MaxRows),
		"5. Use only tables and columns present in the schema below",
	}
	if req.SoftDeleteColumn != "" {
		parts = append(parts,
			fmt.Sprintf("6. ALWAYS exclude soft-deleted records: for any table with a %q column, filter on it (e.g. WHERE %s IS NULL)", req.SoftDeleteColumn, req.SoftDeleteColumn))
	}
	parts = append(parts,
		"",
		"Dialect: "+req.Dialect,
		"",
		"## Constraints",
		req.ConstraintsText,
		"",
		"## Available Schema",
		schemaText,
	)
	if req.ErrorContext != "" {
		parts = append(parts, "", "## Previous Attempt Error", req.ErrorContext)
	}
	return strings.Join(parts, "\n")
}

func buildAnswerSystemPrompt(req *AnswerRequest) string {
	return strings.Join([]string{
		"You write short, helpful answers based on SQL results.",
		"Reply in the same language as the user question.",
		fmt.Sprintf("Use 1-3 sentences, max %d words.", req.MaxWords),
		"Include numbers from the results.",
		"Do not expose sensitive columns or internal error details.",
		"Paraphrase table and column names into human-friendly wording.",
		fmt.Sprintf("Format monetary values with the currency symbol %q (e.g., %s1,234.56).",
			req.CurrencySymbol, req.CurrencySymbol),
	}, "\n")
}
