// Package services contains the query pipeline orchestrator: the single
// component that owns a user turn from inbound question to audited answer.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/audit"
	"github.com/askdb-io/askdb-engine/pkg/executor"
	"github.com/askdb-io/askdb-engine/pkg/guard"
	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/prefilter"
	"github.com/askdb-io/askdb-engine/pkg/schema"
	"github.com/askdb-io/askdb-engine/pkg/textutil"
)

const (
	// previewRows caps how many result rows are serialized into the
	// answer-synthesis prompt.
	previewRows = 10
	// auditWriteTimeout bounds the audit write after the turn finishes.
	auditWriteTimeout = 5 * time.Second
)

const tooManyItemsReply = "That would return too many items to list here. Try narrowing the question down, for example by date, name, or category."

// Options are the orchestration knobs that live outside the access policy.
type Options struct {
	// MaxRetries is the shared attempt budget covering both generation
	// failures and guard rejections for one turn.
	MaxRetries int
	// ResponseMaxWords caps the final answer unless the question asks for
	// a listing.
	ResponseMaxWords int
	CurrencySymbol   string
	SmallTalkEnabled bool
	ProfanityEnabled bool
}

// Reply is what a transport hands back to the user for one turn.
type Reply struct {
	Answer string
	Record *models.QueryRecord
}

// QueryService runs one user question through the full pipeline.
type QueryService interface {
	HandleQuestion(ctx context.Context, userID int64, question string) *Reply
}

type queryService struct {
	policy      *models.Policy
	catalog     *schema.Catalog
	generator   llm.Generator
	executor    executor.Executor
	sink        audit.Repository
	security    *audit.SecurityAuditor
	opts        Options
	constraints string
	logger      *zap.Logger
}

var _ QueryService = (*queryService)(nil)

// NewQueryService wires the pipeline together.
func NewQueryService(
	policy *models.Policy,
	catalog *schema.Catalog,
	generator llm.Generator,
	exec executor.Executor,
	sink audit.Repository,
	security *audit.SecurityAuditor,
	opts Options,
	logger *zap.Logger,
) QueryService {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.ResponseMaxWords <= 0 {
		opts.ResponseMaxWords = 30
	}
	return &queryService{
		policy:      policy,
		catalog:     catalog,
		generator:   generator,
		executor:    exec,
		sink:        sink,
		security:    security,
		opts:        opts,
		constraints: constraintsText(policy),
		logger:      logger.Named("query_service"),
	}
}

// turnState names one stage of the pipeline. Every stage change goes through
// the loop in HandleQuestion, so transitions are explicit rather than buried
// in nested conditionals.
type turnState int

const (
	stateGenerating turnState = iota
	stateValidating
	stateExecuting
	stateRedacting
	stateAnswering
	stateConstraining
	stateDone
)

// turn is the mutable context of one question moving through the pipeline.
type turn struct {
	userID   int64
	question string
	record   *models.QueryRecord
	snapshot *models.SchemaSnapshot

	attempt      int
	errorContext string
	lastDetail   string
	adapterFail  bool // last failed attempt was a backend error, not a guard rejection

	candidate *models.CandidateQuery
	result    *models.ExecutionResult
	answer    string
}

// finish records the terminal disposition and stops the state loop.
func (t *turn) finish(outcome models.Outcome, answer, detail string) turnState {
	t.answer = answer
	t.record.Outcome = outcome
	t.record.Answer = &answer
	if detail != "" {
		t.record.ErrorDetail = &detail
	}
	return stateDone
}

// HandleQuestion runs one turn to a terminal state and persists exactly one
// audit record for it. It always returns a user-safe reply; internal error
// detail goes to the record and the logs only.
func (s *queryService) HandleQuestion(ctx context.Context, userID int64, question string) *Reply {
	t := &turn{
		userID:   userID,
		question: strings.TrimSpace(question),
		record:   models.NewQueryRecord(userID, question),
	}

	state := s.receive(ctx, t)
	for state != stateDone {
		switch state {
		case stateGenerating:
			state = s.generate(ctx, t)
		case stateValidating:
			state = s.validate(t)
		case stateExecuting:
			state = s.execute(ctx, t)
		case stateRedacting:
			state = s.redact(t)
		case stateAnswering:
			state = s.answer(ctx, t)
		case stateConstraining:
			state = s.constrain(t)
		default:
			state = stateDone
		}
	}

	s.persist(ctx, t.record)
	return &Reply{Answer: t.answer, Record: t.record}
}

// receive screens the inbound question and loads the schema snapshot.
func (s *queryService) receive(ctx context.Context, t *turn) turnState {
	if t.question == "" {
		return t.finish(models.OutcomeOutOfScope, randomNegative(), "empty question")
	}

	if s.opts.ProfanityEnabled && prefilter.ContainsProfanity(t.question) {
		return t.finish(models.OutcomeRejected, prefilter.ProfanityWarning(), "profanity")
	}
	if s.opts.SmallTalkEnabled && prefilter.IsSmallTalk(t.question) {
		return t.finish(models.OutcomeOutOfScope, prefilter.SmallTalkReply(t.question), "small_talk")
	}
	if check := prefilter.CheckQuestionForInjection(t.question); check != nil {
		s.security.LogInjectionAttempt(t.userID, check.Fingerprint, logging.TruncateString(t.question, 80))
		return t.finish(models.OutcomeRejected, randomNegative(), "sql_injection_attempt: "+check.Fingerprint)
	}

	snapshot := s.catalog.Snapshot(ctx)
	if snapshot.ConnectionError {
		// Drop the failed snapshot so the next turn re-introspects.
		s.catalog.Invalidate()
		return t.finish(models.OutcomeOutOfScope, randomDBUnavailable(), "schema unavailable")
	}
	if snapshot.Empty() {
		return t.finish(models.OutcomeOutOfScope, randomNegative(), "no tables in scope")
	}
	t.snapshot = snapshot
	return stateGenerating
}

// generate spends one unit of the shared retry budget on a generation
// attempt. Both backend failures and guard rejections funnel back here, so
// the budget is shared across failure kinds.
func (s *queryService) generate(ctx context.Context, t *turn) turnState {
	if t.attempt >= s.opts.MaxRetries {
		s.logger.Warn("retry budget exhausted",
			zap.String("record_id", t.record.ID.String()),
			zap.Int("attempts", t.attempt),
			zap.Bool("last_failure_was_backend", t.adapterFail))
		if t.adapterFail {
			return t.finish(models.OutcomeGenerationFailed, randomError(), t.lastDetail)
		}
		return t.finish(models.OutcomeGenerationFailed, randomNegative(), t.lastDetail)
	}
	t.attempt++
	t.record.AttemptCount = t.attempt

	gen, err := s.generator.GenerateSQL(ctx, &llm.SQLRequest{
		Question:         t.question,
		SchemaText:       t.snapshot.SchemaText(),
		Dialect:          t.snapshot.Dialect,
		ConstraintsText:  s.constraints,
		MaxRows:          s.policy.MaxRows,
		SoftDeleteColumn: s.policy.SoftDeleteColumn,
		ErrorContext:     t.errorContext,
	})
	if err != nil {
		// A failed call produced no candidate to critique, so the prior
		// error context is left in place for the next attempt.
		t.adapterFail = true
		t.lastDetail = err.Error()
		s.logger.Warn("generation attempt failed",
			zap.String("record_id", t.record.ID.String()),
			zap.Int("attempt", t.attempt),
			zap.Error(err))
		var genErr *llm.Error
		if errors.As(err, &genErr) && !genErr.IsRetryable() {
			// Bad credentials or a missing model will not heal between
			// attempts; the remaining budget is forfeited.
			return t.finish(models.OutcomeGenerationFailed, randomError(), t.lastDetail)
		}
		return stateGenerating
	}

	if gen.Status == models.GenerationOutOfScope {
		return s.outOfScope(ctx, t, gen)
	}

	t.candidate = &models.CandidateQuery{
		Text:        gen.SQL,
		Status:      gen.Status,
		ScopeReason: gen.Notes,
	}
	return stateValidating
}

// outOfScope ends the turn without consuming further budget. The generator
// declining a question is a legitimate terminal state, not a failure.
func (s *queryService) outOfScope(ctx context.Context, t *turn, gen *llm.SQLGeneration) turnState {
	detail := gen.Notes
	if detail == "" {
		detail = "out_of_scope"
	}

	var answer string
	switch gen.Notes {
	case "too_many_items":
		answer = tooManyItemsReply
	case "off_topic":
		reply, err := s.generator.GenerateOffTopicReply(ctx, t.question)
		if err != nil || strings.TrimSpace(reply) == "" {
			answer = randomNegative()
		} else {
			answer = strings.TrimSpace(reply)
		}
	default:
		answer = randomNegative()
	}
	return t.finish(models.OutcomeOutOfScope, answer, detail)
}

// validate runs the candidate through the guard. A rejection feeds the full
// violation list back into the next generation attempt.
func (s *queryService) validate(t *turn) turnState {
	result := guard.Validate(t.candidate, t.snapshot, s.policy)
	if !result.Accepted {
		violations := result.ErrorContext()
		s.security.LogGuardRejection(t.userID, violations)
		t.errorContext = violations
		t.lastDetail = violations
		t.adapterFail = false
		return stateGenerating
	}

	sql := t.candidate.Text
	t.record.FinalSQL = &sql
	return stateExecuting
}

// execute runs the accepted query. Execution failure is terminal; a query
// that passed validation and still failed will not be fixed by regeneration.
func (s *queryService) execute(ctx context.Context, t *turn) turnState {
	result, err := s.executor.Execute(ctx, t.candidate.Text, s.policy.MaxRows+1)
	if err != nil {
		s.logger.Error("query execution failed",
			zap.String("record_id", t.record.ID.String()),
			zap.Error(err))
		return t.finish(models.OutcomeExecutionFailed, randomError(), err.Error())
	}
	t.result = result
	return stateRedacting
}

// redact strips excluded columns from every row and applies row truncation.
// The executor fetched maxRows+1, so one extra row means the result was cut.
func (s *queryService) redact(t *turn) turnState {
	t.result.Rows = redactRows(t.result.Rows, s.policy)
	if len(t.result.Rows) > s.policy.MaxRows {
		t.result.Truncated = true
		t.result.Rows = t.result.Rows[:s.policy.MaxRows]
		t.record.RowsTruncated = true
	}
	t.result.RowCount = len(t.result.Rows)
	return stateAnswering
}

// answer synthesizes the natural-language reply from a bounded row preview.
func (s *queryService) answer(ctx context.Context, t *turn) turnState {
	rowCount := t.result.RowCount
	t.record.RowCount = &rowCount

	if rowCount == 0 {
		return t.finish(models.OutcomeAnswered, randomNegative(), "no_results")
	}

	preview := t.result.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	reply, err := s.generator.GenerateAnswer(ctx, &llm.AnswerRequest{
		Question:       t.question,
		SQL:            *t.record.FinalSQL,
		ResultPreview:  audit.SerializeRows(preview),
		CurrencySymbol: s.opts.CurrencySymbol,
		MaxWords:       s.opts.ResponseMaxWords,
	})
	if err != nil || strings.TrimSpace(reply) == "" {
		// The data is already in hand; a phrasing failure should not
		// discard it.
		s.logger.Warn("answer synthesis failed, using fallback",
			zap.String("record_id", t.record.ID.String()),
			zap.Error(err))
		if rowCount == 1 {
			t.answer = "The query returned 1 matching row."
		} else {
			t.answer = fmt.Sprintf("The query returned %d matching rows.", rowCount)
		}
	} else {
		t.answer = strings.TrimSpace(reply)
	}
	return stateConstraining
}

// constrain applies the word cap, except for questions that explicitly ask
// for a listing, and marks the turn answered. The truncation suffix counts
// against the cap so the composed answer stays within it.
func (s *queryService) constrain(t *turn) turnState {
	answer := t.answer
	suffix := ""
	if t.result.Truncated {
		suffix = fmt.Sprintf(" (showing the first %d results)", s.policy.MaxRows)
	}
	if !textutil.IsListingRequest(t.question) {
		budget := s.opts.ResponseMaxWords - textutil.CountWords(suffix)
		if budget < 1 {
			budget = 1
		}
		if textutil.CountWords(answer) > budget {
			answer = textutil.TruncateToWords(answer, budget)
		}
	}
	answer += suffix
	t.answer = answer
	t.record.Outcome = models.OutcomeAnswered
	t.record.Answer = &answer
	return stateDone
}

// persist hands the finished record to the audit sink. The user already has
// their answer at this point; a sink failure is logged and swallowed.
func (s *queryService) persist(ctx context.Context, record *models.QueryRecord) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if err := s.sink.Record(auditCtx, record); err != nil {
		s.logger.Error("failed to persist query record",
			zap.String("record_id", record.ID.String()),
			zap.Error(err))
	}
}

// redactRows removes excluded columns from each row. A row left empty after
// redaction is dropped entirely.
func redactRows(rows []map[string]any, policy *models.Policy) []map[string]any {
	if len(policy.ExcludedColumns) == 0 {
		return rows
	}
	redacted := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		clean := make(map[string]any, len(row))
		for column, value := range row {
			if policy.ColumnExcluded(column) {
				continue
			}
			clean[column] = value
		}
		if len(clean) > 0 {
			redacted = append(redacted, clean)
		}
	}
	return redacted
}

// constraintsText renders the policy lists for the generation prompt.
func constraintsText(p *models.Policy) string {
	var parts []string
	if len(p.AllowedTables) > 0 {
		parts = append(parts, "Only these tables may be queried: "+joinSorted(p.AllowedTables)+".")
	}
	if len(p.RestrictedTables) > 0 {
		parts = append(parts, "Never reference these tables: "+joinSorted(p.RestrictedTables)+".")
	}
	if len(p.ExcludedColumns) > 0 {
		parts = append(parts, "Never select these columns: "+joinSorted(p.ExcludedColumns)+".")
	}
	return strings.Join(parts, "\n")
}

func joinSorted(set map[string]struct{}) string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
