package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal disposition of one user turn.
type Outcome string

const (
	// OutcomeAnswered means a validated query ran and an answer was produced.
	OutcomeAnswered Outcome = "ANSWERED"
	// OutcomeOutOfScope means the generator classified the question as
	// not answerable from the data in scope.
	OutcomeOutOfScope Outcome = "OUT_OF_SCOPE"
	// OutcomeRejected means the question was refused before any SQL was
	// generated, e.g. by profanity or injection screening.
	OutcomeRejected Outcome = "REJECTED"
	// OutcomeExecutionFailed means the validated query failed at the database.
	OutcomeExecutionFailed Outcome = "EXECUTION_FAILED"
	// OutcomeGenerationFailed means the retry budget ran out without an
	// accepted candidate, whether attempts failed at the backend or at the
	// guard.
	OutcomeGenerationFailed Outcome = "GENERATION_FAILED"
)

// QueryRecord is the audit record for one user turn. It is created when the
// turn starts, mutated only by the orchestrator, and handed to the audit
// sink exactly once when the turn reaches a terminal state.
type QueryRecord struct {
	ID           uuid.UUID
	UserID       int64
	Question     string
	FinalSQL     *string
	AttemptCount int
	Outcome      Outcome
	Answer       *string
	RowCount     *int
	// RowsTruncated marks a result that was cut at the policy row cap.
	RowsTruncated bool
	// ErrorDetail carries the full violation list or error text for audit.
	// It is never shown to the end user.
	ErrorDetail *string
	CreatedAt   time.Time
}

// NewQueryRecord starts the record for a turn.
func NewQueryRecord(userID int64, question string) *QueryRecord {
	return &QueryRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Question:  question,
		CreatedAt: time.Now().UTC(),
	}
}
