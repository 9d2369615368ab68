package llm

import (
	"context"
)

// MockGenerator is a configurable mock for testing the orchestrator.
// Set the function fields to control behavior in tests.
type MockGenerator struct {
	// GenerateSQLFunc is called when GenerateSQL is invoked.
	// If nil, returns an out-of-scope generation and nil error.
	GenerateSQLFunc func(ctx context.Context, req *SQLRequest) (*SQLGeneration, error)

	// GenerateAnswerFunc is called when GenerateAnswer is invoked.
	// If nil, returns "mock answer" and nil error.
	GenerateAnswerFunc func(ctx context.Context, req *AnswerRequest) (string, error)

	// GenerateOffTopicReplyFunc is called when GenerateOffTopicReply is
	// invoked. If nil, returns a canned reply and nil error.
	GenerateOffTopicReplyFunc func(ctx context.Context, question string) (string, error)

	// Call tracking for verification
	GenerateSQLCalls      int
	GenerateAnswerCalls   int
	GenerateOffTopicCalls int

	// SQLRequests records every request passed to GenerateSQL, so tests
	// can assert on error-context feedback between attempts.
	SQLRequests []*SQLRequest
}

var _ Generator = (*MockGenerator)(nil)

// GenerateSQL implements Generator.
func (m *MockGenerator) GenerateSQL(ctx context.Context, req *SQLRequest) (*SQLGeneration, error) {
	m.GenerateSQLCalls++
	m.SQLRequests = append(m.SQLRequests, req)
	if m.GenerateSQLFunc != nil {
		return m.GenerateSQLFunc(ctx, req)
	}
	return &SQLGeneration{Status: "out_of_scope"}, nil
}

// GenerateAnswer implements Generator.
func (m *MockGenerator) GenerateAnswer(ctx context.Context, req *AnswerRequest) (string, error) {
	m.GenerateAnswerCalls++
	if m.GenerateAnswerFunc != nil {
		return m.GenerateAnswerFunc(ctx, req)
	}
	return "mock answer", nil
}

// GenerateOffTopicReply implements Generator.
func (m *MockGenerator) GenerateOffTopicReply(ctx context.Context, question string) (string, error) {
	m.GenerateOffTopicCalls++
	if m.GenerateOffTopicReplyFunc != nil {
		return m.GenerateOffTopicReplyFunc(ctx, question)
	}
	return "I'm here for data questions.", nil
}
