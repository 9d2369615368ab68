package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/services"
)

// stubQueryService returns a fixed reply and records the question.
type stubQueryService struct {
	reply        *services.Reply
	lastUserID   int64
	lastQuestion string
}

func (s *stubQueryService) HandleQuestion(ctx context.Context, userID int64, question string) *services.Reply {
	s.lastUserID = userID
	s.lastQuestion = question
	return s.reply
}

func answeredReply(answer string) *services.Reply {
	record := models.NewQueryRecord(7, "q")
	record.Outcome = models.OutcomeAnswered
	record.Answer = &answer
	return &services.Reply{Answer: answer, Record: record}
}

func newAskServer(svc services.QueryService) *http.ServeMux {
	mux := http.NewServeMux()
	NewAskHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestAsk_Success(t *testing.T) {
	stub := &stubQueryService{reply: answeredReply("We shipped 12 orders.")}
	mux := newAskServer(stub)

	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"user_id": 7, "question": "how many orders shipped"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), stub.lastUserID)
	assert.Equal(t, "how many orders shipped", stub.lastQuestion)

	var body AskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "We shipped 12 orders.", body.Answer)
	assert.Equal(t, models.OutcomeAnswered, body.Outcome)
	assert.NotEmpty(t, body.RecordID)
}

func TestAsk_InvalidJSON(t *testing.T) {
	mux := newAskServer(&stubQueryService{reply: answeredReply("x")})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	mux := newAskServer(&stubQueryService{reply: answeredReply("x")})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"user_id": 1, "question": "  "}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_QuestionTooLong(t *testing.T) {
	mux := newAskServer(&stubQueryService{reply: answeredReply("x")})

	long := strings.Repeat("a", maxQuestionLength+1)
	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"user_id": 1, "question": "`+long+`"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_MethodNotAllowed(t *testing.T) {
	mux := newAskServer(&stubQueryService{reply: answeredReply("x")})

	req := httptest.NewRequest(http.MethodGet, "/ask", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
