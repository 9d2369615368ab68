package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/services"
)

// maxQuestionLength bounds inbound question size before any processing.
const maxQuestionLength = 2000

// AskRequest is the request body for POST /ask.
type AskRequest struct {
	UserID   int64  `json:"user_id"`
	Question string `json:"question"`
}

// AskResponse is the response body for POST /ask.
type AskResponse struct {
	Answer   string         `json:"answer"`
	Outcome  models.Outcome `json:"outcome"`
	RecordID string         `json:"record_id"`
	RowCount *int           `json:"row_count,omitempty"`
}

// AskHandler exposes the query pipeline over HTTP.
type AskHandler struct {
	service services.QueryService
	logger  *zap.Logger
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(service services.QueryService, logger *zap.Logger) *AskHandler {
	return &AskHandler{service: service, logger: logger}
}

// RegisterRoutes registers the ask handler's routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ask", h.Ask)
}

// Ask handles POST /ask requests. The response body never carries SQL,
// schema detail, or internal error text; those live in the audit record.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}
	if len(req.Question) > maxQuestionLength {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "question is too long")
		return
	}

	reply := h.service.HandleQuestion(r.Context(), req.UserID, req.Question)

	h.logger.Info("question handled",
		zap.String("record_id", reply.Record.ID.String()),
		zap.Int64("user_id", req.UserID),
		zap.String("outcome", string(reply.Record.Outcome)),
		zap.Int("attempts", reply.Record.AttemptCount))

	response := AskResponse{
		Answer:   reply.Answer,
		Outcome:  reply.Record.Outcome,
		RecordID: reply.Record.ID.String(),
		RowCount: reply.Record.RowCount,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ask response", zap.Error(err))
	}
}
