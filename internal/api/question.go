package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marketlens/marketlens/internal/agent"
	"github.com/marketlens/marketlens/internal/log"
	"github.com/marketlens/marketlens/internal/session"
)

// Processor runs the agent pipeline for one question.
// *agent.Agents satisfies it.
type Processor interface {
	Process(ctx context.Context, question string, convCtx map[string]any) (*agent.Result, error)
}

// ContextStore is the conversation-context surface the handlers need.
// *session.Store satisfies it.
type ContextStore interface {
	Context(ctx context.Context, userID, threadID string) (*session.Context, error)
	RecordInteraction(ctx context.Context, userID, threadID, question, response string) error
	ListThreads(ctx context.Context, userID string) ([]string, error)
	DeleteThread(ctx context.Context, threadID string) (bool, error)
}

// VagueFollowUps are offered when the router cannot pin down the
// question.
var VagueFollowUps = []string{
	"Would you like to know about response rates?",
	"Should we analyze demographic breakdowns?",
	"Would you like to see key findings from specific questions?",
}

// QuestionRequest is the payload of POST /process_question.
type QuestionRequest struct {
	UserID   string `json:"user_id"`
	ThreadID string `json:"thread_id"`
	BrandID  string `json:"brand_id"`
	SurveyID string `json:"survey_id"`
	Question string `json:"question"`
}

// QuestionResponse wraps the pipeline result. FollowUpSuggestions is
// only populated for vague questions.
type QuestionResponse struct {
	Response            *agent.Result `json:"response"`
	FollowUpSuggestions []string      `json:"follow_up_suggestions,omitempty"`
}

type questionHandler struct {
	processor Processor
	contexts  ContextStore
	logger    log.Logger
}

// processQuestion answers one market research question with full
// conversation context and records the interaction afterwards.
func (h *questionHandler) processQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON", h.logger)
		return
	}

	if msg := validateQuestionRequest(req); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg, h.logger)
		return
	}

	convCtx := h.loadContext(r.Context(), req)

	result, err := h.processor.Process(r.Context(), req.Question, convCtx)
	if err != nil {
		if errors.Is(err, agent.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "invalid_request", "question must not be empty", h.logger)
			return
		}
		h.logger.Error("question processing failed",
			"user_id", req.UserID,
			"thread_id", req.ThreadID,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "processing_failed", "failed to process question", h.logger)
		return
	}

	resp := QuestionResponse{Response: result}
	if result.QuestionType == agent.KindVague {
		resp.FollowUpSuggestions = VagueFollowUps
	}

	h.recordInteraction(r.Context(), req, result)

	writeJSON(w, http.StatusOK, resp, h.logger)
}

func validateQuestionRequest(req QuestionRequest) string {
	switch {
	case req.UserID == "":
		return "user_id is required"
	case req.ThreadID == "":
		return "thread_id is required"
	case req.Question == "":
		return "question is required"
	}
	return ""
}

// loadContext merges the stored conversation context with the request's
// brand and survey hints. A context-store failure degrades to an empty
// context rather than failing the question.
func (h *questionHandler) loadContext(ctx context.Context, req QuestionRequest) map[string]any {
	convCtx := make(map[string]any)

	sess, err := h.contexts.Context(ctx, req.UserID, req.ThreadID)
	if err != nil {
		h.logger.Warn("loading conversation context failed",
			"user_id", req.UserID,
			"thread_id", req.ThreadID,
			"error", err,
		)
	} else {
		for k, v := range sess.CombinedHistory {
			convCtx[k] = v
		}
	}

	if req.BrandID != "" {
		convCtx["brand_id"] = req.BrandID
	}
	if req.SurveyID != "" {
		convCtx["survey_id"] = req.SurveyID
	}
	return convCtx
}

// recordInteraction persists the question/answer pair. Failures are
// logged; the answer has already been produced and is still returned.
func (h *questionHandler) recordInteraction(ctx context.Context, req QuestionRequest, result *agent.Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		h.logger.Warn("marshalling result for history failed", "error", err)
		return
	}

	if err := h.contexts.RecordInteraction(ctx, req.UserID, req.ThreadID, req.Question, string(raw)); err != nil {
		h.logger.Warn("recording interaction failed",
			"user_id", req.UserID,
			"thread_id", req.ThreadID,
			"error", err,
		)
	}
}
