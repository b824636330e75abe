package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harborcx/agentdesk-backend/internal/domain"
	"github.com/harborcx/agentdesk-backend/internal/insights"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
	"github.com/harborcx/agentdesk-backend/internal/services"
)

type InsightsHandler struct {
	log          *logger.Logger
	orchestrator *insights.Orchestrator
	convStore    services.ConversationStore
}

func NewInsightsHandler(log *logger.Logger, orchestrator *insights.Orchestrator, convStore services.ConversationStore) *InsightsHandler {
	return &InsightsHandler{
		log:          log.With("handler", "InsightsHandler"),
		orchestrator: orchestrator,
		convStore:    convStore,
	}
}

type insightsRequest struct {
	CustomerID          string                    `json:"customerId" binding:"required"`
	Widgets             []string                  `json:"widgets" binding:"required,min=1"`
	ConversationID      string                    `json:"conversationId"`
	ConversationHistory []domain.Turn             `json:"conversationHistory"`
	ExtraVars           map[string]map[string]any `json:"extraVars"`
}

// POST /api/insights
// Run every requested widget concurrently and return one entry per widget.
// The conversation comes either inline or by stored conversation id; inline
// wins when both are present.
func (h *InsightsHandler) FetchInsights(c *gin.Context) {
	var req insightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	turns := req.ConversationHistory
	if len(turns) == 0 && req.ConversationID != "" {
		history, err := h.convStore.History(c.Request.Context(), req.ConversationID)
		if err != nil {
			if errors.Is(err, services.ErrConversationNotFound) {
				RespondError(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", err)
				return
			}
			RespondError(c, http.StatusInternalServerError, "CONVERSATION_LOOKUP_FAILED", err)
			return
		}
		turns = history
	}

	results := h.orchestrator.FetchInsights(c.Request.Context(), insights.Request{
		CustomerID:   req.CustomerID,
		Conversation: turns,
		Widgets:      req.Widgets,
		ExtraVars:    req.ExtraVars,
	})
	RespondOK(c, results)
}
