package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harborcx/agentdesk-backend/internal/domain"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
	"github.com/harborcx/agentdesk-backend/internal/services"
)

type ConversationHandler struct {
	log      *logger.Logger
	store    services.ConversationStore
	replySvc *services.ReplyService
}

func NewConversationHandler(log *logger.Logger, store services.ConversationStore, replySvc *services.ReplyService) *ConversationHandler {
	return &ConversationHandler{
		log:      log.With("handler", "ConversationHandler"),
		store:    store,
		replySvc: replySvc,
	}
}

type appendMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=agent customer"`
	Content string `json:"content" binding:"required"`
}

type conversationResponse struct {
	ConversationID string        `json:"conversationId"`
	Turns          []domain.Turn `json:"turns"`
}

// POST /api/conversations
// Start an empty conversation and hand back its id.
func (h *ConversationHandler) Create(c *gin.Context) {
	id, err := h.store.Create(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "CONVERSATION_CREATE_FAILED", err)
		return
	}
	RespondOK(c, conversationResponse{ConversationID: id, Turns: []domain.Turn{}})
}

// POST /api/conversations/:id/messages
// Append a turn. Agent turns trigger a simulated customer reply unless
// auto-reply is disabled; the response carries the full updated transcript.
func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	id := c.Param("id")
	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	ctx := c.Request.Context()
	turn := domain.Turn{Role: req.Role, Content: req.Content}
	if err := h.store.Append(ctx, id, turn); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			RespondError(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "CONVERSATION_APPEND_FAILED", err)
		return
	}

	if req.Role == domain.RoleAgent {
		history, err := h.store.History(ctx, id)
		if err == nil {
			if reply, ok := h.replySvc.GenerateCustomerReply(ctx, history); ok {
				if err := h.store.Append(ctx, id, reply); err != nil {
					h.log.Warn("failed to append auto-reply", "conversation_id", id, "error", err)
				}
			}
		}
	}

	turns, err := h.store.History(ctx, id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "CONVERSATION_LOOKUP_FAILED", err)
		return
	}
	RespondOK(c, conversationResponse{ConversationID: id, Turns: turns})
}

// GET /api/conversations/:id
// Full transcript in append order.
func (h *ConversationHandler) Get(c *gin.Context) {
	id := c.Param("id")
	turns, err := h.store.History(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			RespondError(c, http.StatusNotFound, "CONVERSATION_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "CONVERSATION_LOOKUP_FAILED", err)
		return
	}
	RespondOK(c, conversationResponse{ConversationID: id, Turns: turns})
}
