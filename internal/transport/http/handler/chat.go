package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"manualpilot/internal/app"
	"manualpilot/internal/cache"
	"manualpilot/internal/model"
	"manualpilot/internal/transport/http/response"
)

type ChatHandler struct {
	answerService *app.AnswerService
	history       *cache.HistoryCache
}

type ChatRequest struct {
	Message   string                   `json:"message" binding:"required"`
	History   []model.ConversationTurn `json:"history"`
	SessionID string                   `json:"session_id" binding:"max=128"`
}

func NewChatHandler(answerService *app.AnswerService, history *cache.HistoryCache) *ChatHandler {
	return &ChatHandler{
		answerService: answerService,
		history:       history,
	}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	ctx := c.Request.Context()

	// Request history wins; the cache fills in only when the caller sent none.
	history := req.History
	if len(history) == 0 && req.SessionID != "" {
		turns, err := h.history.GetHistory(ctx, req.SessionID)
		if err != nil {
			// History is an enhancement; answer without it rather than fail.
			log.Printf("load chat history failed: %v", err)
		} else {
			history = turns
		}
	}

	result, err := h.answerService.Answer(ctx, req.Message, history)
	if err != nil {
		if errors.Is(err, app.ErrEmptyMessage) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "answer failed")
		}
		return
	}

	if req.SessionID != "" {
		now := time.Now()
		err := h.history.AppendTurns(ctx, req.SessionID,
			model.ConversationTurn{Role: "user", Content: req.Message, Timestamp: now},
			model.ConversationTurn{Role: "assistant", Content: result.Message, Sources: result.Sources, Timestamp: now},
		)
		if err != nil {
			log.Printf("save chat history failed: %v", err)
		}
	}

	response.OK(c, result)
}
