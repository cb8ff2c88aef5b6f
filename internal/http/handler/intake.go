package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"archieos.app/intake/internal/http/dto"
)

// MaxMessagesLimit caps max_messages for a single poll.
const MaxMessagesLimit = 100

// IntakeProcessor drains the intake queue once.
type IntakeProcessor interface {
	PollAndIngestOnce(ctx context.Context, maxMessages int) (int, error)
}

type IntakeHandler struct {
	processor          IntakeProcessor
	defaultMaxMessages int
}

func NewIntakeHandler(processor IntakeProcessor, defaultMaxMessages int) *IntakeHandler {
	if defaultMaxMessages <= 0 {
		defaultMaxMessages = 5
	}
	return &IntakeHandler{processor: processor, defaultMaxMessages: defaultMaxMessages}
}

// Process runs one poll. max_messages may come from the query string or a
// JSON body; missing or non-positive values use the default and larger
// values are capped at MaxMessagesLimit.
func (h *IntakeHandler) Process(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ProcessIntakeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid max_messages"})
		return
	}
	if req.MaxMessages <= 0 && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
			return
		}
	}
	maxMessages := req.MaxMessages
	if maxMessages <= 0 {
		maxMessages = h.defaultMaxMessages
	}
	maxMessages = min(maxMessages, MaxMessagesLimit)

	processed, err := h.processor.PollAndIngestOnce(ctx, maxMessages)
	if err != nil {
		slog.ErrorContext(ctx, "intake processing failed", "error", err, "max_messages", maxMessages)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ProcessIntakeResponse{
		OK:          true,
		Processed:   processed,
		MaxMessages: maxMessages,
	})
}
