package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"archieos.app/intake/common/logger"
	"archieos.app/intake/internal/domain"
	"archieos.app/intake/internal/http/dto"
	"archieos.app/intake/internal/mapper"
	"archieos.app/intake/internal/service"
)

const (
	headerTimestamp     = "X-Slack-Request-Timestamp"
	headerSignature     = "X-Slack-Signature"
	headerRetryNum      = "X-Slack-Retry-Num"
	headerRetryReason   = "X-Slack-Retry-Reason"
	headerIgnoredRetry  = "X-Slack-Ignored-Retry"
	formContentType     = "application/x-www-form-urlencoded"
	eventsEndpointLabel = "slack/events"
)

// EventBuffer accepts events for asynchronous classification.
type EventBuffer interface {
	Enqueue(evt domain.InboundEvent) error
}

type SlackWebhookHandler struct {
	verifier service.SignatureVerifier
	dedup    service.Deduplicator
	mapper   mapper.EventMapper
	buffer   EventBuffer
}

func NewSlackWebhookHandler(verifier service.SignatureVerifier, dedup service.Deduplicator, mapper mapper.EventMapper, buffer EventBuffer) *SlackWebhookHandler {
	return &SlackWebhookHandler{
		verifier: verifier,
		dedup:    dedup,
		mapper:   mapper,
		buffer:   buffer,
	}
}

// Status answers liveness probes on the webhook path.
func (h *SlackWebhookHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, dto.EndpointStatusResponse{Status: "ok", Endpoint: eventsEndpointLabel})
}

// HandleEvent acknowledges a Slack delivery. Classification happens after
// the response through the debounce buffer.
func (h *SlackWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{Component: "http.slack_webhook"})

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read slack request body", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		return
	}

	payload, evt, parseErr := decodeInbound(c.GetHeader("Content-Type"), rawBody)

	if evt.Type == domain.PayloadURLVerification {
		slog.InfoContext(ctx, "slack url verification", "challenge", logger.Truncate(evt.Challenge, 20))
		c.JSON(http.StatusOK, dto.URLVerificationResponse{Challenge: evt.Challenge})
		return
	}

	if err := h.verifier.Verify(c.GetHeader(headerTimestamp), c.GetHeader(headerSignature), rawBody); err != nil {
		slog.WarnContext(ctx, "slack signature rejected",
			"error", err,
			"has_timestamp", c.GetHeader(headerTimestamp) != "",
			"has_signature", c.GetHeader(headerSignature) != "")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid signature"})
		return
	}

	if parseErr != nil {
		slog.WarnContext(ctx, "unparseable slack payload acknowledged", "error", parseErr, "body_bytes", len(rawBody))
		c.JSON(http.StatusOK, dto.AckResponse{OK: true})
		return
	}

	eventID := domain.EventIdentity(evt, payload)
	channelID := evt.ConversationID()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SlackEventID: &eventID,
		ChannelID:    nonEmpty(channelID),
	})

	if h.dedup.IsDuplicate(ctx, service.DedupParams{
		EventID:     eventID,
		RetryNum:    c.GetHeader(headerRetryNum),
		RetryReason: c.GetHeader(headerRetryReason),
	}) {
		c.Header(headerIgnoredRetry, "true")
		c.JSON(http.StatusOK, dto.AckResponse{OK: true})
		return
	}

	if err := h.dispatch(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "failed to buffer slack event", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, dto.AckResponse{OK: true})
}

func (h *SlackWebhookHandler) dispatch(ctx context.Context, evt domain.InboundEvent) error {
	eventType, err := h.mapper.Map(ctx, evt)
	if err != nil {
		level := slog.LevelInfo
		if errors.Is(err, mapper.ErrUnsupportedEvent) {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "slack event not buffered", "reason", err, "payload_type", evt.Type)
		return nil
	}

	if err := h.buffer.Enqueue(evt); err != nil {
		return err
	}
	slog.InfoContext(ctx, "slack event buffered", "canonical_event_type", eventType)
	return nil
}

// decodeInbound parses either a JSON body or a form body carrying the JSON
// in its payload field. payload is the JSON document used for identity.
func decodeInbound(contentType string, rawBody []byte) ([]byte, domain.InboundEvent, error) {
	payload := rawBody
	if strings.HasPrefix(contentType, formContentType) {
		form, err := url.ParseQuery(string(rawBody))
		if err != nil {
			return rawBody, domain.InboundEvent{}, err
		}
		payload = []byte(form.Get("payload"))
	}

	var evt domain.InboundEvent
	if len(payload) == 0 {
		return payload, evt, errors.New("empty payload")
	}
	if err := json.Unmarshal(payload, &evt); err != nil {
		return payload, domain.InboundEvent{}, err
	}
	return payload, evt, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
