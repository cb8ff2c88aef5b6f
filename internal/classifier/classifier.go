package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"archieos.app/intake/common/id"
	"archieos.app/intake/common/llm"
	"archieos.app/intake/common/logger"
	"archieos.app/intake/internal/domain"
	"archieos.app/intake/internal/model"
	"archieos.app/intake/internal/queue"
	"archieos.app/intake/internal/store"
)

type Status string

const (
	StatusEnqueued Status = "enqueued"
	StatusSkipped  Status = "skipped"
)

// SkipReason enumerates every way a message can leave the pipeline before
// reaching the intake queue.
type SkipReason string

const (
	SkipDisabled        SkipReason = "classifier_disabled"
	SkipTooShort        SkipReason = "message_too_short"
	SkipEmojiOnly       SkipReason = "emoji_only"
	SkipCasualGreeting  SkipReason = "casual_greeting"
	SkipGreeting        SkipReason = "greeting"
	SkipAcknowledgment  SkipReason = "acknowledgment"
	SkipEmojiReaction   SkipReason = "emoji_reaction"
	SkipRateLimited     SkipReason = "rate_limited"
	SkipModelError      SkipReason = "model_error"
	SkipLowConfidence   SkipReason = "low_confidence"
	SkipIgnored         SkipReason = "ignored"
	SkipEnqueueFailed   SkipReason = "enqueue_failed"
	SkipMissingMetadata SkipReason = "missing_metadata"
)

// Outcome is the tagged result of ClassifyAndEnqueue.
type Outcome struct {
	Status      Status
	Reason      SkipReason // set when Status is StatusSkipped
	Result      *domain.ClassificationResult
	QueueItemID int64 // set when Status is StatusEnqueued
}

func (o Outcome) Enqueued() bool {
	return o.Status == StatusEnqueued
}

func enqueued(result *domain.ClassificationResult, itemID int64) Outcome {
	return Outcome{Status: StatusEnqueued, Result: result, QueueItemID: itemID}
}

func skipped(reason SkipReason, result *domain.ClassificationResult) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason, Result: result}
}

type Config struct {
	Enabled       bool
	ConfidenceMin float64
	Location      *time.Location
	Timeout       time.Duration // per model call; 0 means none
	RatePerMinute int           // 0 disables rate limiting
	MaxTokens     int
	MaxAttempts   int
	RetryBackoff  time.Duration
}

type Classifier struct {
	llm      llm.Client
	queue    store.IntakeQueueStore
	notifier queue.Producer
	limiter  *rate.Limiter
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

func New(client llm.Client, queueStore store.IntakeQueueStore, notifier queue.Producer, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = queue.NoopProducer{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}

	return &Classifier{
		llm:      client,
		queue:    queueStore,
		notifier: notifier,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// ClassifyAndEnqueue runs the prefilter, the model, and the confidence gate
// for one message, and enqueues the result when it survives. It never
// returns an error: every failure is logged and reported as a skip.
func (c *Classifier) ClassifyAndEnqueue(ctx context.Context, msg domain.SlackMessage) Outcome {
	key := domain.IdempotencyKey(msg.ChannelID, msg.TS)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ChannelID:      &msg.ChannelID,
		SlackUserID:    &msg.UserID,
		IdempotencyKey: &key,
		Component:      "intake.classifier",
	})

	if !c.cfg.Enabled {
		c.logger.DebugContext(ctx, "classifier disabled, skipping message")
		return skipped(SkipDisabled, nil)
	}
	if msg.ChannelID == "" || msg.TS == "" || msg.UserID == "" {
		c.logger.WarnContext(ctx, "message missing identifiers, skipping")
		return skipped(SkipMissingMetadata, nil)
	}

	if reason, skip := Prefilter(msg.Text); skip {
		c.logger.InfoContext(ctx, "message skipped by prefilter",
			"skip_reason", reason,
			"message_preview", logger.Truncate(RedactPII(msg.Text), 50))
		return skipped(reason, nil)
	}

	c.logger.InfoContext(ctx, "classification started",
		"message_length", len(msg.Text),
		"links_count", len(msg.Links),
		"has_attachments", len(msg.Attachments) > 0)

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.WarnContext(ctx, "classification rate limit wait aborted", "error", err)
		return skipped(SkipRateLimited, nil)
	}

	result, err := c.classify(ctx, msg)
	if err != nil {
		c.logger.ErrorContext(ctx, "classification failed", "error", err)
		return skipped(SkipModelError, nil)
	}

	if result.Confidence < c.cfg.ConfidenceMin {
		c.logger.InfoContext(ctx, "classification below confidence threshold",
			"confidence", result.Confidence,
			"confidence_threshold", c.cfg.ConfidenceMin,
			"message_type", result.MessageType)
		return skipped(SkipLowConfidence, result)
	}

	if result.MessageType == domain.MessageTypeIgnore {
		c.logger.InfoContext(ctx, "message classified as IGNORE, skipping",
			"confidence", result.Confidence)
		return skipped(SkipIgnored, result)
	}

	item, err := c.enqueue(ctx, msg, *result)
	if err != nil {
		c.logger.ErrorContext(ctx, "enqueueing classification failed", "error", err)
		return skipped(SkipEnqueueFailed, result)
	}

	c.logger.InfoContext(ctx, "message classified and enqueued",
		"queue_item_id", item.ID,
		"message_type", result.MessageType,
		"confidence", result.Confidence,
		"task_key", result.TaskKey,
		"group_key", result.GroupKey,
		"due_date", result.DueDate)

	return enqueued(result, item.ID)
}

func (c *Classifier) classify(ctx context.Context, msg domain.SlackMessage) (*domain.ClassificationResult, error) {
	prompt := BuildPrompt(msg.Text, msg.TS, msg.Links, c.cfg.Location, c.now())

	var (
		result domain.ClassificationResult
		resp   *llm.Response
		err    error
	)
	start := time.Now()

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		resp, err = c.chat(ctx, prompt, &result)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrInvalidClassification) || !llm.IsRetryable(ctx, err) || attempt == c.cfg.MaxAttempts-1 {
			break
		}
		c.logger.WarnContext(ctx, "classification retry",
			"attempt", attempt+1,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.RetryBackoff << attempt):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("model call (%s/%s): %w", c.llm.Provider(), c.llm.Model(), err)
	}

	attrs := []any{
		"llm_provider", c.llm.Provider(),
		"llm_model", c.llm.Model(),
		"prompt_version", promptVersion,
		"latency_ms", time.Since(start).Milliseconds(),
		"message_type", result.MessageType,
		"confidence", result.Confidence,
	}
	if resp != nil {
		attrs = append(attrs, "prompt_tokens", resp.PromptTokens, "completion_tokens", resp.CompletionTokens)
	}
	c.logger.InfoContext(ctx, "classification response received", attrs...)

	return &result, nil
}

func (c *Classifier) chat(ctx context.Context, prompt Prompt, result *domain.ClassificationResult) (*llm.Response, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	return c.llm.Chat(ctx, llm.Request{
		SystemPrompt: prompt.System,
		Messages:     prompt.Messages,
		SchemaName:   schemaName,
		Schema:       classificationSchema,
		MaxTokens:    c.cfg.MaxTokens,
		Temperature:  llm.Temp(0),
	}, result)
}

func (c *Classifier) enqueue(ctx context.Context, msg domain.SlackMessage, result domain.ClassificationResult) (*model.QueueItem, error) {
	envelope := domain.NewEnvelope(msg, result)
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	item, err := c.queue.Enqueue(ctx, &model.QueueItem{
		ID:             id.New(),
		IdempotencyKey: envelope.IdempotencyKey,
		Envelope:       raw,
		MessageType:    string(result.MessageType),
	})
	if err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}

	// The queue row is durable; a failed wake-up only delays the worker
	// until its next scheduled poll.
	if err := c.notifier.Notify(ctx, queue.WakeMessage{
		QueueItemID:    item.ID,
		MessageType:    item.MessageType,
		IdempotencyKey: item.IdempotencyKey,
		TraceID:        logger.TraceIDFromContext(ctx),
	}); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.WarnContext(ctx, "publishing wake message failed", "error", err, "queue_item_id", item.ID)
	}

	return item, nil
}
