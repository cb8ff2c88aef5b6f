package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"archieos.app/intake/common/id"
	"archieos.app/intake/common/logger"
	"archieos.app/intake/internal/domain"
	"archieos.app/intake/internal/model"
	"archieos.app/intake/internal/service"
	"archieos.app/intake/internal/store"
)

const (
	// DefaultMaxMessages is the batch size when the caller passes none.
	DefaultMaxMessages = 5

	// MaxMessagesLimit caps a single claim.
	MaxMessagesLimit = 100

	// SourceIntakeQueue tags intake_events rows written by the processor.
	SourceIntakeQueue = "intake_queue"

	defaultListingAddress = "Unknown"
	maxErrorMessageLength = 500
)

// ErrRealtorUnresolved marks a STRAY item released because its sender could
// not be mapped to a realtor.
var ErrRealtorUnresolved = errors.New("realtor unresolved")

var errMalformedEnvelope = errors.New("malformed envelope")

type Config struct {
	ClaimantID string
	Lease      time.Duration
	Location   *time.Location
}

// Deps are the collaborators the processor needs outside a transaction.
type Deps struct {
	Queue           store.IntakeQueueStore
	Events          store.IntakeEventStore
	Classifications store.ClassificationStore
	Users           service.UserResolver
	Tx              service.TxRunner
}

// Processor materializes queued classifications into listings and agent
// tasks.
type Processor struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
}

func NewProcessor(deps Deps, cfg Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClaimantID == "" {
		cfg.ClaimantID = "intake-" + uuid.NewString()[:8]
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Processor{deps: deps, cfg: cfg, logger: logger}
}

// PollAndIngestOnce claims up to maxMessages queue items, oldest first, and
// processes each one. It returns how many items were marked processed,
// including items skipped as already seen. Per-item failures release the
// item for a later attempt and do not fail the batch; only a failed claim
// is returned as an error.
func (p *Processor) PollAndIngestOnce(ctx context.Context, maxMessages int) (int, error) {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	maxMessages = min(maxMessages, MaxMessagesLimit)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "intake.processor"})

	items, err := p.deps.Queue.ClaimBatch(ctx, p.cfg.ClaimantID, maxMessages, p.cfg.Lease)
	if err != nil {
		return 0, fmt.Errorf("claiming intake batch: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	p.logger.DebugContext(ctx, "claimed intake batch", "count", len(items), "claimant", p.cfg.ClaimantID)

	processed := 0
	for _, item := range items {
		itemID := item.ID
		span := logger.StartSpan(logger.WithLogFields(ctx, logger.LogFields{QueueItemID: &itemID}), "intake.process_item")
		itemCtx := span.Context()

		err := p.processItemSafe(itemCtx, item)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		if err != nil {
			p.logger.ErrorContext(itemCtx, "processing queue item failed, will retry",
				"error", err,
				"attempts", item.Attempts)
			if relErr := p.deps.Queue.Release(itemCtx, item.ID, logger.Truncate(err.Error(), maxErrorMessageLength)); relErr != nil {
				p.logger.WarnContext(itemCtx, "releasing queue item failed; lease expiry will reclaim it", "error", relErr)
			}
			continue
		}
		processed++
	}

	p.logger.InfoContext(ctx, "intake batch processed", "claimed", len(items), "processed", processed)
	return processed, nil
}

func (p *Processor) processItemSafe(ctx context.Context, item model.QueueItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.processItem(ctx, item)
}

// envelopeHeader is decoded before the full envelope so that an item whose
// payload fails validation can still be keyed and retired.
type envelopeHeader struct {
	IdempotencyKey string `json:"idempotency_key"`
	Payload        struct {
		MessageType domain.MessageType `json:"message_type"`
	} `json:"payload"`
}

func (p *Processor) processItem(ctx context.Context, item model.QueueItem) error {
	var header envelopeHeader
	headerErr := json.Unmarshal(item.Envelope, &header)

	key := header.IdempotencyKey
	if key == "" {
		key = strconv.FormatInt(item.ID, 10)
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{IdempotencyKey: &key})

	seen, err := p.deps.Events.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("checking seen events: %w", err)
	}
	if seen {
		p.logger.InfoContext(ctx, "queue item already ingested, skipping")
		if err := p.deps.Queue.MarkProcessed(ctx, item.ID); err != nil {
			return fmt.Errorf("marking duplicate processed: %w", err)
		}
		return nil
	}

	if headerErr != nil {
		p.logger.WarnContext(ctx, "queue item envelope is not valid JSON, retiring", "error", headerErr)
		return p.complete(ctx, item, key)
	}

	msgType := header.Payload.MessageType
	if !slices.Contains(domain.MessageTypes, msgType) || msgType == domain.MessageTypeIgnore {
		p.logger.WarnContext(ctx, "unknown message type, retiring without action", "message_type", msgType)
		return p.complete(ctx, item, key)
	}

	var env domain.ClassificationEnvelope
	if err := json.Unmarshal(item.Envelope, &env); err != nil {
		p.logger.WarnContext(ctx, "queue item payload is invalid, retiring",
			"error", fmt.Errorf("%w: %w", errMalformedEnvelope, err),
			"message_type", msgType)
		return p.complete(ctx, item, key)
	}

	typeStr := string(msgType)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageType: &typeStr,
		ChannelID:   &env.Source.ChannelID,
		SlackUserID: &env.Source.SlackUserID,
	})

	switch msgType {
	case domain.MessageTypeGroup:
		return p.ingestGroup(ctx, item, key, env)
	case domain.MessageTypeStray:
		return p.ingestStray(ctx, item, key, env)
	default:
		return p.ingestInfoRequest(ctx, item, key, env)
	}
}

func (p *Processor) ingestGroup(ctx context.Context, item model.QueueItem, key string, env domain.ClassificationEnvelope) error {
	meta := map[string]any{}
	if env.Payload.GroupKey != nil {
		meta["groupKey"] = *env.Payload.GroupKey
	}

	listing, err := p.createListing(ctx, item, key, env, meta)
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "created listing from GROUP",
		"listing_id", listing.ID,
		"address", listing.AddressString,
		"realtor_id", listing.RealtorID)
	p.audit(ctx, key, env)
	return nil
}

func (p *Processor) ingestStray(ctx context.Context, item model.QueueItem, key string, env domain.ClassificationEnvelope) error {
	taskKey := *env.Payload.TaskKey

	if dealType, promote := taskKey.PromotionDealType(); promote {
		listing, err := p.createListing(ctx, item, key, env, map[string]any{
			"dealType":     dealType,
			"promotedFrom": taskKey,
		})
		if err != nil {
			return err
		}
		p.logger.InfoContext(ctx, "promoted STRAY to listing",
			"listing_id", listing.ID,
			"deal_type", dealType,
			"task_key", taskKey)
		p.audit(ctx, key, env)
		return nil
	}

	realtor, err := p.deps.Users.Resolve(ctx, env.Source.SlackUserID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRealtorUnresolved, err)
	}

	inputs, err := json.Marshal(map[string]any{
		"slack": map[string]string{
			"userId":    env.Source.SlackUserID,
			"channelId": env.Source.ChannelID,
			"ts":        env.Source.TS,
		},
		"classification": env.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal task inputs: %w", err)
	}

	keyStr := string(taskKey)
	task := &model.AgentTask{
		ID:           uuid.NewString(),
		RealtorID:    realtor.ID,
		Name:         TaskTitle(env.Payload.TaskTitle, env.Source.Text),
		Status:       model.TaskStatusOpen,
		Priority:     0,
		DueDate:      ParseDueDate(env.Payload.DueDate, p.cfg.Location),
		TaskCategory: CategoryFor(taskKey),
		TaskKey:      &keyStr,
		Inputs:       inputs,
	}
	if env.Source.Text != "" {
		text := env.Source.Text
		task.Description = &text
	}

	var created *model.AgentTask
	err = p.deps.Tx.WithTx(ctx, func(sp service.StoreProvider) error {
		var err error
		if created, err = sp.AgentTasks().Create(ctx, task); err != nil {
			return fmt.Errorf("creating agent task: %w", err)
		}
		return markIngested(ctx, sp, item, key)
	})
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "created agent task",
		"task_id", created.ID,
		"realtor_id", created.RealtorID,
		"name", created.Name,
		"task_category", created.TaskCategory)
	p.audit(ctx, key, env)
	return nil
}

func (p *Processor) ingestInfoRequest(ctx context.Context, item model.QueueItem, key string, env domain.ClassificationEnvelope) error {
	if err := p.complete(ctx, item, key); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "INFO_REQUEST recorded for review",
		"explanations", env.Payload.Explanations)
	p.audit(ctx, key, env)
	return nil
}

// createListing resolves the realtor best-effort and inserts the listing in
// the same transaction that marks the item ingested.
func (p *Processor) createListing(ctx context.Context, item model.QueueItem, key string, env domain.ClassificationEnvelope, meta map[string]any) (*model.Listing, error) {
	var realtorID *string
	if env.Source.SlackUserID != "" {
		realtor, err := p.deps.Users.Resolve(ctx, env.Source.SlackUserID)
		if err != nil {
			p.logger.WarnContext(ctx, "realtor resolution failed, creating listing without realtor", "error", err)
		} else {
			realtorID = &realtor.ID
		}
	}

	metadata, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal listing metadata: %w", err)
	}

	listing := &model.Listing{
		ID:            uuid.NewString(),
		Type:          string(domain.ListingTypeSale),
		Status:        model.ListingStatusNew,
		AddressString: defaultListingAddress,
		RealtorID:     realtorID,
		DueDate:       ParseDueDate(env.Payload.DueDate, p.cfg.Location),
		Metadata:      metadata,
	}
	if t := env.Payload.Listing.Type; t != nil {
		listing.Type = string(*t)
	}
	if a := env.Payload.Listing.Address; a != nil && *a != "" {
		listing.AddressString = *a
	}

	var created *model.Listing
	err = p.deps.Tx.WithTx(ctx, func(sp service.StoreProvider) error {
		var err error
		if created, err = sp.Listings().Create(ctx, listing); err != nil {
			return fmt.Errorf("creating listing: %w", err)
		}
		return markIngested(ctx, sp, item, key)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// complete marks an item ingested without creating any record.
func (p *Processor) complete(ctx context.Context, item model.QueueItem, key string) error {
	return p.deps.Tx.WithTx(ctx, func(sp service.StoreProvider) error {
		return markIngested(ctx, sp, item, key)
	})
}

func markIngested(ctx context.Context, sp service.StoreProvider, item model.QueueItem, key string) error {
	if _, err := sp.IntakeEvents().Insert(ctx, key, SourceIntakeQueue); err != nil {
		return fmt.Errorf("recording ingested event: %w", err)
	}
	if err := sp.IntakeQueue().MarkProcessed(ctx, item.ID); err != nil {
		return fmt.Errorf("marking queue item processed: %w", err)
	}
	return nil
}

// audit writes the classification record. Failures are logged only.
func (p *Processor) audit(ctx context.Context, key string, env domain.ClassificationEnvelope) {
	if p.deps.Classifications == nil {
		return
	}

	payload, err := json.Marshal(env.Payload)
	if err != nil {
		p.logger.WarnContext(ctx, "marshal classification for audit failed", "error", err)
		return
	}

	record := &model.ClassificationRecord{
		ID:             id.New(),
		EventID:        key,
		UserID:         env.Source.SlackUserID,
		ChannelID:      env.Source.ChannelID,
		MessageTS:      env.Source.TS,
		Message:        env.Source.Text,
		Classification: payload,
		MessageType:    string(env.Payload.MessageType),
		TaskKey:        (*string)(env.Payload.TaskKey),
		GroupKey:       (*string)(env.Payload.GroupKey),
		AssigneeHint:   env.Payload.AssigneeHint,
		DueDate:        env.Payload.DueDate,
		Confidence:     env.Payload.Confidence,
	}
	if err := p.deps.Classifications.Insert(ctx, record); err != nil {
		p.logger.WarnContext(ctx, "writing classification audit record failed", "error", err)
	}
}
