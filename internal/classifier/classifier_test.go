package classifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"archieos.app/intake/common/llm"
	"archieos.app/intake/internal/classifier"
	"archieos.app/intake/internal/domain"
	"archieos.app/intake/internal/model"
)

const (
	groupResponse = `{"schema_version":1,"message_type":"GROUP","task_key":null,"group_key":"SALE_LISTING",
		"listing":{"type":"SALE","address":"456 Oak Ave"},"assignee_hint":null,"due_date":null,
		"task_title":null,"confidence":0.9,"explanations":null}`
	lowConfidenceResponse = `{"schema_version":1,"message_type":"STRAY","task_key":"OPS_MISC_TASK","group_key":null,
		"listing":{"type":null,"address":null},"assignee_hint":null,"due_date":null,
		"task_title":"Do something","confidence":0.4,"explanations":null}`
	ignoreResponse = `{"schema_version":1,"message_type":"IGNORE","task_key":null,"group_key":null,
		"listing":{"type":null,"address":null},"assignee_hint":null,"due_date":null,
		"task_title":null,"confidence":0.99,"explanations":["Irrelevant to operations"]}`
	invalidResponse = `{"schema_version":1,"message_type":"GROUP","task_key":"SALE_ACTIVE_TASKS","group_key":"SALE_LISTING",
		"listing":{"type":null,"address":null},"assignee_hint":null,"due_date":null,
		"task_title":null,"confidence":0.9,"explanations":null}`
)

var _ = Describe("Classifier", func() {
	var (
		ctx      context.Context
		client   *mockLLM
		queue    *mockQueueStore
		notifier *mockProducer
		cfg      classifier.Config
		msg      domain.SlackMessage
	)

	newClassifier := func() *classifier.Classifier {
		return classifier.New(client, queue, notifier, cfg, nil)
	}

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockLLM{chatFn: respondWith(groupResponse)}
		queue = &mockQueueStore{}
		notifier = &mockProducer{}
		cfg = classifier.Config{
			Enabled:       true,
			ConfidenceMin: 0.6,
			Location:      time.UTC,
			MaxAttempts:   2,
			RetryBackoff:  time.Millisecond,
		}
		msg = domain.SlackMessage{
			Text:      "New sale listing: 456 Oak Ave, asking $500k. Contact jane@example.com",
			UserID:    "U012ABCDEF",
			ChannelID: "C1",
			TS:        "1762095600.000100",
			Links:     []string{"https://mls.example.com/456-oak"},
		}
	})

	It("enqueues a confident GROUP classification", func() {
		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Status).To(Equal(classifier.StatusEnqueued))
		Expect(outcome.Enqueued()).To(BeTrue())
		Expect(outcome.Result.MessageType).To(Equal(domain.MessageTypeGroup))
		Expect(queue.items).To(HaveLen(1))

		item := queue.items[0]
		Expect(item.ID).NotTo(BeZero())
		Expect(outcome.QueueItemID).To(Equal(item.ID))
		Expect(item.IdempotencyKey).To(Equal("C1:1762095600.000100"))
		Expect(item.MessageType).To(Equal("GROUP"))

		var env domain.ClassificationEnvelope
		Expect(json.Unmarshal(item.Envelope, &env)).To(Succeed())
		Expect(env.Schema).To(Equal(domain.EnvelopeSchema))
		Expect(env.Source.Text).To(Equal(msg.Text))
		Expect(env.Source.SlackUserID).To(Equal("U012ABCDEF"))
		Expect(env.Links).To(Equal(msg.Links))
		Expect(*env.Payload.GroupKey).To(Equal(domain.GroupSaleListing))
		Expect(*env.Payload.Listing.Address).To(Equal("456 Oak Ave"))
	})

	It("publishes a wake message for the queued item", func() {
		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(notifier.messages).To(HaveLen(1))
		Expect(notifier.messages[0].QueueItemID).To(Equal(outcome.QueueItemID))
		Expect(notifier.messages[0].MessageType).To(Equal("GROUP"))
		Expect(notifier.messages[0].IdempotencyKey).To(Equal("C1:1762095600.000100"))
	})

	It("keeps the enqueue when the wake-up cannot be published", func() {
		notifier.err = errors.New("redis unavailable")

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Enqueued()).To(BeTrue())
		Expect(queue.items).To(HaveLen(1))
	})

	It("sends a redacted prompt with the schema", func() {
		newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(client.requests).To(HaveLen(1))
		req := client.requests[0]
		Expect(req.SchemaName).To(Equal("classification_v1"))
		Expect(req.Schema).NotTo(BeNil())
		Expect(req.SystemPrompt).To(ContainSubstring("SALE_LISTING"))

		last := req.Messages[len(req.Messages)-1]
		Expect(last.Role).To(Equal(llm.RoleUser))
		Expect(last.Content).To(ContainSubstring("[REDACTED_EMAIL]"))
		Expect(last.Content).NotTo(ContainSubstring("jane@example.com"))
		Expect(last.Content).To(ContainSubstring("https://mls.example.com/456-oak"))
	})

	It("skips without calling the model when disabled", func() {
		cfg.Enabled = false

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Status).To(Equal(classifier.StatusSkipped))
		Expect(outcome.Reason).To(Equal(classifier.SkipDisabled))
		Expect(client.Calls()).To(BeZero())
	})

	DescribeTable("prefilters casual chatter before the model",
		func(text string, reason classifier.SkipReason) {
			msg.Text = text

			outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

			Expect(outcome.Reason).To(Equal(reason))
			Expect(client.Calls()).To(BeZero())
			Expect(queue.items).To(BeEmpty())
		},
		Entry("ok", "ok", classifier.SkipTooShort),
		Entry("thanks!", "thanks!", classifier.SkipTooShort),
		Entry("thumbs up", "👍", classifier.SkipTooShort),
		Entry("gm", "gm", classifier.SkipTooShort),
		Entry("greeting", "Good afternoon!", classifier.SkipGreeting),
	)

	It("skips messages without identifiers", func() {
		msg.UserID = ""

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Reason).To(Equal(classifier.SkipMissingMetadata))
		Expect(client.Calls()).To(BeZero())
	})

	It("skips classifications below the confidence threshold", func() {
		client.chatFn = respondWith(lowConfidenceResponse)

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Reason).To(Equal(classifier.SkipLowConfidence))
		Expect(outcome.Result.Confidence).To(Equal(0.4))
		Expect(queue.items).To(BeEmpty())
	})

	It("skips IGNORE classifications", func() {
		client.chatFn = respondWith(ignoreResponse)

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Reason).To(Equal(classifier.SkipIgnored))
		Expect(queue.items).To(BeEmpty())
	})

	It("does not retry an output that violates the taxonomy", func() {
		client.chatFn = respondWith(invalidResponse)

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Reason).To(Equal(classifier.SkipModelError))
		Expect(client.Calls()).To(Equal(1))
	})

	It("does not retry schema mismatches", func() {
		client.chatFn = func(ctx context.Context, req llm.Request) (string, error) {
			return "", llm.ErrSchemaMismatch
		}

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Reason).To(Equal(classifier.SkipModelError))
		Expect(client.Calls()).To(Equal(1))
	})

	It("retries transient failures", func() {
		client.chatFn = func(ctx context.Context, req llm.Request) (string, error) {
			if client.Calls() == 1 {
				return "", errors.New("connection reset by peer")
			}
			return groupResponse, nil
		}

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Enqueued()).To(BeTrue())
		Expect(client.Calls()).To(Equal(2))
	})

	It("gives up after the configured attempts", func() {
		client.chatFn = func(ctx context.Context, req llm.Request) (string, error) {
			return "", errors.New("connection reset by peer")
		}

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Reason).To(Equal(classifier.SkipModelError))
		Expect(client.Calls()).To(Equal(2))
	})

	It("bounds each model call with the timeout", func() {
		cfg.Timeout = 20 * time.Millisecond
		client.chatFn = func(ctx context.Context, req llm.Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Reason).To(Equal(classifier.SkipModelError))
		Expect(client.Calls()).To(Equal(1))
	})

	It("reports enqueue failures as a skip", func() {
		queue.enqueueFn = func(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error) {
			return nil, errors.New("insert failed")
		}

		outcome := newClassifier().ClassifyAndEnqueue(ctx, msg)

		Expect(outcome.Status).To(Equal(classifier.StatusSkipped))
		Expect(outcome.Reason).To(Equal(classifier.SkipEnqueueFailed))
		Expect(outcome.Result).NotTo(BeNil())
		Expect(notifier.messages).To(BeEmpty())
	})
})
