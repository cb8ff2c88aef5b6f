package debounce_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"archieos.app/intake/internal/classifier"
	"archieos.app/intake/internal/debounce"
	"archieos.app/intake/internal/domain"
)

type recordingClassifier struct {
	mu      sync.Mutex
	msgs    []domain.SlackMessage
	panicOn string
}

func (r *recordingClassifier) ClassifyAndEnqueue(ctx context.Context, msg domain.SlackMessage) classifier.Outcome {
	if r.panicOn != "" && msg.Text == r.panicOn {
		panic("classifier exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return classifier.Outcome{Status: classifier.StatusEnqueued, QueueItemID: int64(len(r.msgs))}
}

func (r *recordingClassifier) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	texts := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		texts[i] = m.Text
	}
	return texts
}

func (r *recordingClassifier) Messages() []domain.SlackMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SlackMessage(nil), r.msgs...)
}

type flush struct {
	conversation string
	texts        []string
}

type flushRecorder struct {
	mu      sync.Mutex
	flushes []flush
}

func (f *flushRecorder) record(conversationID string, batch []domain.InboundEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	texts := make([]string, len(batch))
	for i, evt := range batch {
		if evt.Event != nil {
			texts[i] = evt.Event.Text
		}
	}
	f.flushes = append(f.flushes, flush{conversation: conversationID, texts: texts})
}

func (f *flushRecorder) Flushes() []flush {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]flush(nil), f.flushes...)
}

func messageEvent(channel, text, ts string) domain.InboundEvent {
	return domain.InboundEvent{
		Type:    domain.PayloadEventCallback,
		EventID: "Ev" + ts,
		Event: &domain.SlackEvent{
			Type:    "message",
			Text:    text,
			User:    "U012ABCDEF",
			Channel: domain.SlackID(channel),
			TS:      ts,
		},
	}
}

var _ = Describe("Buffer", func() {
	const window = 80 * time.Millisecond

	var (
		cls      *recordingClassifier
		recorder *flushRecorder
		buffer   *debounce.Buffer
	)

	BeforeEach(func() {
		cls = &recordingClassifier{}
		recorder = &flushRecorder{}
		buffer = debounce.New(debounce.Config{Window: window, OnFlush: recorder.record}, cls, nil)
	})

	AfterEach(func() {
		Expect(buffer.Shutdown(context.Background())).To(Succeed())
	})

	It("flushes a burst for one conversation once, in arrival order", func() {
		Expect(buffer.Enqueue(messageEvent("C1", "first message for the team", "1.1"))).To(Succeed())
		Expect(buffer.Enqueue(messageEvent("C1", "second message for the team", "1.2"))).To(Succeed())
		Expect(buffer.Enqueue(messageEvent("C1", "third message for the team", "1.3"))).To(Succeed())
		Expect(buffer.Pending()).To(Equal(3))

		Eventually(recorder.Flushes).Should(HaveLen(1))
		Consistently(recorder.Flushes, 2*window).Should(HaveLen(1))

		Expect(recorder.Flushes()[0]).To(Equal(flush{
			conversation: "C1",
			texts:        []string{"first message for the team", "second message for the team", "third message for the team"},
		}))
		Expect(cls.Texts()).To(Equal([]string{"first message for the team", "second message for the team", "third message for the team"}))
		Expect(buffer.Pending()).To(BeZero())
	})

	It("re-arms the timer on each new event", func() {
		start := time.Now()
		Expect(buffer.Enqueue(messageEvent("C1", "first message for the team", "1.1"))).To(Succeed())
		time.Sleep(window / 2)
		Expect(buffer.Enqueue(messageEvent("C1", "second message for the team", "1.2"))).To(Succeed())

		Eventually(recorder.Flushes).Should(HaveLen(1))
		Expect(time.Since(start)).To(BeNumerically(">=", window+window/2))
		Expect(recorder.Flushes()[0].texts).To(HaveLen(2))
	})

	It("keeps conversations independent", func() {
		Expect(buffer.Enqueue(messageEvent("C1", "c1 first message here", "1.1"))).To(Succeed())
		Expect(buffer.Enqueue(messageEvent("C2", "c2 only message here", "2.1"))).To(Succeed())
		time.Sleep(window / 2)
		Expect(buffer.Enqueue(messageEvent("C1", "c1 second message here", "1.2"))).To(Succeed())

		Eventually(recorder.Flushes).Should(HaveLen(1))
		Expect(recorder.Flushes()[0]).To(Equal(flush{conversation: "C2", texts: []string{"c2 only message here"}}))

		Eventually(recorder.Flushes).Should(HaveLen(2))
		Expect(recorder.Flushes()[1]).To(Equal(flush{
			conversation: "C1",
			texts:        []string{"c1 first message here", "c1 second message here"},
		}))
	})

	It("extracts links before classification", func() {
		Expect(buffer.Enqueue(messageEvent("C1", "Photos are up <https://photos.example.com/456|album>", "1.1"))).To(Succeed())

		Eventually(cls.Messages).Should(HaveLen(1))
		msg := cls.Messages()[0]
		Expect(msg.Links).To(Equal([]string{"https://photos.example.com/456"}))
		Expect(msg.ChannelID).To(Equal("C1"))
		Expect(msg.UserID).To(Equal("U012ABCDEF"))
		Expect(msg.TS).To(Equal("1.1"))
	})

	It("skips incomplete events without affecting siblings", func() {
		incomplete := messageEvent("C1", "", "1.1")
		Expect(buffer.Enqueue(incomplete)).To(Succeed())
		Expect(buffer.Enqueue(messageEvent("C1", "a complete message here", "1.2"))).To(Succeed())

		Eventually(recorder.Flushes).Should(HaveLen(1))
		Eventually(cls.Texts).Should(Equal([]string{"a complete message here"}))
	})

	It("isolates a panicking event from the rest of the batch", func() {
		cls.panicOn = "this one blows up"
		Expect(buffer.Enqueue(messageEvent("C1", "this one blows up", "1.1"))).To(Succeed())
		Expect(buffer.Enqueue(messageEvent("C1", "this one is fine though", "1.2"))).To(Succeed())

		Eventually(cls.Texts).Should(Equal([]string{"this one is fine though"}))
	})

	It("processes events without a conversation immediately", func() {
		evt := domain.InboundEvent{Type: domain.PayloadShortcut, CallbackID: "new_task", User: "U1"}

		Expect(buffer.Enqueue(evt)).To(Succeed())

		Expect(buffer.Pending()).To(BeZero())
		Expect(recorder.Flushes()).To(BeEmpty())
		Expect(cls.Texts()).To(BeEmpty())
	})

	It("buffers message actions under their channel", func() {
		evt := domain.InboundEvent{
			Type:     domain.PayloadMessageAction,
			ActionTS: "9.9",
			User:     "U777",
			Channel:  "C5",
			Message:  &domain.SlackEvent{Type: "message", Text: "please file this as a task", TS: "9.1"},
		}

		Expect(buffer.Enqueue(evt)).To(Succeed())

		Eventually(cls.Messages).Should(HaveLen(1))
		msg := cls.Messages()[0]
		Expect(msg.ChannelID).To(Equal("C5"))
		Expect(msg.UserID).To(Equal("U777"))
		Expect(msg.TS).To(Equal("9.9"))
	})

	Describe("Shutdown", func() {
		It("flushes buffered conversations without waiting for the window", func() {
			slow := debounce.New(debounce.Config{Window: time.Hour, OnFlush: recorder.record}, cls, nil)
			Expect(slow.Enqueue(messageEvent("C1", "c1 message waiting", "1.1"))).To(Succeed())
			Expect(slow.Enqueue(messageEvent("C2", "c2 message waiting", "2.1"))).To(Succeed())

			Expect(slow.Shutdown(context.Background())).To(Succeed())

			Expect(recorder.Flushes()).To(HaveLen(2))
			Expect(cls.Texts()).To(ConsistOf("c1 message waiting", "c2 message waiting"))
			Expect(slow.Pending()).To(BeZero())
		})

		It("rejects events after shutdown", func() {
			Expect(buffer.Shutdown(context.Background())).To(Succeed())
			Expect(buffer.Enqueue(messageEvent("C1", "too late for this", "1.1"))).To(MatchError(debounce.ErrClosed))
		})

		It("is safe to call twice", func() {
			Expect(buffer.Shutdown(context.Background())).To(Succeed())
			Expect(buffer.Shutdown(context.Background())).To(Succeed())
		})
	})
})
