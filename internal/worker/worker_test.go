package worker_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"archieos.app/intake/internal/queue"
	"archieos.app/intake/internal/worker"
)

var _ = Describe("Worker", func() {
	var (
		ctx    context.Context
		poller *mockPoller
	)

	BeforeEach(func() {
		ctx = context.Background()
		poller = &mockPoller{}
	})

	Describe("Drain", func() {
		It("stops after a partial batch", func() {
			results := []int{5, 5, 2}
			poller.pollFn = func(ctx context.Context, maxMessages int) (int, error) {
				Expect(maxMessages).To(Equal(5))
				n := results[0]
				results = results[1:]
				return n, nil
			}
			w := worker.New(nil, poller, worker.Config{BatchSize: 5})

			Expect(w.Drain(ctx)).To(Equal(12))
			Expect(poller.Calls()).To(Equal(3))
		})

		It("stops on a claim failure", func() {
			poller.pollFn = func(ctx context.Context, maxMessages int) (int, error) {
				return 0, errors.New("db down")
			}
			w := worker.New(nil, poller, worker.Config{BatchSize: 5})

			Expect(w.Drain(ctx)).To(Equal(0))
			Expect(poller.Calls()).To(Equal(1))
		})

		It("bounds back-to-back rounds", func() {
			poller.pollFn = func(ctx context.Context, maxMessages int) (int, error) {
				return maxMessages, nil
			}
			w := worker.New(nil, poller, worker.Config{BatchSize: 2, MaxRounds: 3})

			Expect(w.Drain(ctx)).To(Equal(6))
			Expect(poller.Calls()).To(Equal(3))
		})

		It("recovers from a panicking poll", func() {
			poller.pollFn = func(ctx context.Context, maxMessages int) (int, error) {
				panic("boom")
			}
			w := worker.New(nil, poller, worker.Config{BatchSize: 2})

			Expect(func() { w.Drain(ctx) }).NotTo(Panic())
		})

		It("reruns once when drains overlap", func() {
			release := make(chan struct{})
			started := make(chan struct{})
			var once sync.Once
			poller.pollFn = func(ctx context.Context, maxMessages int) (int, error) {
				first := false
				once.Do(func() {
					first = true
					close(started)
				})
				if first {
					<-release
					return 0, nil
				}
				return 1, nil
			}
			w := worker.New(nil, poller, worker.Config{BatchSize: 2})

			done := make(chan int)
			go func() { done <- w.Drain(ctx) }()
			Eventually(started).Should(BeClosed())

			Expect(w.Drain(ctx)).To(Equal(0))
			Expect(w.Drain(ctx)).To(Equal(0))
			close(release)

			Eventually(done).Should(Receive(Equal(1)))
			Expect(poller.Calls()).To(Equal(2))
		})

		It("does not rerun without an overlapping trigger", func() {
			w := worker.New(nil, poller, worker.Config{BatchSize: 2})

			Expect(w.Drain(ctx)).To(Equal(0))
			Expect(w.Drain(ctx)).To(Equal(0))
			Expect(poller.Calls()).To(Equal(2))
		})
	})

	Describe("Run", func() {
		It("drains and acks on wake messages", func() {
			wakes := &mockWakeSource{batches: [][]queue.Message{{
				{ID: "1-0", QueueItemID: 10, MessageType: "GROUP"},
				{ID: "2-0", QueueItemID: 11, MessageType: "STRAY"},
			}}}
			poller.pollFn = func(ctx context.Context, maxMessages int) (int, error) {
				return 2, nil
			}
			w := worker.New(wakes, poller, worker.Config{BatchSize: 25})

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() { _ = w.Run(runCtx) }()

			Eventually(wakes.Acked).Should(Equal([]string{"1-0", "2-0"}))
			Expect(poller.Calls()).To(Equal(1))
			w.Stop()
		})

		It("waits for shutdown when no wake stream is configured", func() {
			w := worker.New(nil, poller, worker.Config{})

			runCtx, cancel := context.WithCancel(ctx)
			errCh := make(chan error, 1)
			go func() { errCh <- w.Run(runCtx) }()

			Consistently(errCh, 20*time.Millisecond).ShouldNot(Receive())
			cancel()
			Eventually(errCh).Should(Receive(MatchError(context.Canceled)))
			Expect(poller.Calls()).To(Equal(0))
		})
	})
})

var _ = Describe("Reclaimer", func() {
	It("releases expired claims with the configured lease", func() {
		var gotLease time.Duration
		q := &mockQueueStore{releaseExpiredFn: func(ctx context.Context, lease time.Duration) (int64, error) {
			gotLease = lease
			return 3, nil
		}}
		stale := &mockStaleAcker{}
		r := worker.NewReclaimer(q, stale, worker.ReclaimerConfig{Lease: 2 * time.Minute})

		Expect(r.ReclaimOnce(context.Background())).To(Equal(int64(3)))
		Expect(gotLease).To(Equal(2 * time.Minute))
		Expect(stale.calls).To(Equal(1))
	})

	It("still clears stale wake-ups when releasing fails", func() {
		q := &mockQueueStore{releaseExpiredFn: func(ctx context.Context, lease time.Duration) (int64, error) {
			return 0, errors.New("timeout")
		}}
		stale := &mockStaleAcker{}
		r := worker.NewReclaimer(q, stale, worker.ReclaimerConfig{Lease: time.Minute})

		Expect(r.ReclaimOnce(context.Background())).To(Equal(int64(0)))
		Expect(stale.calls).To(Equal(1))
	})

	It("works without a wake stream", func() {
		r := worker.NewReclaimer(&mockQueueStore{}, nil, worker.ReclaimerConfig{Lease: time.Minute})
		Expect(r.ReclaimOnce(context.Background())).To(Equal(int64(0)))
	})
})
