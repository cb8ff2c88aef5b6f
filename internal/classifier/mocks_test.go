package classifier_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"archieos.app/intake/common/llm"
	"archieos.app/intake/internal/model"
	"archieos.app/intake/internal/queue"
)

type mockLLM struct {
	mu       sync.Mutex
	requests []llm.Request
	chatFn   func(ctx context.Context, req llm.Request) (string, error)
}

// respondWith returns a chatFn that replies with content on every call.
func respondWith(content string) func(ctx context.Context, req llm.Request) (string, error) {
	return func(ctx context.Context, req llm.Request) (string, error) {
		return content, nil
	}
}

func (m *mockLLM) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	content, err := m.chatFn(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), result); err != nil {
		return nil, err
	}
	return &llm.Response{Content: content, PromptTokens: 100, CompletionTokens: 20}, nil
}

func (m *mockLLM) Model() string    { return "test-model" }
func (m *mockLLM) Provider() string { return "test" }

func (m *mockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockQueueStore struct {
	mu        sync.Mutex
	items     []*model.QueueItem
	enqueueFn func(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error)
}

func (m *mockQueueStore) Enqueue(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error) {
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *item
	stored.CreatedAt = time.Now()
	m.items = append(m.items, &stored)
	return &stored, nil
}

func (m *mockQueueStore) ClaimBatch(ctx context.Context, claimant string, limit int, lease time.Duration) ([]model.QueueItem, error) {
	return nil, nil
}

func (m *mockQueueStore) MarkProcessed(ctx context.Context, id int64) error { return nil }

func (m *mockQueueStore) Release(ctx context.Context, id int64, errMsg string) error { return nil }

func (m *mockQueueStore) ReleaseExpired(ctx context.Context, lease time.Duration) (int64, error) {
	return 0, nil
}

func (m *mockQueueStore) CountPending(ctx context.Context) (int64, error) { return 0, nil }

type mockProducer struct {
	mu       sync.Mutex
	messages []queue.WakeMessage
	err      error
}

func (m *mockProducer) Notify(ctx context.Context, msg queue.WakeMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *mockProducer) Close() error { return nil }
