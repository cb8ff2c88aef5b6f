package handler_test

import "context"

type mockIntakeProcessor struct {
	pollFn func(ctx context.Context, maxMessages int) (int, error)
	calls  []int
}

func (m *mockIntakeProcessor) PollAndIngestOnce(ctx context.Context, maxMessages int) (int, error) {
	m.calls = append(m.calls, maxMessages)
	if m.pollFn != nil {
		return m.pollFn(ctx, maxMessages)
	}
	return 0, nil
}
