package store

import (
	"context"
	"sort"
	"time"

	"archieos.app/intake/core/db/sqlc"
	"archieos.app/intake/internal/model"
)

type intakeQueueStore struct {
	queries *sqlc.Queries
}

func newIntakeQueueStore(queries *sqlc.Queries) IntakeQueueStore {
	return &intakeQueueStore{queries: queries}
}

func (s *intakeQueueStore) Enqueue(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error) {
	row, err := s.queries.EnqueueIntakeItem(ctx, sqlc.EnqueueIntakeItemParams{
		ID:             item.ID,
		IdempotencyKey: item.IdempotencyKey,
		Envelope:       []byte(item.Envelope),
		MessageType:    item.MessageType,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toQueueItemModel(row), nil
}

func (s *intakeQueueStore) ClaimBatch(ctx context.Context, claimant string, limit int, lease time.Duration) ([]model.QueueItem, error) {
	rows, err := s.queries.ClaimIntakeBatch(ctx, sqlc.ClaimIntakeBatchParams{
		ClaimedBy:    &claimant,
		LeaseSeconds: lease.Seconds(),
		BatchLimit:   int32(limit),
	})
	if err != nil {
		return nil, err
	}

	// UPDATE ... RETURNING does not preserve the subquery order.
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].CreatedAt.Time, rows[j].CreatedAt.Time
		if a.Equal(b) {
			return rows[i].ID < rows[j].ID
		}
		return a.Before(b)
	})

	result := make([]model.QueueItem, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toQueueItemModel(row))
	}
	return result, nil
}

func (s *intakeQueueStore) MarkProcessed(ctx context.Context, id int64) error {
	return s.queries.MarkIntakeItemProcessed(ctx, id)
}

func (s *intakeQueueStore) Release(ctx context.Context, id int64, errMsg string) error {
	return s.queries.ReleaseIntakeItem(ctx, sqlc.ReleaseIntakeItemParams{
		ID:           id,
		ErrorMessage: &errMsg,
	})
}

func (s *intakeQueueStore) ReleaseExpired(ctx context.Context, lease time.Duration) (int64, error) {
	return s.queries.ReleaseExpiredIntakeClaims(ctx, lease.Seconds())
}

func (s *intakeQueueStore) CountPending(ctx context.Context) (int64, error) {
	return s.queries.CountPendingIntakeItems(ctx)
}

func toQueueItemModel(row sqlc.IntakeQueue) *model.QueueItem {
	return &model.QueueItem{
		ID:             row.ID,
		IdempotencyKey: row.IdempotencyKey,
		Envelope:       row.Envelope,
		MessageType:    row.MessageType,
		CreatedAt:      timeOrZero(row.CreatedAt),
		ClaimedAt:      timePtr(row.ClaimedAt),
		Attempts:       int(row.Attempts),
		ProcessedAt:    timePtr(row.ProcessedAt),
		ErrorMessage:   row.ErrorMessage,
	}
}
