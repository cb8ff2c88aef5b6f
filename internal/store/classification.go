package store

import (
	"context"

	"archieos.app/intake/core/db/sqlc"
	"archieos.app/intake/internal/model"
)

type classificationStore struct {
	queries *sqlc.Queries
}

func newClassificationStore(queries *sqlc.Queries) ClassificationStore {
	return &classificationStore{queries: queries}
}

func (s *classificationStore) Insert(ctx context.Context, record *model.ClassificationRecord) error {
	return s.queries.InsertClassification(ctx, sqlc.InsertClassificationParams{
		ID:             record.ID,
		EventID:        record.EventID,
		UserID:         nonEmpty(record.UserID),
		ChannelID:      nonEmpty(record.ChannelID),
		MessageTs:      nonEmpty(record.MessageTS),
		Message:        nonEmpty(record.Message),
		Classification: []byte(record.Classification),
		MessageType:    record.MessageType,
		TaskKey:        record.TaskKey,
		GroupKey:       record.GroupKey,
		AssigneeHint:   record.AssigneeHint,
		DueDate:        record.DueDate,
		Confidence:     record.Confidence,
	})
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
