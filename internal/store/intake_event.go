package store

import (
	"context"

	"archieos.app/intake/core/db/sqlc"
)

type intakeEventStore struct {
	queries *sqlc.Queries
}

func newIntakeEventStore(queries *sqlc.Queries) IntakeEventStore {
	return &intakeEventStore{queries: queries}
}

func (s *intakeEventStore) Exists(ctx context.Context, eventID string) (bool, error) {
	return s.queries.IntakeEventExists(ctx, eventID)
}

func (s *intakeEventStore) Insert(ctx context.Context, eventID, source string) (bool, error) {
	rows, err := s.queries.InsertIntakeEvent(ctx, sqlc.InsertIntakeEventParams{
		EventID: eventID,
		Source:  source,
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return rows > 0, nil
}
