package store

import (
	"archieos.app/intake/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) IntakeEvents() IntakeEventStore {
	return newIntakeEventStore(s.queries)
}

func (s *Stores) IntakeQueue() IntakeQueueStore {
	return newIntakeQueueStore(s.queries)
}

func (s *Stores) Realtors() RealtorStore {
	return newRealtorStore(s.queries)
}

func (s *Stores) Listings() ListingStore {
	return newListingStore(s.queries)
}

func (s *Stores) AgentTasks() AgentTaskStore {
	return newAgentTaskStore(s.queries)
}

func (s *Stores) Classifications() ClassificationStore {
	return newClassificationStore(s.queries)
}
