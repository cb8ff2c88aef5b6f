package intake_test

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
	"time"

	"archieos.app/intake/internal/domain"
	"archieos.app/intake/internal/model"
	"archieos.app/intake/internal/service"
	"archieos.app/intake/internal/store"
)

// memDB is an in-memory stand-in for the intake tables. WithTx restores
// the previous state when fn fails.
type memDB struct {
	mu sync.Mutex

	items     []model.QueueItem
	claimed   map[int64]bool
	processed map[int64]bool
	released  map[int64]string
	seen      map[string]string

	listings        []*model.Listing
	tasks           []*model.AgentTask
	classifications []*model.ClassificationRecord

	claimErr          error
	existsErr         error
	listingErr        error
	taskErr           error
	classificationErr error

	txCount     int
	claimLimits []int
}

func newMemDB() *memDB {
	return &memDB{
		claimed:   map[int64]bool{},
		processed: map[int64]bool{},
		released:  map[int64]string{},
		seen:      map[string]string{},
	}
}

func (m *memDB) addItem(id int64, envelope []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, model.QueueItem{ID: id, Envelope: envelope, CreatedAt: time.Now()})
}

func (m *memDB) IntakeEvents() store.IntakeEventStore       { return memEvents{m} }
func (m *memDB) IntakeQueue() store.IntakeQueueStore        { return memQueue{m} }
func (m *memDB) Listings() store.ListingStore               { return memListings{m} }
func (m *memDB) AgentTasks() store.AgentTaskStore           { return memTasks{m} }
func (m *memDB) Classifications() store.ClassificationStore { return memClassifications{m} }

func (m *memDB) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	m.mu.Lock()
	m.txCount++
	processed := maps.Clone(m.processed)
	seen := maps.Clone(m.seen)
	listings, tasks := len(m.listings), len(m.tasks)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.processed, m.seen = processed, seen
		m.listings, m.tasks = m.listings[:listings], m.tasks[:tasks]
		m.mu.Unlock()
		return err
	}
	return nil
}

type memEvents struct{ db *memDB }

func (s memEvents) Exists(ctx context.Context, eventID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.existsErr != nil {
		return false, s.db.existsErr
	}
	_, ok := s.db.seen[eventID]
	return ok, nil
}

func (s memEvents) Insert(ctx context.Context, eventID, source string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.seen[eventID]; ok {
		return false, nil
	}
	s.db.seen[eventID] = source
	return true, nil
}

type memQueue struct{ db *memDB }

func (s memQueue) Enqueue(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.items = append(s.db.items, *item)
	return item, nil
}

func (s memQueue) ClaimBatch(ctx context.Context, claimant string, limit int, lease time.Duration) ([]model.QueueItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.claimLimits = append(s.db.claimLimits, limit)
	if s.db.claimErr != nil {
		return nil, s.db.claimErr
	}
	var out []model.QueueItem
	for i := range s.db.items {
		item := &s.db.items[i]
		if s.db.processed[item.ID] || s.db.claimed[item.ID] {
			continue
		}
		if len(out) == limit {
			break
		}
		s.db.claimed[item.ID] = true
		item.Attempts++
		out = append(out, *item)
	}
	return out, nil
}

func (s memQueue) MarkProcessed(ctx context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.processed[id] = true
	delete(s.db.claimed, id)
	return nil
}

func (s memQueue) Release(ctx context.Context, id int64, errMsg string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.claimed, id)
	s.db.released[id] = errMsg
	return nil
}

func (s memQueue) ReleaseExpired(ctx context.Context, lease time.Duration) (int64, error) {
	return 0, nil
}

func (s memQueue) CountPending(ctx context.Context) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, item := range s.db.items {
		if !s.db.processed[item.ID] {
			n++
		}
	}
	return n, nil
}

type memListings struct{ db *memDB }

func (s memListings) Create(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.listingErr != nil {
		return nil, s.db.listingErr
	}
	s.db.listings = append(s.db.listings, listing)
	return listing, nil
}

type memTasks struct{ db *memDB }

func (s memTasks) Create(ctx context.Context, task *model.AgentTask) (*model.AgentTask, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.taskErr != nil {
		return nil, s.db.taskErr
	}
	s.db.tasks = append(s.db.tasks, task)
	return task, nil
}

type memClassifications struct{ db *memDB }

func (s memClassifications) Insert(ctx context.Context, record *model.ClassificationRecord) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.classificationErr != nil {
		return s.db.classificationErr
	}
	s.db.classifications = append(s.db.classifications, record)
	return nil
}

type mockResolver struct {
	resolveFn func(ctx context.Context, slackUserID string) (*model.Realtor, error)
	calls     int
}

func (m *mockResolver) Resolve(ctx context.Context, slackUserID string) (*model.Realtor, error) {
	m.calls++
	if m.resolveFn != nil {
		return m.resolveFn(ctx, slackUserID)
	}
	return &model.Realtor{ID: "realtor-" + slackUserID, Name: "User_" + slackUserID}, nil
}

func (m *mockResolver) Enrich(ctx context.Context, realtorID string, name, email, phone *string) (*model.Realtor, error) {
	return &model.Realtor{ID: realtorID}, nil
}

func envelopeJSON(text string, result domain.ClassificationResult) []byte {
	return envelopeJSONAt(text, "C100", "1762095600.000100", result)
}

func envelopeJSONAt(text, channelID, ts string, result domain.ClassificationResult) []byte {
	env := domain.NewEnvelope(domain.SlackMessage{
		Text:      text,
		UserID:    "U012ABCDEF",
		ChannelID: channelID,
		TS:        ts,
	}, result)
	data, err := json.Marshal(env)
	if err != nil {
		panic(err)
	}
	return data
}

func ptr[T any](v T) *T { return &v }
