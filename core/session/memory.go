package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process RecordStore with synchronous subscriber
// fan-out. It backs tests and single-process deployments; multi-device
// setups should use one of the integration stores.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	subs    map[string]map[int]*memorySubscription
	nextSub int
	closed  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		subs:    make(map[string]map[int]*memorySubscription),
	}
}

// Get implements RecordStore.
func (s *MemoryStore) Get(ctx context.Context, accountID string) (Record, error) {
	if accountID == "" {
		return Record{}, ErrMissingAccountID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	rec, ok := s.records[accountID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

// Merge implements RecordStore. Subscribers are notified with the post-merge
// record outside the store lock.
func (s *MemoryStore) Merge(ctx context.Context, accountID string, patch Patch) error {
	if accountID == "" {
		return ErrMissingAccountID
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}

	rec, ok := s.records[accountID]
	if !ok {
		rec = Record{AccountID: accountID}
	}
	rec = patch.Apply(rec)
	s.records[accountID] = rec

	var targets []*memorySubscription
	for _, sub := range s.subs[accountID] {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.notify(rec)
	}
	return nil
}

// Subscribe implements RecordStore.
func (s *MemoryStore) Subscribe(ctx context.Context, accountID string, onChange func(Record), onErr func(error)) (Subscription, error) {
	if accountID == "" {
		return nil, ErrMissingAccountID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	id := s.nextSub
	s.nextSub++

	sub := &memorySubscription{
		store:     s,
		accountID: accountID,
		id:        id,
		onChange:  onChange,
	}
	if s.subs[accountID] == nil {
		s.subs[accountID] = make(map[int]*memorySubscription)
	}
	s.subs[accountID][id] = sub
	return sub, nil
}

// Close releases the store and all live subscriptions.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[string]map[int]*memorySubscription)
	return nil
}

type memorySubscription struct {
	store     *MemoryStore
	accountID string
	id        int
	onChange  func(Record)
	once      sync.Once
	mu        sync.Mutex
	closed    bool
}

func (m *memorySubscription) notify(rec Record) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed || m.onChange == nil {
		return
	}
	m.onChange(rec)
}

// Close implements Subscription. Safe to call multiple times.
func (m *memorySubscription) Close() error {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()

		m.store.mu.Lock()
		if subs, ok := m.store.subs[m.accountID]; ok {
			delete(subs, m.id)
			if len(subs) == 0 {
				delete(m.store.subs, m.accountID)
			}
		}
		m.store.mu.Unlock()
	})
	return nil
}
