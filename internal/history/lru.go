package history

import (
	"container/list"
	"sync"
)

// LRUStore keeps the most recently used records in memory and delegates to a
// backing Store on a miss.
type LRUStore struct {
	mu    sync.Mutex
	cap   int
	back  Store
	order *list.List // front is most recent; values are *Record
	items map[string]*list.Element
}

// NewLRUStore returns a cache of at most cap records in front of back.
func NewLRUStore(cap int, back Store) *LRUStore {
	if cap < 1 {
		cap = 1
	}
	return &LRUStore{
		cap:   cap,
		back:  back,
		order: list.New(),
		items: make(map[string]*list.Element, cap),
	}
}

// Save caches rec and writes it to the backing store.
func (s *LRUStore) Save(rec *Record) error {
	if err := s.back.Save(rec); err != nil {
		return err
	}
	s.mu.Lock()
	s.put(rec)
	s.mu.Unlock()
	return nil
}

// Load returns the cached record or reads it from the backing store.
func (s *LRUStore) Load(id string) (*Record, error) {
	s.mu.Lock()
	if e, ok := s.items[id]; ok {
		s.order.MoveToFront(e)
		rec := e.Value.(*Record)
		s.mu.Unlock()
		return rec, nil
	}
	s.mu.Unlock()

	rec, err := s.back.Load(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.put(rec)
	s.mu.Unlock()
	return rec, nil
}

// Len returns the number of cached records.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// put must be called with mu held.
func (s *LRUStore) put(rec *Record) {
	if e, ok := s.items[rec.ID]; ok {
		e.Value = rec
		s.order.MoveToFront(e)
		return
	}
	s.items[rec.ID] = s.order.PushFront(rec)
	for s.order.Len() > s.cap {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.items, oldest.Value.(*Record).ID)
	}
}
