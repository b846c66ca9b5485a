package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Only parties running inside
// the same process can see each other's sessions; use the Postgres store when
// buyer and sellers run as separate processes.
type MemoryStore struct {
	mu        sync.Mutex
	store     map[string]*Session
	maxRounds int
	now       func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithMaxRounds caps AdvanceRound. Zero means no cap.
func WithMaxRounds(n int) MemoryOption {
	return func(m *MemoryStore) { m.maxRounds = n }
}

func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		store: make(map[string]*Session),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) Create(_ context.Context, id, product string, budget, minExpected float64, quantity int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; ok {
		return nil, ErrExists
	}
	if quantity <= 0 {
		quantity = 1
	}
	sess := &Session{
		ConversationID: id,
		ProductName:    product,
		Budget:         budget,
		MinExpected:    minExpected,
		Quantity:       quantity,
		Status:         StatusSearching,
		Offers:         make(map[string]Offer),
		StartedAt:      m.now(),
	}
	m.store[id] = sess
	return sess.clone(), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.clone(), nil
}

// live returns the session if it exists and can still be mutated. Caller holds mu.
func (m *MemoryStore) live(id string) (*Session, bool) {
	sess, ok := m.store[id]
	if !ok || sess.Completed() {
		return nil, false
	}
	return sess, true
}

func (m *MemoryStore) RecordOffer(_ context.Context, id string, offer Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.live(id)
	if !ok {
		return nil
	}
	offer.BundleItems = append([]string(nil), offer.BundleItems...)
	sess.Offers[offer.Seller] = offer
	return nil
}

func (m *MemoryStore) AppendHistory(_ context.Context, id, sender, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.live(id)
	if !ok {
		return nil
	}
	sess.History = append(sess.History, Turn{Sender: sender, Content: text, Timestamp: m.now()})
	if n := len(sess.History); n > HistoryLimit {
		sess.History = append([]Turn(nil), sess.History[n-HistoryLimit:]...)
	}
	return nil
}

func (m *MemoryStore) AddConstraint(_ context.Context, id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.live(id); ok {
		sess.ExtraConstraints = append(sess.ExtraConstraints, text)
	}
	return nil
}

func (m *MemoryStore) Begin(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.store[id]; ok && sess.Status == StatusSearching {
		sess.Status = StatusNegotiating
	}
	return nil
}

func (m *MemoryStore) AdvanceRound(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.store[id]
	if !ok {
		return 0, nil
	}
	if sess.Completed() || (m.maxRounds > 0 && sess.Round >= m.maxRounds) {
		return sess.Round, nil
	}
	sess.Round++
	return sess.Round, nil
}

func (m *MemoryStore) Complete(_ context.Context, id, winner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.live(id)
	if !ok {
		return nil
	}
	now := m.now()
	sess.Status = StatusCompleted
	sess.WinnerSeller = winner
	sess.CompletedAt = &now
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

func (m *MemoryStore) PurgeCompleted(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, sess := range m.store {
		if sess.Completed() && sess.CompletedAt != nil && sess.CompletedAt.Before(before) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}
