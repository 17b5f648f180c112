package settlement

import (
	"context"
	"sync"
	"time"
)

// Store persists payment intents keyed by intent id. Implementations must
// be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, intent *PaymentIntent) error
	Get(ctx context.Context, intentID string) (*PaymentIntent, error)
	// FindActive returns the non-terminal intent for a (caller, reference)
	// pair, or nil when none is outstanding.
	FindActive(ctx context.Context, callerID, reference string) (*PaymentIntent, error)
	Update(ctx context.Context, intent *PaymentIntent) error
	// ExpireTerminalBefore removes terminal intents last updated before the
	// cutoff and returns how many were removed.
	ExpireTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryStore is an in-memory Store. Terminal entries are retained until
// the coordinator's retention sweep removes them.
type MemoryStore struct {
	mu      sync.Mutex
	intents map[string]*PaymentIntent
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{intents: make(map[string]*PaymentIntent)}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, intent *PaymentIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[intent.IntentID] = intent.clone()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, intentID string) (*PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return nil, nil
	}
	return intent.clone(), nil
}

// FindActive implements Store.
func (s *MemoryStore) FindActive(_ context.Context, callerID, reference string) (*PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, intent := range s.intents {
		if intent.CallerID == callerID && intent.Reference == reference && !intent.State.Terminal() {
			return intent.clone(), nil
		}
	}
	return nil, nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, intent *PaymentIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[intent.IntentID] = intent.clone()
	return nil
}

// ExpireTerminalBefore implements Store.
func (s *MemoryStore) ExpireTerminalBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, intent := range s.intents {
		if intent.State.Terminal() && intent.UpdatedAt.Before(cutoff) {
			delete(s.intents, id)
			removed++
		}
	}
	return removed, nil
}
