package memory

import (
	"context"
	"sync"

	"github.com/aretw0/cooknet/pkg/domain"
)

// Store implements ports.ConversationStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Conversation
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Conversation),
	}
}

// Save persists the conversation in memory.
// Conversations are stored by value so callers can't mutate store state through the pointer.
func (s *Store) Save(ctx context.Context, identity string, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[identity] = *conv
	return nil
}

// Load retrieves a copy of the conversation.
func (s *Store) Load(ctx context.Context, identity string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.data[identity]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return &conv, nil
}

// Delete removes the conversation.
func (s *Store) Delete(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, identity)
	return nil
}

// List returns identities with a stored conversation.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
