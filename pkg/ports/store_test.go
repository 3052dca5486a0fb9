package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/ports"
)

// MockStore is a minimal map-backed ConversationStore used to exercise the contract itself.
type MockStore struct {
	data map[string]domain.Conversation
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.Conversation)}
}

func (m *MockStore) Save(ctx context.Context, identity string, conv *domain.Conversation) error {
	m.data[identity] = *conv
	return nil
}

func (m *MockStore) Load(ctx context.Context, identity string) (*domain.Conversation, error) {
	conv, ok := m.data[identity]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return &conv, nil
}

func (m *MockStore) Delete(ctx context.Context, identity string) error {
	delete(m.data, identity)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestConversationStore_Contract(t *testing.T) {
	ports.RunConversationStoreContract(t, NewMockStore())
}
