package ports

import (
	"context"
	"time"

	"github.com/aretw0/cooknet/pkg/domain"
)

// ConversationStore defines the interface for holding conversation state.
// Implementations must be safe for concurrent use; per-identity atomicity is
// provided by the session manager, not by the store.
type ConversationStore interface {
	// Save persists the conversation for a given identity.
	Save(ctx context.Context, identity string, conv *domain.Conversation) error

	// Load retrieves the conversation for a given identity.
	// Returns domain.ErrConversationNotFound if there is none.
	Load(ctx context.Context, identity string) (*domain.Conversation, error)

	// Delete removes the conversation for a given identity.
	Delete(ctx context.Context, identity string) error

	// List returns the identities with stored conversations.
	List(ctx context.Context) ([]string, error)
}

// DebounceStore records the last action time per key.
type DebounceStore interface {
	// TryMark records now for key and returns true, unless the previous mark is
	// younger than interval, in which case it returns false and changes nothing.
	// The check and the write are atomic per key.
	TryMark(ctx context.Context, key string, now time.Time, interval time.Duration) (bool, error)
}
