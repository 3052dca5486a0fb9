package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cooknet/internal/logging"
	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates conversation access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.ConversationStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithTimeout sets how long a non-idle conversation may sit without progress.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new Manager over the given store.
func NewManager(store ports.ConversationStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		timeout: domain.DefaultStateTimeout,
		now:     time.Now,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timeout returns the configured expiry.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(identity) after unlocking.
func (m *Manager) acquire(identity string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[identity]
	if !exists {
		entry = &lockEntry{}
		m.locks[identity] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[identity]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, identity)
	}
}

// WithLock executes fn while holding the lock for the identity.
func (m *Manager) WithLock(ctx context.Context, identity string, fn func(ctx context.Context, tx *Tx) error) error {
	entry := m.acquire(identity)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(identity)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, identity, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"identity", identity,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx, &Tx{m: m, identity: identity})
}

// GetOrCreate returns the stored conversation or a fresh idle one.
// It does not apply expiry; see Tx.Current.
func (m *Manager) GetOrCreate(ctx context.Context, identity string) (*domain.Conversation, error) {
	var conv *domain.Conversation
	err := m.WithLock(ctx, identity, func(ctx context.Context, tx *Tx) error {
		var err error
		conv, err = tx.load(ctx)
		return err
	})
	return conv, err
}

// Set replaces the conversation of identity.
func (m *Manager) Set(ctx context.Context, identity string, conv *domain.Conversation) error {
	return m.WithLock(ctx, identity, func(ctx context.Context, tx *Tx) error {
		return tx.Set(ctx, conv)
	})
}

// Clear resets identity to idle, discarding collected data.
func (m *Manager) Clear(ctx context.Context, identity string) error {
	return m.WithLock(ctx, identity, func(ctx context.Context, tx *Tx) error {
		return tx.Clear(ctx)
	})
}

// Peek reads the conversation without locking, as it would be seen after expiry.
// The result may be stale by the time it is used; it is meant for decisions that
// are re-validated under the lock.
func (m *Manager) Peek(ctx context.Context, identity string) (*domain.Conversation, error) {
	conv, err := (&Tx{m: m, identity: identity}).load(ctx)
	if err != nil {
		return nil, err
	}
	if conv.Expired(m.now(), m.timeout) {
		return domain.NewConversation(identity), nil
	}
	return conv, nil
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Tx gives unlocked access to one identity's conversation inside WithLock.
type Tx struct {
	m        *Manager
	identity string
}

// Identity returns the identity the transaction is bound to.
func (tx *Tx) Identity() string {
	return tx.identity
}

// Current loads the conversation, discarding it first if it has expired.
// expired reports whether a stale conversation was dropped.
func (tx *Tx) Current(ctx context.Context) (conv *domain.Conversation, expired bool, err error) {
	conv, err = tx.load(ctx)
	if err != nil {
		return nil, false, err
	}
	if !conv.Expired(tx.m.now(), tx.m.timeout) {
		return conv, false, nil
	}

	tx.m.logger.Debug("Conversation expired",
		"identity", tx.identity,
		"phase", conv.Phase,
		"started_at", conv.StartedAt,
	)
	if err := tx.Clear(ctx); err != nil {
		return nil, false, err
	}
	return domain.NewConversation(tx.identity), true, nil
}

// Set stores conv. Idle conversations are not kept.
func (tx *Tx) Set(ctx context.Context, conv *domain.Conversation) error {
	if conv.IsIdle() {
		return tx.Clear(ctx)
	}
	conv.Identity = tx.identity
	if err := tx.m.store.Save(ctx, tx.identity, conv); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Clear drops the conversation; the next read returns a fresh idle one.
func (tx *Tx) Clear(ctx context.Context) error {
	if err := tx.m.store.Delete(ctx, tx.identity); err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	return nil
}

func (tx *Tx) load(ctx context.Context) (*domain.Conversation, error) {
	conv, err := tx.m.store.Load(ctx, tx.identity)
	if err == nil {
		return conv, nil
	}
	if errors.Is(err, domain.ErrConversationNotFound) {
		return domain.NewConversation(tx.identity), nil
	}
	return nil, fmt.Errorf("failed to load conversation: %w", err)
}
