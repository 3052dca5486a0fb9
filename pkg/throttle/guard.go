// Package throttle implements the debounce guard that rejects actions submitted
// too soon after the previous one from the same identity.
package throttle

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/cooknet/internal/logging"
	"github.com/aretw0/cooknet/pkg/adapters/memory"
	"github.com/aretw0/cooknet/pkg/ports"
)

// Namespaces keep the chat and web surfaces from starving each other.
const (
	NamespaceBot = "bot"
	NamespaceWeb = "web"
)

// Default intervals per namespace.
const (
	DefaultBotInterval = 3 * time.Second
	DefaultWebInterval = 2 * time.Second
)

// Guard gates actions per identity within one namespace.
type Guard struct {
	namespace string
	store     ports.DebounceStore
	now       func() time.Time
	logger    *slog.Logger
	onReject  func(namespace string)
}

// Option configures a Guard.
type Option func(*Guard)

// WithStore replaces the default in-memory store.
func WithStore(store ports.DebounceStore) Option {
	return func(g *Guard) {
		g.store = store
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithLogger configures a logger for store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithRejectHook is called every time an action is throttled.
func WithRejectHook(fn func(namespace string)) Option {
	return func(g *Guard) {
		g.onReject = fn
	}
}

// New creates a guard for the namespace.
func New(namespace string, opts ...Option) *Guard {
	g := &Guard{
		namespace: namespace,
		now:       time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.store == nil {
		g.store = memory.NewDebounceStore()
	}
	return g
}

// Namespace returns the namespace the guard tracks.
func (g *Guard) Namespace() string {
	return g.namespace
}

// Allow reports whether identity may act now. On success the current time is
// recorded as the identity's last action; a rejected call changes nothing.
// Store failures are logged and the action is allowed.
func (g *Guard) Allow(ctx context.Context, identity string, interval time.Duration) bool {
	ok, err := g.store.TryMark(ctx, g.namespace+":"+identity, g.now(), interval)
	if err != nil {
		g.logger.Warn("Debounce store failed, allowing action",
			"namespace", g.namespace,
			"identity", identity,
			"err", err,
		)
		return true
	}
	if !ok && g.onReject != nil {
		g.onReject(g.namespace)
	}
	return ok
}
