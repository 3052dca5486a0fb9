package dispatch

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/cooknet/internal/logging"
	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/observability"
	"github.com/aretw0/cooknet/pkg/ports"
)

var (
	ErrQueueFull   = errors.New("event queue is full")
	ErrQueueClosed = errors.New("event queue is closed")
)

// Handler processes one event. *Bridge satisfies it.
type Handler interface {
	OnEvent(ctx context.Context, ev domain.Event) domain.Response
}

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

// Queue decouples event receipt from processing. Events are sharded by identity
// so each identity is handled by a single worker, in arrival order.
type Queue struct {
	handler   Handler
	messenger ports.Messenger

	shards       []chan domain.Event
	submitWait   time.Duration
	drainTimeout time.Duration

	depth   atomic.Int64
	mu      sync.RWMutex
	closed  bool
	started atomic.Bool

	logger  *slog.Logger
	metrics *observability.Metrics
}

// QueueOption configures the Queue.
type QueueOption func(*queueConfig)

type queueConfig struct {
	workers      int
	size         int
	submitWait   time.Duration
	drainTimeout time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// WithWorkers sets the number of workers (shards).
func WithWorkers(n int) QueueOption {
	return func(c *queueConfig) {
		c.workers = n
	}
}

// WithQueueSize sets the total buffered capacity across workers.
func WithQueueSize(n int) QueueOption {
	return func(c *queueConfig) {
		c.size = n
	}
}

// WithSubmitWait bounds how long Submit blocks on a full shard.
func WithSubmitWait(d time.Duration) QueueOption {
	return func(c *queueConfig) {
		c.submitWait = d
	}
}

// WithDrainTimeout bounds how long Run keeps processing buffered events after cancellation.
func WithDrainTimeout(d time.Duration) QueueOption {
	return func(c *queueConfig) {
		c.drainTimeout = d
	}
}

// WithQueueLogger configures the structured logger.
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(c *queueConfig) {
		c.logger = logger
	}
}

// WithQueueMetrics enables queue depth and failure instrumentation.
func WithQueueMetrics(m *observability.Metrics) QueueOption {
	return func(c *queueConfig) {
		c.metrics = m
	}
}

// NewQueue creates a queue that hands events to handler and sends the responses through messenger.
func NewQueue(handler Handler, messenger ports.Messenger, opts ...QueueOption) *Queue {
	cfg := queueConfig{
		workers:      DefaultWorkers,
		size:         DefaultQueueSize,
		submitWait:   200 * time.Millisecond,
		drainTimeout: 10 * time.Second,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	perShard := cfg.size / cfg.workers
	if perShard < 1 {
		perShard = 1
	}

	q := &Queue{
		handler:      handler,
		messenger:    messenger,
		shards:       make([]chan domain.Event, cfg.workers),
		submitWait:   cfg.submitWait,
		drainTimeout: cfg.drainTimeout,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
	}
	for i := range q.shards {
		q.shards[i] = make(chan domain.Event, perShard)
	}
	return q
}

// Submit enqueues an event. It returns ErrQueueFull when the identity's shard
// stays full for longer than the submit wait.
func (q *Queue) Submit(ctx context.Context, ev domain.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	shard := q.shards[q.shardFor(ev.Identity)]
	select {
	case shard <- ev:
		q.metrics.QueueDepth(int(q.depth.Add(1)))
		return nil
	default:
	}

	timer := time.NewTimer(q.submitWait)
	defer timer.Stop()

	select {
	case shard <- ev:
		q.metrics.QueueDepth(int(q.depth.Add(1)))
		return nil
	case <-timer.C:
		q.logger.Warn("Event dropped, queue full", "event_id", ev.ID, "identity", ev.Identity)
		return ErrQueueFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth is the number of events waiting to be processed.
func (q *Queue) Depth() int {
	return int(q.depth.Load())
}

// Run starts the workers and blocks until ctx is cancelled. Buffered events are
// then drained, bounded by the drain timeout.
func (q *Queue) Run(ctx context.Context) error {
	if !q.started.CompareAndSwap(false, true) {
		return errors.New("queue already running")
	}

	var wg sync.WaitGroup
	for i, shard := range q.shards {
		wg.Add(1)
		go func(id int, events <-chan domain.Event) {
			defer wg.Done()
			for ev := range events {
				q.process(ctx, ev)
			}
			q.logger.Debug("Worker stopped", "worker", id)
		}(i, shard)
	}

	<-ctx.Done()
	q.close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(q.drainTimeout):
		q.logger.Warn("Queue drain timed out", "pending", q.Depth())
		return context.DeadlineExceeded
	}
}

func (q *Queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, shard := range q.shards {
		close(shard)
	}
}

func (q *Queue) process(parent context.Context, ev domain.Event) {
	// Processing outlives the run context so buffered events can finish during shutdown.
	ctx := context.WithoutCancel(parent)

	defer func() {
		q.metrics.QueueDepth(int(q.depth.Add(-1)))
		if r := recover(); r != nil {
			q.logger.Error("Worker panicked",
				"event_id", ev.ID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			q.metrics.DispatchFailure()
		}
	}()

	resp := q.handler.OnEvent(ctx, ev)
	if resp.IsSilent() && resp.CallbackID == "" {
		return
	}
	if q.messenger == nil {
		return
	}
	if err := q.messenger.Send(ctx, resp); err != nil {
		q.logger.Error("Failed to send response",
			"event_id", ev.ID,
			"identity", ev.Identity,
			"err", err,
		)
		q.metrics.DispatchFailure()
	}
}

func (q *Queue) shardFor(identity string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	return int(h.Sum32() % uint32(len(q.shards)))
}
