package cooknet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/cooknet/internal/config"
	"github.com/aretw0/cooknet/internal/logging"
	httpAdapter "github.com/aretw0/cooknet/pkg/adapters/http"
	"github.com/aretw0/cooknet/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/cooknet/pkg/adapters/redis"
	"github.com/aretw0/cooknet/pkg/adapters/sqlite"
	"github.com/aretw0/cooknet/pkg/adapters/telegram"
	"github.com/aretw0/cooknet/pkg/dispatch"
	"github.com/aretw0/cooknet/pkg/observability"
	"github.com/aretw0/cooknet/pkg/ports"
	"github.com/aretw0/cooknet/pkg/session"
	"github.com/aretw0/cooknet/pkg/throttle"
)

// Config is the runtime configuration; see LoadConfig.
type Config = config.Config

// LoadConfig reads a YAML or JSON file overlaid by COOKNET_* environment variables.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return config.Default()
}

// App is the assembled CookNet server: webhook, queue workers and public site.
type App struct {
	cfg     Config
	logger  *slog.Logger
	metrics *observability.Metrics

	repo      *sqlite.Store
	redis     *backend.Client
	ownsRedis bool
	bot       telegram.BotAPI
	messenger *telegram.Messenger

	sessions *session.Manager
	bridge   *dispatch.Bridge
	queue    *dispatch.Queue
	handler  http.Handler

	closeOnce sync.Once
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithBot injects a Bot API client instead of connecting with the configured token.
func WithBot(bot telegram.BotAPI) Option {
	return func(a *App) {
		a.bot = bot
	}
}

// WithRedis uses an existing client for shared state instead of dialing redis_url.
func WithRedis(client *backend.Client) Option {
	return func(a *App) {
		a.redis = client
	}
}

// New assembles the application from cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{cfg: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = logging.NewNop()
	}
	app.metrics = observability.NewMetrics()

	repo, err := sqlite.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	app.repo = repo

	if app.redis == nil && cfg.RedisURL != "" {
		client, err := redisAdapter.Dial(ctx, cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.redis = client
		app.ownsRedis = true
	}

	if app.bot == nil && cfg.BotToken != "" {
		bot, err := telegram.Connect(cfg.BotToken)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.bot = bot
	}

	app.wire()
	return app, nil
}

func (a *App) wire() {
	var (
		conversations ports.ConversationStore = memory.NewStore()
		botMarks      ports.DebounceStore     = memory.NewDebounceStore()
		webMarks      ports.DebounceStore     = memory.NewDebounceStore()
		sessionOpts   = []session.Option{
			session.WithLogger(a.logger),
			session.WithTimeout(a.cfg.StateTimeout),
		}
	)
	if a.redis != nil {
		// Keys outlive the expiry check so a late event still sees the stale phase and resets it.
		conversations = redisAdapter.NewFromClient(a.redis, redisAdapter.WithTTL(2*a.cfg.StateTimeout))
		botMarks = redisAdapter.NewDebounceStore(a.redis, "cooknet:debounce:")
		webMarks = botMarks
		sessionOpts = append(sessionOpts, session.WithLocker(redisAdapter.NewLocker(a.redis, "cooknet:lock:"), 30*time.Second))
		a.logger.Info("Using redis for shared state")
	}

	a.sessions = session.NewManager(conversations, sessionOpts...)

	var (
		photos    ports.PhotoResolver
		fetcher   ports.PhotoFetcher
		messenger ports.Messenger
	)
	if a.bot != nil {
		a.messenger = telegram.NewMessenger(a.bot,
			telegram.WithSiteURL(a.cfg.BackendURL),
			telegram.WithLogger(a.logger),
		)
		photos, fetcher, messenger = a.messenger, a.messenger, a.messenger
	} else {
		a.logger.Warn("No bot token configured, chat responses are dropped")
	}

	botGuard := throttle.New(throttle.NamespaceBot,
		throttle.WithStore(botMarks),
		throttle.WithLogger(a.logger),
	)
	webGuard := throttle.New(throttle.NamespaceWeb,
		throttle.WithStore(webMarks),
		throttle.WithLogger(a.logger),
	)

	a.bridge = dispatch.NewBridge(a.sessions, dispatch.Collaborators{
		Recipes: a.repo,
		Users:   a.repo,
		Invites: a.repo,
		Photos:  photos,
	},
		dispatch.WithGuard(botGuard, a.cfg.BotInterval),
		dispatch.WithSiteURL(a.cfg.BackendURL),
		dispatch.WithLogger(a.logger),
		dispatch.WithMetrics(a.metrics),
	)

	a.queue = dispatch.NewQueue(a.bridge, messenger,
		dispatch.WithWorkers(a.cfg.Workers),
		dispatch.WithQueueSize(a.cfg.QueueSize),
		dispatch.WithQueueLogger(a.logger),
		dispatch.WithQueueMetrics(a.metrics),
	)

	a.handler = httpAdapter.NewHandler(&httpAdapter.Server{
		Repo:          a.repo,
		Events:        a.queue,
		Decode:        telegram.DecodeEvent,
		Guard:         webGuard,
		Metrics:       a.metrics,
		WebhookToken:  a.cfg.BotToken,
		WebInterval:   a.cfg.WebInterval,
		CaptchaAnswer: a.cfg.CaptchaAnswer,
		Version:       Version,
		Health:        a.repo,
		Photos:        fetcher,
		Logger:        a.logger,
	})
}

// Handler returns the HTTP handler (webhook, site, health, metrics).
func (a *App) Handler() http.Handler {
	return a.handler
}

// Bridge exposes the event bridge for hosts that feed events directly.
func (a *App) Bridge() *dispatch.Bridge {
	return a.bridge
}

// Sessions exposes the conversation manager.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Repository exposes the SQLite store.
func (a *App) Repository() *sqlite.Store {
	return a.repo
}

// Run serves HTTP and processes events until ctx is cancelled, then shuts down
// gracefully: the listener first, then the queue drains.
func (a *App) Run(ctx context.Context) error {
	queueCtx, stopQueue := context.WithCancel(context.WithoutCancel(ctx))
	defer stopQueue()

	queueDone := make(chan error, 1)
	go func() { queueDone <- a.queue.Run(queueCtx) }()

	switch {
	case a.messenger == nil:
	case a.cfg.BackendURL == "":
		a.logger.Warn("No backend_url configured, webhook not registered")
	default:
		if err := a.messenger.SetWebhook(a.cfg.WebhookURL()); err != nil {
			a.logger.Error("Webhook registration failed", "err", err)
		} else {
			a.logger.Info("Webhook registered", "backend", a.cfg.BackendURL)
		}
	}

	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting CookNet server", "addr", srv.Addr, "version", Version)
		serverErrors <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		a.logger.Info("Start shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				a.logger.Error("Error killing server", "err", err)
			}
		}
	}

	stopQueue()
	if err := <-queueDone; err != nil {
		a.logger.Warn("Queue did not drain", "err", err)
	}
	a.logger.Info("CookNet server stopped")
	return runErr
}

// Close releases the database and any redis client the App opened.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.repo != nil {
			errs = append(errs, a.repo.Close())
		}
		if a.redis != nil && a.ownsRedis {
			errs = append(errs, a.redis.Close())
		}
	})
	return errors.Join(errs...)
}
