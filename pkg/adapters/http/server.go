// Package http serves the Telegram webhook and the public CookNet site.
package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/cooknet/internal/logging"
	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/observability"
	"github.com/aretw0/cooknet/pkg/ports"
	"github.com/aretw0/cooknet/pkg/throttle"
)

// EventSubmitter accepts normalized events for asynchronous processing.
type EventSubmitter interface {
	Submit(ctx context.Context, ev domain.Event) error
}

// DecodeFunc turns a webhook body into an event. ok is false for updates to ignore.
type DecodeFunc func(r io.Reader) (ev domain.Event, ok bool, err error)

// Repository is everything the public site reads and writes.
type Repository interface {
	ports.RecipeRepository
	ports.UserDirectory
	ports.InviteBook
	ports.CommentBoard
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handlers' dependencies.
type Server struct {
	Repo    Repository
	Events  EventSubmitter
	Decode  DecodeFunc
	Guard   *throttle.Guard
	Metrics *observability.Metrics

	// WebhookToken is the secret path segment of the webhook route.
	WebhookToken  string
	WebInterval   time.Duration
	CaptchaAnswer string
	Version       string
	// Health, when set, is checked by GET /health.
	Health Pinger
	// Photos, when set, serves GET /photo/{ref}.
	Photos ports.PhotoFetcher

	Logger *slog.Logger
}

// NewHandler builds the router.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	if s.Guard == nil {
		s.Guard = throttle.New(throttle.NamespaceWeb)
	}
	if s.WebInterval == 0 {
		s.WebInterval = throttle.DefaultWebInterval
	}
	if s.CaptchaAnswer == "" {
		s.CaptchaAnswer = "5"
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.Logger))

	if s.Events != nil && s.Decode != nil && s.WebhookToken != "" {
		r.Post("/webhook/{token}", s.Webhook)
	}

	r.Get("/", s.Index)
	r.Get("/recipes", s.Recipes)
	r.Get("/recipe/{id:[0-9]+}", s.Recipe)
	r.Post("/like/{id:[0-9]+}", s.Like)
	r.Post("/comment/{id:[0-9]+}", s.Comment)
	r.Get("/chat", s.Chat)
	r.Post("/chat", s.PostChat)
	r.Get("/u/{username}", s.User)
	r.Get("/join/{code}", s.Join)
	r.Get(domain.PhotoPath+"{ref}", s.Photo)

	r.Get("/health", s.GetHealth)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if chi.URLParam(r, "token") != "" {
				path = "/webhook/***"
			}
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
