package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/cooknet/internal/logging"
	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/fsm"
	"github.com/aretw0/cooknet/pkg/observability"
	"github.com/aretw0/cooknet/pkg/ports"
	"github.com/aretw0/cooknet/pkg/session"
	"github.com/aretw0/cooknet/pkg/throttle"
)

// TopLimit is how many recipes the "top" callback shows.
const TopLimit = 5

// Collaborators are the external services the bridge talks to.
type Collaborators struct {
	Recipes ports.RecipeRepository
	Users   ports.UserDirectory
	Invites ports.InviteBook
	// Photos is optional; without it photo URLs are never resolved.
	Photos ports.PhotoResolver
}

// Bridge routes normalized events to fixed commands or to the submission machine.
type Bridge struct {
	sessions *session.Manager
	guard    *throttle.Guard
	interval time.Duration
	collab   Collaborators

	siteURL      string
	photoTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithGuard sets the debounce guard and the interval applied to chat actions.
func WithGuard(guard *throttle.Guard, interval time.Duration) Option {
	return func(b *Bridge) {
		b.guard = guard
		b.interval = interval
	}
}

// WithSiteURL sets the public base URL used in invite links.
func WithSiteURL(url string) Option {
	return func(b *Bridge) {
		b.siteURL = strings.TrimRight(url, "/")
	}
}

// WithPhotoTimeout bounds photo URL resolution.
func WithPhotoTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.photoTimeout = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		b.now = now
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// NewBridge creates a bridge over the session manager and collaborators.
func NewBridge(sessions *session.Manager, collab Collaborators, opts ...Option) *Bridge {
	b := &Bridge{
		sessions:     sessions,
		collab:       collab,
		interval:     throttle.DefaultBotInterval,
		photoTimeout: 5 * time.Second,
		now:          time.Now,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.guard == nil {
		b.guard = throttle.New(throttle.NamespaceBot, throttle.WithClock(b.now))
	}
	return b
}

// OnEvent processes one event and returns exactly one Response.
// Any failure, including a panic, is logged and turned into a generic failure response.
func (b *Bridge) OnEvent(ctx context.Context, ev domain.Event) (resp domain.Response) {
	resp = domain.Response{ChatID: ev.ChatID, CallbackID: ev.CallbackID}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event processing panicked",
				"event_id", ev.ID,
				"identity", ev.Identity,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			b.metrics.DispatchFailure()
			resp = failureResponse(ev)
		}
	}()

	b.metrics.Event(string(ev.Kind))
	b.register(ctx, ev)

	var err error
	switch ev.Kind {
	case domain.EventCommand:
		err = b.onCommand(ctx, ev, &resp)
	case domain.EventCallback:
		err = b.onCallback(ctx, ev, &resp)
	default:
		err = b.onInput(ctx, ev, &resp)
	}

	if err != nil {
		b.logger.Error("Event processing failed",
			"event_id", ev.ID,
			"identity", ev.Identity,
			"kind", ev.Kind,
			"err", err,
		)
		b.metrics.DispatchFailure()
		return failureResponse(ev)
	}
	return resp
}

// register records the sender in the user directory. A "/start <code>" event
// from a new user redeems the invite first so the inviter is recorded.
func (b *Bridge) register(ctx context.Context, ev domain.Event) {
	if b.collab.Users == nil || ev.Identity == "" {
		return
	}

	invitedBy := ""
	if ev.Kind == domain.EventCommand && ev.Command == domain.CommandStart && ev.Args != "" && b.collab.Invites != nil {
		invitedBy = b.redeem(ctx, ev)
	}

	if err := b.collab.Users.RegisterUser(ctx, ev.Identity, ev.DisplayName(), invitedBy); err != nil {
		b.logger.Warn("User registration failed", "identity", ev.Identity, "err", err)
	}
}

// redeem counts an invite for a first-time user and returns its owner.
// Members that already joined do not use up codes.
func (b *Bridge) redeem(ctx context.Context, ev domain.Event) string {
	known, err := b.collab.Users.Registered(ctx, ev.Identity)
	if err != nil {
		b.logger.Warn("User lookup failed", "identity", ev.Identity, "err", err)
		return ""
	}
	if known {
		return ""
	}

	owner, err := b.collab.Invites.UseInvite(ctx, strings.TrimSpace(ev.Args))
	switch {
	case err == nil:
		return owner
	case errors.Is(err, domain.ErrInviteNotFound):
		b.logger.Debug("Unknown invite code", "identity", ev.Identity, "code", ev.Args)
	default:
		b.logger.Warn("Invite redemption failed", "identity", ev.Identity, "err", err)
	}
	return ""
}

func (b *Bridge) onCommand(ctx context.Context, ev domain.Event, resp *domain.Response) error {
	switch ev.Command {
	case domain.CommandStart:
		resp.Say(msgWelcome, domain.KeyboardMain)
		return nil
	case domain.CommandPing:
		resp.Say(msgPing, domain.KeyboardNone)
		return nil
	case domain.CommandHelp:
		resp.Say(msgHelp, domain.KeyboardMain)
		return nil
	case domain.CommandCancel:
		return b.cancel(ctx, ev, resp)
	default:
		// Unknown commands are plain text to the machine (e.g. a title starting with "/").
		text := "/" + ev.Command
		if ev.Args != "" {
			text += " " + ev.Args
		}
		ev.Kind = domain.EventText
		ev.Text = text
		return b.onInput(ctx, ev, resp)
	}
}

// cancel always succeeds, regardless of throttling.
func (b *Bridge) cancel(ctx context.Context, ev domain.Event, resp *domain.Response) error {
	return b.sessions.WithLock(ctx, ev.Identity, func(ctx context.Context, tx *session.Tx) error {
		conv, _, err := tx.Current(ctx)
		if err != nil {
			return err
		}
		next, out := fsm.Cancel(*conv)
		if err := tx.Set(ctx, &next); err != nil {
			return err
		}
		b.observe(ev, conv.Phase, next.Phase, out)
		b.reply(resp, out)
		return nil
	})
}

func (b *Bridge) onCallback(ctx context.Context, ev domain.Event, resp *domain.Response) error {
	switch ev.Data {
	case domain.CallbackAdd:
		return b.begin(ctx, ev, resp)
	case domain.CallbackTop:
		return b.top(ctx, ev, resp)
	case domain.CallbackInvite:
		return b.invite(ctx, ev, resp)
	default:
		b.logger.Debug("Unknown callback", "identity", ev.Identity, "data", ev.Data)
		return nil
	}
}

func (b *Bridge) begin(ctx context.Context, ev domain.Event, resp *domain.Response) error {
	return b.sessions.WithLock(ctx, ev.Identity, func(ctx context.Context, tx *session.Tx) error {
		conv, _, err := tx.Current(ctx)
		if err != nil {
			return err
		}
		if !b.allow(ctx, ev) {
			throttledNotice(resp)
			return nil
		}

		next, out := fsm.Begin(*conv, b.now())
		if err := tx.Set(ctx, &next); err != nil {
			return err
		}
		b.observe(ev, conv.Phase, next.Phase, out)
		b.reply(resp, out)
		return nil
	})
}

func (b *Bridge) top(ctx context.Context, ev domain.Event, resp *domain.Response) error {
	if !b.allow(ctx, ev) {
		throttledNotice(resp)
		return nil
	}

	recipes, err := b.collab.Recipes.TopRecipes(ctx, TopLimit)
	if err != nil {
		return fmt.Errorf("failed to load top recipes: %w", err)
	}
	if len(recipes) == 0 {
		resp.Say(msgTopEmpty, domain.KeyboardNone)
		return nil
	}
	for _, r := range recipes {
		resp.Messages = append(resp.Messages, domain.Message{
			Text:     RecipeCard(r),
			PhotoRef: r.PhotoRef,
		})
	}
	return nil
}

func (b *Bridge) invite(ctx context.Context, ev domain.Event, resp *domain.Response) error {
	code, err := b.collab.Invites.InviteFor(ctx, ev.DisplayName())
	if err != nil {
		return fmt.Errorf("failed to issue invite: %w", err)
	}
	resp.Say(fmt.Sprintf(msgInvite, b.siteURL+"/join/"+code), domain.KeyboardNone)
	return nil
}

// onInput feeds text, photos and other attachments to the machine.
// Order inside the lock: expiry, then throttling, then validation.
func (b *Bridge) onInput(ctx context.Context, ev domain.Event, resp *domain.Response) error {
	if ev.Kind == domain.EventText {
		clean, err := SanitizeInput(ev.Text)
		if err != nil {
			b.logger.Debug("Input rejected", "identity", ev.Identity, "err", err, "size", len(ev.Text))
			resp.Say(msgBadInput, domain.KeyboardNone)
			return nil
		}
		ev.Text = clean
	}

	photoURL := b.resolvePhoto(ctx, ev)

	return b.sessions.WithLock(ctx, ev.Identity, func(ctx context.Context, tx *session.Tx) error {
		conv, _, err := tx.Current(ctx)
		if err != nil {
			return err
		}
		if !b.allow(ctx, ev) {
			return nil
		}

		next, out := fsm.Step(*conv, fsm.InputFromEvent(ev, photoURL), b.now())
		if out.Draft != nil {
			b.persist(ctx, ev, *out.Draft)
		}
		if err := tx.Set(ctx, &next); err != nil {
			return err
		}
		b.observe(ev, conv.Phase, next.Phase, out)
		b.reply(resp, out)
		return nil
	})
}

// resolvePhoto looks up the photo URL outside the session lock, and only when the
// conversation is waiting for a photo. Failures leave the URL empty.
func (b *Bridge) resolvePhoto(ctx context.Context, ev domain.Event) string {
	if ev.Kind != domain.EventPhoto || ev.PhotoRef == "" || b.collab.Photos == nil {
		return ""
	}
	conv, err := b.sessions.Peek(ctx, ev.Identity)
	if err != nil || conv.Phase != domain.PhaseAwaitingPhoto {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, b.photoTimeout)
	defer cancel()

	url, err := b.collab.Photos.ResolvePhotoURL(ctx, ev.PhotoRef)
	if err != nil {
		b.logger.Debug("Photo URL resolution failed", "identity", ev.Identity, "err", err)
		return ""
	}
	return url
}

// persist hands the draft to the repository. Failures are logged and counted;
// the user still gets the confirmation because the conversation is already consumed.
func (b *Bridge) persist(ctx context.Context, ev domain.Event, draft domain.RecipeDraft) {
	id, err := b.collab.Recipes.SaveRecipe(ctx, draft)
	if err != nil {
		b.logger.Error("Failed to save recipe",
			"event_id", ev.ID,
			"identity", ev.Identity,
			"title", draft.Title,
			"err", err,
		)
		b.metrics.RecipeFailed()
		return
	}
	b.logger.Info("Recipe saved", "identity", ev.Identity, "recipe_id", id)
	b.metrics.RecipeSaved()
}

func (b *Bridge) allow(ctx context.Context, ev domain.Event) bool {
	if b.guard.Allow(ctx, ev.Identity, b.interval) {
		return true
	}
	b.logger.Debug("Action throttled", "identity", ev.Identity, "kind", ev.Kind)
	b.metrics.Throttled(b.guard.Namespace())
	return false
}

func (b *Bridge) observe(ev domain.Event, from, to domain.Phase, out fsm.Outcome) {
	if !out.Transitioned {
		return
	}
	b.logger.Debug("Transition",
		"event_id", ev.ID,
		"identity", ev.Identity,
		"from", from,
		"to", to,
	)
	b.metrics.Transition(string(from), string(to))
}

func (b *Bridge) reply(resp *domain.Response, out fsm.Outcome) {
	if msg, ok := replyFor(out); ok {
		resp.Messages = append(resp.Messages, msg)
	}
}

func throttledNotice(resp *domain.Response) {
	resp.Notice = noticeThrottled
	resp.Alert = true
}
