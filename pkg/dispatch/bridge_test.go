package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cooknet/pkg/adapters/memory"
	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/session"
	"github.com/aretw0/cooknet/pkg/throttle"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeRecipes struct {
	mu      sync.Mutex
	drafts  []domain.RecipeDraft
	top     []domain.Recipe
	saveErr error
	panics  bool
}

func (f *fakeRecipes) SaveRecipe(_ context.Context, d domain.RecipeDraft) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.drafts = append(f.drafts, d)
	return int64(len(f.drafts)), nil
}

func (f *fakeRecipes) Recipe(context.Context, int64) (*domain.Recipe, error) {
	return nil, domain.ErrRecipeNotFound
}

func (f *fakeRecipes) Recipes(context.Context, int) ([]domain.Recipe, error) { return nil, nil }

func (f *fakeRecipes) TopRecipes(_ context.Context, limit int) ([]domain.Recipe, error) {
	if f.panics {
		panic("boom")
	}
	if len(f.top) > limit {
		return f.top[:limit], nil
	}
	return f.top, nil
}

func (f *fakeRecipes) RecipesBy(context.Context, string, int) ([]domain.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipes) Like(context.Context, int64) error { return nil }

func (f *fakeRecipes) HasPhoto(context.Context, string) (bool, error) { return false, nil }

func (f *fakeRecipes) Drafts() []domain.RecipeDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RecipeDraft(nil), f.drafts...)
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]string // identity -> invitedBy
}

func (f *fakeUsers) RegisterUser(_ context.Context, identity, _ string, invitedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.users == nil {
		f.users = map[string]string{}
	}
	if _, ok := f.users[identity]; !ok {
		f.users[identity] = invitedBy
	}
	return nil
}

func (f *fakeUsers) Registered(_ context.Context, identity string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[identity]
	return ok, nil
}

func (f *fakeUsers) User(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

type fakeInvites struct {
	codes map[string]string // code -> owner
	uses  map[string]int
}

func (f *fakeInvites) InviteFor(_ context.Context, owner string) (string, error) {
	return "code-" + owner, nil
}

func (f *fakeInvites) UseInvite(_ context.Context, code string) (string, error) {
	owner, ok := f.codes[code]
	if !ok {
		return "", domain.ErrInviteNotFound
	}
	if f.uses == nil {
		f.uses = map[string]int{}
	}
	f.uses[code]++
	return owner, nil
}

type fakePhotos struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakePhotos) ResolvePhotoURL(_ context.Context, ref string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.test/" + ref + ".jpg", nil
}

type harness struct {
	bridge   *Bridge
	sessions *session.Manager
	clock    *testClock
	recipes  *fakeRecipes
	users    *fakeUsers
	invites  *fakeInvites
	photos   *fakePhotos
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		clock:   &testClock{now: time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)},
		recipes: &fakeRecipes{},
		users:   &fakeUsers{},
		invites: &fakeInvites{codes: map[string]string{"abc": "grandma"}},
		photos:  &fakePhotos{},
	}
	h.sessions = session.NewManager(memory.NewStore(), session.WithClock(h.clock.Now))
	guard := throttle.New(throttle.NamespaceBot, throttle.WithClock(h.clock.Now))

	h.bridge = NewBridge(h.sessions, Collaborators{
		Recipes: h.recipes,
		Users:   h.users,
		Invites: h.invites,
		Photos:  h.photos,
	},
		WithGuard(guard, 3*time.Second),
		WithClock(h.clock.Now),
		WithSiteURL("https://cook.test/"),
	)
	return h
}

func (h *harness) send(ev domain.Event) domain.Response {
	if ev.Identity == "" {
		ev.Identity = "42"
	}
	if ev.Username == "" {
		ev.Username = "chef"
	}
	ev.ChatID = 42
	return h.bridge.OnEvent(context.Background(), ev)
}

func (h *harness) phase(t *testing.T, identity string) domain.Phase {
	t.Helper()
	conv, err := h.sessions.Peek(context.Background(), identity)
	require.NoError(t, err)
	return conv.Phase
}

func callback(data string) domain.Event {
	return domain.Event{Kind: domain.EventCallback, CallbackID: "cb-" + data, Data: data}
}

func textEvent(s string) domain.Event {
	return domain.Event{Kind: domain.EventText, Text: s}
}

func photoEvent(ref string) domain.Event {
	return domain.Event{Kind: domain.EventPhoto, PhotoRef: ref}
}

func command(name string) domain.Event {
	return domain.Event{Kind: domain.EventCommand, Command: name}
}

func texts(resp domain.Response) []string {
	out := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, m.Text)
	}
	return out
}

func TestBridge_FullSubmission(t *testing.T) {
	h := newHarness(t)

	resp := h.send(callback(domain.CallbackAdd))
	assert.Equal(t, []string{msgAskPhoto}, texts(resp))
	assert.Equal(t, "cb-add", resp.CallbackID)

	h.clock.Advance(4 * time.Second)
	resp = h.send(photoEvent("file-1"))
	assert.Equal(t, []string{msgAskTitle}, texts(resp))

	h.clock.Advance(4 * time.Second)
	resp = h.send(textEvent("Pie"))
	assert.Equal(t, []string{msgAskDescription}, texts(resp))

	h.clock.Advance(4 * time.Second)
	resp = h.send(textEvent("Sweet apple pie"))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "✅ Saved!\n✨ Pie — Sweet apple pie", resp.Messages[0].Text)
	assert.Equal(t, domain.KeyboardMain, resp.Messages[0].Keyboard)

	drafts := h.recipes.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, domain.RecipeDraft{
		Author:      "chef",
		Title:       "Pie",
		Description: "Sweet apple pie",
		PhotoRef:    "file-1",
		PhotoURL:    "https://cdn.test/file-1.jpg",
		Caption:     "Pie — Sweet apple pie",
	}, drafts[0])
	assert.Equal(t, domain.PhaseIdle, h.phase(t, "42"))
}

func TestBridge_CancelIgnoresThrottle(t *testing.T) {
	h := newHarness(t)

	h.send(callback(domain.CallbackAdd))
	resp := h.send(command(domain.CommandCancel))

	assert.Equal(t, []string{msgCancelled}, texts(resp))
	assert.Equal(t, domain.PhaseIdle, h.phase(t, "42"))
}

func TestBridge_TextWhileWaitingForPhoto(t *testing.T) {
	h := newHarness(t)

	h.send(callback(domain.CallbackAdd))
	h.clock.Advance(4 * time.Second)

	resp := h.send(textEvent("here is my pie"))
	assert.Equal(t, []string{msgNeedPhoto}, texts(resp))
	assert.Equal(t, domain.PhaseAwaitingPhoto, h.phase(t, "42"))
	assert.Zero(t, h.photos.calls)
}

func TestBridge_ThrottledInputIsSilent(t *testing.T) {
	h := newHarness(t)

	h.send(callback(domain.CallbackAdd))
	resp := h.send(photoEvent("file-1"))

	assert.True(t, resp.IsSilent())
	assert.Equal(t, domain.PhaseAwaitingPhoto, h.phase(t, "42"))
}

func TestBridge_ConcurrentTitlesTransitionOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.sessions.Set(ctx, "42", &domain.Conversation{
		Phase:     domain.PhaseAwaitingTitle,
		Collected: domain.Collected{PhotoRef: "file-1"},
		StartedAt: h.clock.Now(),
	}))

	var wg sync.WaitGroup
	responses := make([]domain.Response, 2)
	for i := range responses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i] = h.send(textEvent(fmt.Sprintf("Title %d", i)))
		}(i)
	}
	wg.Wait()

	asked, silent := 0, 0
	for _, r := range responses {
		if r.IsSilent() {
			silent++
			continue
		}
		assert.Equal(t, []string{msgAskDescription}, texts(r))
		asked++
	}
	assert.Equal(t, 1, asked)
	assert.Equal(t, 1, silent)
	assert.Empty(t, h.recipes.Drafts())

	conv, err := h.sessions.Peek(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAwaitingDescription, conv.Phase)
	assert.True(t, strings.HasPrefix(conv.Collected.Title, "Title "))
}

func TestBridge_ExpiredConversationStartsFresh(t *testing.T) {
	h := newHarness(t)

	h.send(callback(domain.CallbackAdd))
	h.clock.Advance(domain.DefaultStateTimeout + time.Second)

	resp := h.send(photoEvent("late-photo"))
	assert.Equal(t, []string{msgIdleHint}, texts(resp))
	assert.Equal(t, domain.PhaseIdle, h.phase(t, "42"))
	assert.Zero(t, h.photos.calls, "photo URL is not resolved for an expired conversation")
}

func TestBridge_PersistenceFailureStillConfirms(t *testing.T) {
	h := newHarness(t)
	h.recipes.saveErr = errors.New("disk full")

	require.NoError(t, h.sessions.Set(context.Background(), "42", &domain.Conversation{
		Phase:     domain.PhaseAwaitingDescription,
		Collected: domain.Collected{PhotoRef: "p", Title: "Soup"},
		StartedAt: h.clock.Now(),
	}))

	resp := h.send(textEvent(""))
	assert.Equal(t, []string{"✅ Saved!\n✨ Soup —"}, texts(resp))
	assert.Equal(t, domain.PhaseIdle, h.phase(t, "42"))
}

func TestBridge_PanicBecomesFailureResponse(t *testing.T) {
	h := newHarness(t)
	h.recipes.panics = true

	resp := h.send(callback(domain.CallbackTop))
	assert.Equal(t, []string{msgFailure}, texts(resp))
	assert.Equal(t, "cb-top", resp.CallbackID)

	// The identity is still usable.
	h.clock.Advance(4 * time.Second)
	resp = h.send(callback(domain.CallbackAdd))
	assert.Equal(t, []string{msgAskPhoto}, texts(resp))
}

func TestBridge_ThrottledCallbackShowsNotice(t *testing.T) {
	h := newHarness(t)

	h.send(callback(domain.CallbackAdd))
	resp := h.send(callback(domain.CallbackAdd))

	assert.Empty(t, resp.Messages)
	assert.Equal(t, noticeThrottled, resp.Notice)
	assert.True(t, resp.Alert)
}

func TestBridge_TopRecipes(t *testing.T) {
	h := newHarness(t)

	resp := h.send(callback(domain.CallbackTop))
	assert.Equal(t, []string{msgTopEmpty}, texts(resp))

	for i := 0; i < 7; i++ {
		h.recipes.top = append(h.recipes.top, domain.Recipe{
			ID: int64(i + 1), Author: "chef", Title: fmt.Sprintf("Dish %d", i), PhotoRef: fmt.Sprintf("f%d", i),
		})
	}
	h.clock.Advance(4 * time.Second)
	resp = h.send(callback(domain.CallbackTop))
	require.Len(t, resp.Messages, TopLimit)
	assert.Equal(t, "f0", resp.Messages[0].PhotoRef)
	assert.Contains(t, resp.Messages[0].Text, "🍽 Dish 0")
}

func TestBridge_InviteLink(t *testing.T) {
	h := newHarness(t)

	resp := h.send(callback(domain.CallbackInvite))
	assert.Equal(t, []string{"🤝 Your invite link:\nhttps://cook.test/join/code-chef\nShare it with a friend!"}, texts(resp))
}

func TestBridge_StartWithInviteRegistersInviter(t *testing.T) {
	h := newHarness(t)

	ev := command(domain.CommandStart)
	ev.Args = "abc"
	ev.Identity = "7"
	resp := h.send(ev)

	assert.Equal(t, []string{msgWelcome}, texts(resp))
	assert.Equal(t, domain.KeyboardMain, resp.Messages[0].Keyboard)
	assert.Equal(t, "grandma", h.users.users["7"])

	bad := command(domain.CommandStart)
	bad.Args = "nope"
	bad.Identity = "8"
	h.send(bad)
	assert.Equal(t, "", h.users.users["8"])
}

func TestBridge_InviteCountsOnlyNewUsers(t *testing.T) {
	h := newHarness(t)

	ev := command(domain.CommandStart)
	ev.Args = "abc"
	ev.Identity = "7"
	h.send(ev)
	h.send(ev)
	assert.Equal(t, 1, h.invites.uses["abc"])

	// Already known through an earlier plain message.
	h.send(domain.Event{Identity: "9", Kind: domain.EventText, Text: "hi"})
	ev.Identity = "9"
	h.send(ev)
	assert.Equal(t, 1, h.invites.uses["abc"])
	assert.Equal(t, "", h.users.users["9"])
}

func TestBridge_PingAndUnknownCommand(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, []string{msgPing}, texts(h.send(command(domain.CommandPing))))

	require.NoError(t, h.sessions.Set(context.Background(), "42", &domain.Conversation{
		Phase:     domain.PhaseAwaitingTitle,
		Collected: domain.Collected{PhotoRef: "p"},
		StartedAt: h.clock.Now(),
	}))

	ev := command("shakshuka")
	ev.Args = "deluxe"
	resp := h.send(ev)
	assert.Equal(t, []string{msgAskDescription}, texts(resp))

	conv, err := h.sessions.Peek(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "/shakshuka deluxe", conv.Collected.Title)
}

func TestBridge_RejectsInvalidText(t *testing.T) {
	h := newHarness(t)

	resp := h.send(textEvent("bad \xff bytes"))
	assert.Equal(t, []string{msgBadInput}, texts(resp))
}

func TestBridge_AcceptsLongCyrillicDescription(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sessions.Set(context.Background(), "42", &domain.Conversation{
		Phase:     domain.PhaseAwaitingDescription,
		Collected: domain.Collected{PhotoRef: "p", Title: "Борщ"},
		StartedAt: h.clock.Now(),
	}))

	description := strings.Repeat("щ", 3000)
	resp := h.send(textEvent(description))
	require.Len(t, resp.Messages, 1)
	assert.NotEqual(t, msgBadInput, resp.Messages[0].Text)

	drafts := h.recipes.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, description, drafts[0].Description)
}

func TestBridge_PhotoResolutionFailureKeepsRef(t *testing.T) {
	h := newHarness(t)
	h.photos.err = errors.New("telegram down")

	h.send(callback(domain.CallbackAdd))
	h.clock.Advance(4 * time.Second)

	resp := h.send(photoEvent("file-2"))
	assert.Equal(t, []string{msgAskTitle}, texts(resp))

	conv, err := h.sessions.Peek(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "file-2", conv.Collected.PhotoRef)
	assert.Empty(t, conv.Collected.PhotoURL)
}
