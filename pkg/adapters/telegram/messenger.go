package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aretw0/cooknet/internal/logging"
	"github.com/aretw0/cooknet/pkg/domain"
)

// BotAPI is the subset of *tgbotapi.BotAPI used here.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Connect authenticates against the Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return bot, nil
}

// Messenger sends responses through the Bot API. It implements ports.Messenger,
// ports.PhotoResolver and ports.PhotoFetcher.
type Messenger struct {
	bot     BotAPI
	siteURL string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures the Messenger.
type Option func(*Messenger)

// WithSiteURL sets the public site linked from the main keyboard.
func WithSiteURL(url string) Option {
	return func(m *Messenger) {
		m.siteURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets the client used to download files.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Messenger) {
		m.client = client
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Messenger) {
		m.logger = logger
	}
}

// NewMessenger wraps a bot client.
func NewMessenger(bot BotAPI, opts ...Option) *Messenger {
	m := &Messenger{
		bot:    bot,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send answers the callback, if any, and delivers every message in order.
func (m *Messenger) Send(ctx context.Context, resp domain.Response) error {
	var errs []error

	if resp.CallbackID != "" {
		cb := tgbotapi.NewCallback(resp.CallbackID, resp.Notice)
		if resp.Alert {
			cb = tgbotapi.NewCallbackWithAlert(resp.CallbackID, resp.Notice)
		}
		if _, err := m.bot.Request(cb); err != nil {
			errs = append(errs, fmt.Errorf("failed to answer callback: %w", err))
		}
	}

	for _, msg := range resp.Messages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := m.send(resp.ChatID, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Messenger) send(chatID int64, msg domain.Message) error {
	if msg.PhotoRef != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(msg.PhotoRef))
		photo.Caption = msg.Text
		if kb, ok := m.keyboard(msg.Keyboard); ok {
			photo.ReplyMarkup = kb
		}
		_, err := m.bot.Send(photo)
		if err == nil {
			return nil
		}
		// The file may be gone; the text alone is still useful.
		m.logger.Warn("Photo send failed, falling back to text", "chat_id", chatID, "err", err)
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	if kb, ok := m.keyboard(msg.Keyboard); ok {
		out.ReplyMarkup = kb
	}
	if _, err := m.bot.Send(out); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (m *Messenger) keyboard(kb domain.Keyboard) (tgbotapi.InlineKeyboardMarkup, bool) {
	if kb != domain.KeyboardMain {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Add recipe", domain.CallbackAdd)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏆 Top of the week", domain.CallbackTop)),
	}
	if m.siteURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🌐 Open site", m.siteURL+"/recipes"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🤝 Invite", domain.CallbackInvite)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// ResolvePhotoURL checks that the file is downloadable and returns its address on
// the public site. Bot API file links embed the bot token, so they are never
// handed out; FetchPhoto follows them server-side instead.
func (m *Messenger) ResolvePhotoURL(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := m.bot.GetFileDirectURL(ref); err != nil {
		return "", fmt.Errorf("failed to resolve file %q: %w", ref, err)
	}
	return m.siteURL + domain.PhotoPath + url.PathEscape(ref), nil
}

// FetchPhoto downloads a file. The caller closes the body.
func (m *Messenger) FetchPhoto(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	direct, err := m.bot.GetFileDirectURL(ref)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve file %q: %w", ref, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, direct, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build file request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		// The transport error quotes the URL, token included.
		return nil, "", fmt.Errorf("failed to download file %q", ref)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("failed to download file %q: status %d", ref, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "image/jpeg"
	}
	return resp.Body, contentType, nil
}

// SetWebhook registers url as the update endpoint.
func (m *Messenger) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := m.bot.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	return nil
}
