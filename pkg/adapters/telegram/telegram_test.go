package telegram_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cooknet/pkg/adapters/telegram"
	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/ports"
)

var (
	_ ports.Messenger     = (*telegram.Messenger)(nil)
	_ ports.PhotoResolver = (*telegram.Messenger)(nil)
	_ ports.PhotoFetcher  = (*telegram.Messenger)(nil)
)

type fakeBot struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	photoErr error
	fileURL  string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	if _, ok := c.(tgbotapi.PhotoConfig); ok && b.photoErr != nil {
		return tgbotapi.Message{}, b.photoErr
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	if b.fileURL == "" {
		return "", errors.New("file not found")
	}
	return b.fileURL + fileID, nil
}

func TestNormalize_Command(t *testing.T) {
	ev, ok := telegram.Normalize(tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 42, UserName: "chef"},
		Chat:     &tgbotapi.Chat{ID: 4200},
		Text:     "/start abc123",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}})

	require.True(t, ok)
	assert.Equal(t, domain.EventCommand, ev.Kind)
	assert.Equal(t, "start", ev.Command)
	assert.Equal(t, "abc123", ev.Args)
	assert.Equal(t, "42", ev.Identity)
	assert.Equal(t, "chef", ev.Username)
	assert.Equal(t, int64(4200), ev.ChatID)
}

func TestNormalize_PhotoPicksLargest(t *testing.T) {
	ev, ok := telegram.Normalize(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42},
		Chat: &tgbotapi.Chat{ID: 42},
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90, Height: 90},
			{FileID: "large", Width: 1280, Height: 960},
			{FileID: "medium", Width: 320, Height: 240},
		},
	}})

	require.True(t, ok)
	assert.Equal(t, domain.EventPhoto, ev.Kind)
	assert.Equal(t, "large", ev.PhotoRef)
	assert.Equal(t, "id42", ev.DisplayName())
}

func TestNormalize_TextAndOther(t *testing.T) {
	ev, ok := telegram.Normalize(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}, Text: "Pie",
	}})
	require.True(t, ok)
	assert.Equal(t, domain.EventText, ev.Kind)
	assert.Equal(t, "Pie", ev.Text)

	ev, ok = telegram.Normalize(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}, Sticker: &tgbotapi.Sticker{FileID: "s"},
	}})
	require.True(t, ok)
	assert.Equal(t, domain.EventOther, ev.Kind)

	_, ok = telegram.Normalize(tgbotapi.Update{EditedMessage: &tgbotapi.Message{Text: "edit"}})
	assert.False(t, ok)
}

func TestNormalize_Callback(t *testing.T) {
	ev, ok := telegram.Normalize(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 42, UserName: "chef"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 4200}},
		Data:    "add",
	}})

	require.True(t, ok)
	assert.Equal(t, domain.EventCallback, ev.Kind)
	assert.Equal(t, "cb1", ev.CallbackID)
	assert.Equal(t, domain.CallbackAdd, ev.Data)
	assert.Equal(t, int64(4200), ev.ChatID)
}

func TestDecodeEvent(t *testing.T) {
	body := `{"update_id":1,"message":{"message_id":5,"date":1767225600,"from":{"id":7,"is_bot":false,"first_name":"A","username":"ann"},"chat":{"id":7,"type":"private"},"text":"hello"}}`

	ev, ok, err := telegram.DecodeEvent(strings.NewReader(body))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "7", ev.Identity)
	assert.Equal(t, "ann", ev.Username)
	assert.Equal(t, "hello", ev.Text)
	assert.Equal(t, int64(1767225600), ev.ReceivedAt.Unix())

	_, _, err = telegram.DecodeEvent(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestMessenger_Send(t *testing.T) {
	bot := &fakeBot{}
	m := telegram.NewMessenger(bot, telegram.WithSiteURL("https://cook.test/"))

	resp := domain.Response{ChatID: 42, CallbackID: "cb1", Notice: "⏳", Alert: true}
	resp.Say("hello", domain.KeyboardMain)
	resp.Messages = append(resp.Messages, domain.Message{Text: "card", PhotoRef: "file-1"})

	require.NoError(t, m.Send(context.Background(), resp))

	require.Len(t, bot.requests, 1)
	cb, ok := bot.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.True(t, cb.ShowAlert)
	assert.Equal(t, "⏳", cb.Text)

	require.Len(t, bot.sent, 2)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Text)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 4)
	require.NotNil(t, kb.InlineKeyboard[2][0].URL)
	assert.Equal(t, "https://cook.test/recipes", *kb.InlineKeyboard[2][0].URL)

	photo, ok := bot.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "card", photo.Caption)
}

func TestMessenger_PhotoFallsBackToText(t *testing.T) {
	bot := &fakeBot{photoErr: errors.New("wrong file identifier")}
	m := telegram.NewMessenger(bot)

	resp := domain.Response{ChatID: 42, Messages: []domain.Message{{Text: "card", PhotoRef: "gone"}}}
	require.NoError(t, m.Send(context.Background(), resp))

	require.Len(t, bot.sent, 2)
	msg, ok := bot.sent[1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "card", msg.Text)
}

func TestMessenger_ResolvePhotoURL(t *testing.T) {
	bot := &fakeBot{fileURL: "https://api.telegram.test/file/bot123:secret/"}
	m := telegram.NewMessenger(bot, telegram.WithSiteURL("https://cook.test/"))
	url, err := m.ResolvePhotoURL(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "https://cook.test/photo/f1", url)
	assert.NotContains(t, url, "secret")

	url, err = telegram.NewMessenger(bot).ResolvePhotoURL(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/photo/a%2Fb", url)

	_, err = telegram.NewMessenger(&fakeBot{}).ResolvePhotoURL(context.Background(), "f1")
	assert.Error(t, err)
}

func TestMessenger_FetchPhoto(t *testing.T) {
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file/bot123:secret/f1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer files.Close()

	m := telegram.NewMessenger(&fakeBot{fileURL: files.URL + "/file/bot123:secret/"},
		telegram.WithHTTPClient(files.Client()),
	)

	body, contentType, err := m.FetchPhoto(context.Background(), "f1")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", contentType)

	_, _, err = m.FetchPhoto(context.Background(), "gone")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestMessenger_SetWebhook(t *testing.T) {
	bot := &fakeBot{}
	m := telegram.NewMessenger(bot)

	require.NoError(t, m.SetWebhook("https://cook.test/webhook/token"))
	require.Len(t, bot.requests, 1)
	_, ok := bot.requests[0].(tgbotapi.WebhookConfig)
	assert.True(t, ok)
}
