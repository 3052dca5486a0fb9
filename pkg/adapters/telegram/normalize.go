// Package telegram adapts the Telegram Bot API to CookNet events and responses.
package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aretw0/cooknet/pkg/domain"
)

// MaxUpdateSize bounds webhook bodies.
const MaxUpdateSize = 1 << 20

// DecodeEvent reads one webhook update and normalizes it.
// ok is false for updates CookNet does not handle (edits, channel posts, ...).
func DecodeEvent(r io.Reader) (ev domain.Event, ok bool, err error) {
	var update tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r, MaxUpdateSize)).Decode(&update); err != nil {
		return domain.Event{}, false, fmt.Errorf("failed to decode update: %w", err)
	}
	ev, ok = Normalize(update)
	return ev, ok, nil
}

// Normalize converts an update into a transport-neutral event.
func Normalize(update tgbotapi.Update) (domain.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		return normalizeCallback(update.CallbackQuery), true
	case update.Message != nil:
		return normalizeMessage(update.Message)
	default:
		return domain.Event{}, false
	}
}

func normalizeMessage(m *tgbotapi.Message) (domain.Event, bool) {
	if m.Chat == nil {
		return domain.Event{}, false
	}

	ev := domain.Event{
		ChatID:     m.Chat.ID,
		Identity:   strconv.FormatInt(m.Chat.ID, 10),
		ReceivedAt: messageTime(m),
	}
	if m.From != nil {
		ev.Identity = strconv.FormatInt(m.From.ID, 10)
		ev.Username = m.From.UserName
	}

	switch {
	case m.IsCommand():
		ev.Kind = domain.EventCommand
		ev.Command = m.Command()
		ev.Args = m.CommandArguments()
	case len(m.Photo) > 0:
		ev.Kind = domain.EventPhoto
		ev.PhotoRef = largestPhoto(m.Photo).FileID
		ev.Text = m.Caption
	case m.Text != "":
		ev.Kind = domain.EventText
		ev.Text = m.Text
	default:
		ev.Kind = domain.EventOther
	}
	return ev, true
}

func normalizeCallback(q *tgbotapi.CallbackQuery) domain.Event {
	ev := domain.Event{
		Kind:       domain.EventCallback,
		CallbackID: q.ID,
		Data:       q.Data,
		ReceivedAt: time.Now(),
	}
	if q.From != nil {
		ev.Identity = strconv.FormatInt(q.From.ID, 10)
		ev.Username = q.From.UserName
		ev.ChatID = q.From.ID
	}
	if q.Message != nil && q.Message.Chat != nil {
		ev.ChatID = q.Message.Chat.ID
	}
	return ev
}

// largestPhoto picks the biggest size; Telegram usually lists it last.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[len(sizes)-1]
	for _, p := range sizes {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}

func messageTime(m *tgbotapi.Message) time.Time {
	if m.Date == 0 {
		return time.Now()
	}
	return m.Time()
}
