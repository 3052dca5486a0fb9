package dispatch

import (
	"fmt"
	"strings"

	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/fsm"
)

const (
	msgWelcome        = "👋 Hi! This is CookNet AI: share recipes and get inspired 🍳"
	msgHelp           = "Tap «Add recipe» to share a dish. Send /cancel at any time to stop, /start for the menu."
	msgPing           = "✅ Bot is alive!"
	msgAskPhoto       = "📸 Send a photo of the dish.\nCancel: /cancel"
	msgAskTitle       = "🍽 Enter the title:"
	msgAskDescription = "✍️ A short description:"
	msgSaved          = "✅ Saved!\n✨ %s"
	msgCancelled      = "❌ Cancelled."
	msgNeedPhoto      = "A photo is needed 📷. Send a photo or /cancel"
	msgNeedText       = "Please answer with text, or /cancel"
	msgEmptyTitle     = "The title can't be empty."
	msgIdleHint       = "Tap «Add recipe» to share a dish 🍳"
	msgBadInput       = "⚠️ That message can't be used, please send a shorter text."
	msgTopEmpty       = "Nothing here yet. Tap «Add recipe»."
	msgInvite         = "🤝 Your invite link:\n%s\nShare it with a friend!"
	msgFailure        = "⚠️ Something went wrong. Please try again."
	noticeThrottled   = "⏳ A bit later…"
)

// cardSummaryLimit bounds the text under a recipe card.
const cardSummaryLimit = 200

// replyFor renders the message for a state machine outcome.
func replyFor(out fsm.Outcome) (domain.Message, bool) {
	switch out.Reply {
	case fsm.ReplyAskPhoto:
		return domain.Message{Text: msgAskPhoto}, true
	case fsm.ReplyAskTitle:
		return domain.Message{Text: msgAskTitle}, true
	case fsm.ReplyAskDescription:
		return domain.Message{Text: msgAskDescription}, true
	case fsm.ReplySaved:
		return domain.Message{Text: fmt.Sprintf(msgSaved, out.Caption), Keyboard: domain.KeyboardMain}, true
	case fsm.ReplyCancelled:
		return domain.Message{Text: msgCancelled, Keyboard: domain.KeyboardMain}, true
	case fsm.ReplyNeedPhoto:
		return domain.Message{Text: msgNeedPhoto}, true
	case fsm.ReplyNeedText:
		return domain.Message{Text: msgNeedText}, true
	case fsm.ReplyEmptyTitle:
		return domain.Message{Text: msgEmptyTitle}, true
	case fsm.ReplyIdleHint:
		return domain.Message{Text: msgIdleHint, Keyboard: domain.KeyboardMain}, true
	default:
		return domain.Message{}, false
	}
}

// RecipeCard renders the text shown with a recipe in the chat.
func RecipeCard(r domain.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🍽 %s\n", r.Title)
	fmt.Fprintf(&b, "👤 @%s\n", r.Author)
	fmt.Fprintf(&b, "❤️ %d\n\n", r.Likes)

	summary := []rune(r.Summary())
	if len(summary) > cardSummaryLimit {
		summary = summary[:cardSummaryLimit]
	}
	b.WriteString(string(summary))
	return b.String()
}

func failureResponse(ev domain.Event) domain.Response {
	resp := domain.Response{ChatID: ev.ChatID, CallbackID: ev.CallbackID}
	resp.Say(msgFailure, domain.KeyboardNone)
	return resp
}
