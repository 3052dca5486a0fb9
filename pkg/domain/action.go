package domain

// Keyboard selects the reply markup attached to a message.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	// KeyboardMain is the main menu: add recipe, top, open site, invite.
	KeyboardMain
)

// Message is a single outbound message.
type Message struct {
	Text string
	// PhotoRef, when set, sends a photo with Text as caption.
	PhotoRef string
	Keyboard Keyboard
}

// Response is everything the host should send back for one Event.
// A Response with no messages and no notice is silence.
type Response struct {
	ChatID int64

	// CallbackID echoes the callback being answered, if any.
	CallbackID string
	// Notice is shown as a callback answer.
	Notice string
	// Alert shows Notice as a modal alert instead of a toast.
	Alert bool

	Messages []Message
}

// Say appends a text message.
func (r *Response) Say(text string, kb Keyboard) {
	r.Messages = append(r.Messages, Message{Text: text, Keyboard: kb})
}

// IsSilent reports whether the response carries nothing to send.
func (r Response) IsSilent() bool {
	return len(r.Messages) == 0 && r.Notice == ""
}
