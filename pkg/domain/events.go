package domain

import "time"

// EventKind classifies a normalized inbound event.
type EventKind string

const (
	EventCommand  EventKind = "command"
	EventText     EventKind = "text"
	EventPhoto    EventKind = "photo"
	EventCallback EventKind = "callback"
	// EventOther covers attachments the engine does not understand (stickers, voice, ...).
	EventOther EventKind = "other"
)

// Well-known commands.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
	CommandPing   = "ping"
	CommandHelp   = "help"
)

// Well-known callback payloads.
const (
	CallbackAdd    = "add"
	CallbackTop    = "top"
	CallbackInvite = "invite"
)

// Event is a transport-neutral inbound event.
type Event struct {
	// ID is a trace identifier assigned on receipt.
	ID string

	// Identity is the stable key of the sender.
	Identity string

	// Username is the public handle (may be empty).
	Username string

	// ChatID is the reply target.
	ChatID int64

	Kind EventKind

	// Command is set for EventCommand, without the leading slash.
	Command string
	// Args is the remainder of a command line.
	Args string

	// Text is set for EventText (and may be empty).
	Text string

	// PhotoRef is the opaque file reference of the largest photo size.
	PhotoRef string

	// CallbackID and Data are set for EventCallback.
	CallbackID string
	Data       string

	ReceivedAt time.Time
}

// DisplayName is the name used when registering the sender.
func (e Event) DisplayName() string {
	if e.Username != "" {
		return e.Username
	}
	return "id" + e.Identity
}

// Author is the name recorded on submitted recipes.
func (e Event) Author() string {
	if e.Username != "" {
		return e.Username
	}
	return "anon"
}
