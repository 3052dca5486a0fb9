package fsm

import (
	"strings"
	"time"

	"github.com/aretw0/cooknet/pkg/caption"
	"github.com/aretw0/cooknet/pkg/domain"
)

// Reply identifies the message the host should send after a step.
type Reply int

const (
	ReplyNone Reply = iota
	ReplyAskPhoto
	ReplyAskTitle
	ReplyAskDescription
	ReplySaved
	ReplyCancelled
	ReplyNeedPhoto
	ReplyNeedText
	ReplyEmptyTitle
	ReplyIdleHint
)

var replyNames = map[Reply]string{
	ReplyNone:           "none",
	ReplyAskPhoto:       "ask_photo",
	ReplyAskTitle:       "ask_title",
	ReplyAskDescription: "ask_description",
	ReplySaved:          "saved",
	ReplyCancelled:      "cancelled",
	ReplyNeedPhoto:      "need_photo",
	ReplyNeedText:       "need_text",
	ReplyEmptyTitle:     "empty_title",
	ReplyIdleHint:       "idle_hint",
}

func (r Reply) String() string {
	if name, ok := replyNames[r]; ok {
		return name
	}
	return "unknown"
}

// Input is the part of an inbound event the machine consumes.
type Input struct {
	Kind     domain.EventKind
	Text     string
	PhotoRef string
	// PhotoURL is resolved by the host beforehand; empty when resolution failed.
	PhotoURL string
	Author   string
}

// InputFromEvent builds an Input from a normalized event.
func InputFromEvent(ev domain.Event, photoURL string) Input {
	return Input{
		Kind:     ev.Kind,
		Text:     ev.Text,
		PhotoRef: ev.PhotoRef,
		PhotoURL: photoURL,
		Author:   ev.Author(),
	}
}

// Outcome is the effect of a step.
type Outcome struct {
	Reply Reply
	// Transitioned is true when the phase changed.
	Transitioned bool
	// Draft is set only by the terminal transition and must be persisted by the host.
	Draft *domain.RecipeDraft
	// Caption is the generated caption of Draft.
	Caption string
}

// Begin starts a fresh submission, discarding any abandoned one.
func Begin(conv domain.Conversation, now time.Time) (domain.Conversation, Outcome) {
	next := domain.Conversation{
		Identity:  conv.Identity,
		Phase:     domain.PhaseAwaitingPhoto,
		StartedAt: now,
	}
	return next, Outcome{Reply: ReplyAskPhoto, Transitioned: true}
}

// Cancel returns to Idle from any phase, discarding collected data.
func Cancel(conv domain.Conversation) (domain.Conversation, Outcome) {
	next := domain.Conversation{Identity: conv.Identity, Phase: domain.PhaseIdle}
	return next, Outcome{Reply: ReplyCancelled, Transitioned: !conv.IsIdle()}
}

// Step feeds one input to the current phase.
func Step(conv domain.Conversation, in Input, now time.Time) (domain.Conversation, Outcome) {
	switch conv.Phase {
	case domain.PhaseAwaitingPhoto:
		return stepPhoto(conv, in, now)
	case domain.PhaseAwaitingTitle:
		return stepTitle(conv, in, now)
	case domain.PhaseAwaitingDescription:
		return stepDescription(conv, in)
	default:
		return conv, Outcome{Reply: ReplyIdleHint}
	}
}

func stepPhoto(conv domain.Conversation, in Input, now time.Time) (domain.Conversation, Outcome) {
	if in.Kind != domain.EventPhoto || in.PhotoRef == "" {
		return conv, Outcome{Reply: ReplyNeedPhoto}
	}

	conv.Collected.PhotoRef = in.PhotoRef
	conv.Collected.PhotoURL = in.PhotoURL
	conv.Phase = domain.PhaseAwaitingTitle
	conv.StartedAt = now
	return conv, Outcome{Reply: ReplyAskTitle, Transitioned: true}
}

func stepTitle(conv domain.Conversation, in Input, now time.Time) (domain.Conversation, Outcome) {
	if in.Kind != domain.EventText {
		return conv, Outcome{Reply: ReplyNeedText}
	}
	title := strings.TrimSpace(in.Text)
	if title == "" {
		return conv, Outcome{Reply: ReplyEmptyTitle}
	}

	conv.Collected.Title = title
	conv.Phase = domain.PhaseAwaitingDescription
	conv.StartedAt = now
	return conv, Outcome{Reply: ReplyAskDescription, Transitioned: true}
}

func stepDescription(conv domain.Conversation, in Input) (domain.Conversation, Outcome) {
	if in.Kind != domain.EventText {
		return conv, Outcome{Reply: ReplyNeedText}
	}
	description := strings.TrimSpace(in.Text)
	capt := caption.Generate(conv.Collected.Title, description)

	draft := &domain.RecipeDraft{
		Author:      in.Author,
		Title:       conv.Collected.Title,
		Description: description,
		PhotoRef:    conv.Collected.PhotoRef,
		PhotoURL:    conv.Collected.PhotoURL,
		Caption:     capt,
	}

	next := domain.Conversation{Identity: conv.Identity, Phase: domain.PhaseIdle}
	return next, Outcome{
		Reply:        ReplySaved,
		Transitioned: true,
		Draft:        draft,
		Caption:      capt,
	}
}
