package domain

import "time"

// Phase is the position of a user inside the submission dialogue.
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseAwaitingPhoto       Phase = "awaiting_photo"
	PhaseAwaitingTitle       Phase = "awaiting_title"
	PhaseAwaitingDescription Phase = "awaiting_description"
)

// DefaultStateTimeout is how long a non-idle conversation survives without progress.
const DefaultStateTimeout = 300 * time.Second

// Collected holds the partial recipe gathered so far.
// Empty strings mean the field has not been collected (or, for PhotoURL, could not be resolved).
type Collected struct {
	PhotoRef string `json:"photo_ref,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
	Title    string `json:"title,omitempty"`
}

// IsEmpty reports whether nothing has been collected.
func (c Collected) IsEmpty() bool {
	return c == Collected{}
}

// Conversation is the submission state of a single identity.
type Conversation struct {
	Identity  string    `json:"identity"`
	Phase     Phase     `json:"phase"`
	Collected Collected `json:"collected"`

	// StartedAt is reset on every successful transition.
	StartedAt time.Time `json:"started_at"`
}

// NewConversation returns an idle conversation for the identity.
func NewConversation(identity string) *Conversation {
	return &Conversation{
		Identity: identity,
		Phase:    PhaseIdle,
	}
}

// IsIdle reports whether no submission is in progress.
func (c *Conversation) IsIdle() bool {
	return c.Phase == PhaseIdle || c.Phase == ""
}

// Expired reports whether a non-idle conversation has outlived the timeout.
// Idle conversations never expire.
func (c *Conversation) Expired(now time.Time, timeout time.Duration) bool {
	if c.IsIdle() || c.StartedAt.IsZero() {
		return false
	}
	return now.Sub(c.StartedAt) > timeout
}
