package fsm

import "github.com/aretw0/cooknet/pkg/domain"

// Transition is one edge of the machine, used for documentation and diagrams.
type Transition struct {
	From domain.Phase
	To   domain.Phase
	On   string
}

// Phases lists the phases in dialogue order.
func Phases() []domain.Phase {
	return []domain.Phase{
		domain.PhaseIdle,
		domain.PhaseAwaitingPhoto,
		domain.PhaseAwaitingTitle,
		domain.PhaseAwaitingDescription,
	}
}

// Transitions lists every edge, including cancellation and expiry.
func Transitions() []Transition {
	return []Transition{
		{From: domain.PhaseIdle, To: domain.PhaseAwaitingPhoto, On: "add"},
		{From: domain.PhaseAwaitingPhoto, To: domain.PhaseAwaitingTitle, On: "photo"},
		{From: domain.PhaseAwaitingTitle, To: domain.PhaseAwaitingDescription, On: "title"},
		{From: domain.PhaseAwaitingDescription, To: domain.PhaseIdle, On: "description / save"},
		{From: domain.PhaseAwaitingPhoto, To: domain.PhaseIdle, On: "cancel"},
		{From: domain.PhaseAwaitingTitle, To: domain.PhaseIdle, On: "cancel"},
		{From: domain.PhaseAwaitingDescription, To: domain.PhaseIdle, On: "cancel"},
		{From: domain.PhaseAwaitingPhoto, To: domain.PhaseIdle, On: "expired"},
		{From: domain.PhaseAwaitingTitle, To: domain.PhaseIdle, On: "expired"},
		{From: domain.PhaseAwaitingDescription, To: domain.PhaseIdle, On: "expired"},
	}
}
