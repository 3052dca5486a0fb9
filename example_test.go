package cooknet_test

import (
	"fmt"
	"time"

	"github.com/aretw0/cooknet/pkg/caption"
	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/fsm"
)

// Example_submission walks one conversation through the submission machine
// without any transport or storage.
func Example_submission() {
	now := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	conv := *domain.NewConversation("42")

	conv, out := fsm.Begin(conv, now)
	fmt.Println(conv.Phase, out.Reply)

	conv, out = fsm.Step(conv, fsm.Input{Kind: domain.EventPhoto, PhotoRef: "file-1"}, now)
	fmt.Println(conv.Phase, out.Reply)

	conv, out = fsm.Step(conv, fsm.Input{Kind: domain.EventText, Text: "Pie"}, now)
	fmt.Println(conv.Phase, out.Reply)

	conv, out = fsm.Step(conv, fsm.Input{Kind: domain.EventText, Text: "Sweet apple pie", Author: "chef"}, now)
	fmt.Println(conv.Phase, out.Reply)
	fmt.Println(out.Draft.Caption)

	// Output:
	// awaiting_photo ask_photo
	// awaiting_title ask_title
	// awaiting_description ask_description
	// idle saved
	// Pie — Sweet apple pie
}

func Example_caption() {
	fmt.Println(caption.Generate("Borscht", ""))
	fmt.Println(caption.Generate("", ""))
	// Output:
	// Borscht —
	// Homemade hit from CookNet AI 😋
}
