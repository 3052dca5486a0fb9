package graph

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/aretw0/cooknet/pkg/fsm"
)

// Overlay contains live conversation data to visualize on the graph.
type Overlay struct {
	// Active counts conversations currently in each phase.
	Active map[domain.Phase]int
}

// Options tune the static part of the diagram.
type Options struct {
	// Timeout annotates the phases that expire.
	Timeout time.Duration
}

// GenerateMermaid produces a Mermaid flowchart of the submission machine.
// Idle is drawn as a circle, input phases as parallelograms. Cancel and expiry
// edges are dotted. Phases with live conversations are highlighted when an
// overlay is given.
func GenerateMermaid(phases []domain.Phase, transitions []fsm.Transition, opts Options, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, phase := range phases {
		safeID := sanitizeMermaidID(string(phase))

		opener, closer := "[/", "/]"
		if phase == domain.PhaseIdle {
			opener, closer = "((", "))"
		}

		label := string(phase)
		if phase != domain.PhaseIdle && opts.Timeout > 0 {
			label += " <br/> ⏱️ " + opts.Timeout.String()
		}
		if overlay != nil && overlay.Active[phase] > 0 {
			label += fmt.Sprintf(" <br/> 👤 %d", overlay.Active[phase])
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)
	}

	for _, t := range transitions {
		from, to := sanitizeMermaidID(string(t.From)), sanitizeMermaidID(string(t.To))
		on := strings.ReplaceAll(t.On, "\"", "'")

		arrow := fmt.Sprintf("-- \"%s\" -->", on)
		if isEscape(t) {
			arrow = fmt.Sprintf("-. \"%s\" .->", on)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, phase := range phases {
			if overlay.Active[phase] > 0 {
				fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(string(phase)))
			}
		}
	}

	return sb.String()
}

// isEscape reports edges that abandon a submission.
func isEscape(t fsm.Transition) bool {
	return t.On == "cancel" || t.On == "expired"
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
