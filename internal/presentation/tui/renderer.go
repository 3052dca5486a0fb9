package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/cooknet/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// With plain set the markdown is returned untouched, for pipes and files.
func NewRenderer(plain bool) func(string) (string, error) {
	if plain {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// RecipesMarkdown formats a leaderboard of recipes.
func RecipesMarkdown(heading string, recipes []domain.Recipe) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", heading)
	if len(recipes) == 0 {
		sb.WriteString("_No recipes yet._\n")
		return sb.String()
	}

	sb.WriteString("| # | Recipe | Author | Likes |\n")
	sb.WriteString("|---|--------|--------|-------|\n")
	for i, r := range recipes {
		fmt.Fprintf(&sb, "| %d | %s | @%s | %d |\n", i+1, escapeCell(r.Title), escapeCell(r.Author), r.Likes)
	}
	for _, r := range recipes {
		if summary := r.Summary(); summary != "" {
			fmt.Fprintf(&sb, "\n**%s**: %s\n", r.Title, summary)
		}
	}
	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
