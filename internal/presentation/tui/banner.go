package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the CookNet banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Warm gradient, tomato to saffron.
	lines := []struct {
		text  string
		color string
	}{
		{"   ___            _    _  _     _   ", "#ef4444"},
		{"  / __|___  ___  | |__| \\| |___| |_ ", "#f97316"},
		{" | (__/ _ \\/ _ \\ | / /| .` / -_)  _|", "#f59e0b"},
		{"  \\___\\___/\\___/ |_\\_\\|_|\\_\\___|\\__|", "#eab308"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
