package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner followed by the version line.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___  ___| |__   ___ _ __ ___   __ _  __ _  __ _| |_ ___ ", "#818cf8"},
		{" / __|/ __| '_ \\ / _ \\ '_ ` _ \\ / _` |/ _` |/ _` | __/ _ \\", "#a78bfa"},
		{" \\__ \\ (__| | | |  __/ | | | | | (_| | (_| | (_| | ||  __/", "#c084fc"},
		{" |___/\\___|_| |_|\\___|_| |_| |_|\\__,_|\\__, |\\__,_|\\__\\___|", "#e879f9"},
		{"                                      |___/               ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  version "+version).Faint())
	fmt.Fprintln(w)
}
