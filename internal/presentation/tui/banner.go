package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the statelift banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"     _        _       _ _  __ _   ", "#34d399"},
		{" ___| |_ __ _| |_ ___| (_)/ _| |_ ", "#2dd4bf"},
		{"/ __| __/ _` | __/ _ \\ | | |_| __|", "#22d3ee"},
		{"\\__ \\ || (_| | ||  __/ | |  _| |_ ", "#38bdf8"},
		{"|___/\\__\\__,_|\\__\\___|_|_|_|  \\__|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
