// Package textlayout breaks caption text into lines that fit a pixel width.
package textlayout

import "strings"

// MeasureFunc reports the rendered width of s in pixels.
type MeasureFunc func(s string) float64

// Wrap upper-cases text and greedily packs its whitespace-separated words
// into lines no wider than maxWidth, as reported by measure.
//
// Every line keeps the trailing space appended while packing, so the
// measured width of a committed line is the width that was checked. A word
// that is wider than maxWidth on its own is never split; it gets a line to
// itself. The result always holds at least one line: empty or blank input
// yields a single empty line.
func Wrap(text string, maxWidth float64, measure MeasureFunc) []string {
	words := strings.Fields(strings.ToUpper(text))

	lines := make([]string, 0, 1)
	line := ""
	for _, word := range words {
		candidate := line + word + " "
		if measure(candidate) > maxWidth && line != "" {
			lines = append(lines, line)
			line = word + " "
			continue
		}
		line = candidate
	}
	return append(lines, line)
}
