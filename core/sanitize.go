package core

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize strips all markup from untrusted remote text. The allow-list is
// empty, so every tag is removed rather than escaped and kept. It never
// panics and returns plain text suitable for embedding into a prompt.
func Sanitize(raw string) string {
	return html.UnescapeString(strictPolicy.Sanitize(raw))
}

// Quote prefixes every line of text with "> " so the model can tell quoted
// third-party content apart from instructional text.
func Quote(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
