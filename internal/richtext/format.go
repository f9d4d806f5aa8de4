// Package richtext converts provider text into the HTML fragment carried on the
// wire and parses that fragment back into a closed set of display tokens.
package richtext

import (
	"regexp"
	"strings"
)

const (
	strongOpen  = "<strong>"
	strongClose = "</strong>"
	lineBreak   = "<br/>"
)

var boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

// FormatHTML replaces every **X** span with <strong>X</strong> and then every
// newline with <br/>. The text itself is not escaped.
func FormatHTML(raw string) string {
	out := boldPattern.ReplaceAllString(raw, strongOpen+"${1}"+strongClose)
	return strings.ReplaceAll(out, "\n", lineBreak)
}
