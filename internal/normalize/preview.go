package normalize

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// preview derives a one-line teaser from an email body: markup stripped,
// whitespace collapsed, cut after previewRunes runes.
func preview(body string) string {
	plain := strings.Join(strings.Fields(tagPattern.ReplaceAllString(body, " ")), " ")
	r := []rune(plain)
	if len(r) <= previewRunes {
		return plain
	}
	return string(r[:previewRunes]) + "..."
}
