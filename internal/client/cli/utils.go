package cli

import (
	"regexp"
	"strings"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// wordCount counts whitespace-separated words, with HTML tags stripped so
// markup in the content does not inflate the number.
func wordCount(s string) int {
	return len(strings.Fields(htmlTag.ReplaceAllString(s, " ")))
}
