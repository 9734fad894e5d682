package render

import (
	"regexp"
	"strings"
)

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]`)

// FileName derives the image file name for a username. Every rune outside
// [a-z0-9] of the lower-cased name becomes an underscore, so distinct names
// can map to the same file. An empty username maps to "_.png".
func FileName(username string) string {
	stem := unsafeFileChars.ReplaceAllString(strings.ToLower(username), "_")
	if stem == "" {
		stem = "_"
	}

	return stem + ".png"
}
