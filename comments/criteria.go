package comments

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
)

// Theme selects the colour scheme used when rendering a comment.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme accepts exactly "dark" or "light".
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeDark:
		return ThemeDark, nil
	case ThemeLight:
		return ThemeLight, nil
	}

	return "", errors.Errorf("theme must be one of dark, light, found %q", s)
}

// Criteria holds the acceptance thresholds for a run. It is built once and
// only read afterwards.
type Criteria struct {
	SearchTerms   []string
	MinLikes      int
	MinReplies    int
	FilteredWords []string

	// MaxChars is the longest accepted content length, zero means unbounded.
	MaxChars int

	Theme Theme
}

// Match reports whether the comment content contains at least one of the
// search terms, ignoring case. No search terms means nothing matches.
func Match(comment *Comment, criteria *Criteria) bool {
	return containsAny(comment.Content, criteria.SearchTerms)
}

func containsAny(content string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}

	folded := fold(content)
	for _, term := range terms {
		if strings.Contains(folded, fold(term)) {
			return true
		}
	}

	return false
}

func fold(s string) string {
	return cases.Fold().String(s)
}
