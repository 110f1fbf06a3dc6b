package themes

import (
	"regexp"
	"strings"

	"github.com/mekonnen-dev/bankpulse/internal/model"
)

// minMatchLength is the shortest cleaned text worth matching; anything
// shorter can't meaningfully name a theme.
const minMatchLength = 10

// Matcher evaluates review text against the static theme table. It holds
// no mutable state and is safe for concurrent use.
type Matcher struct {
	categories []model.ThemeCategory
}

// NewMatcher creates a matcher over the given categories. Pass
// DefaultCategories() for the standard table.
func NewMatcher(categories []model.ThemeCategory) *Matcher {
	return &Matcher{categories: categories}
}

// Categories returns the matcher's category table.
func (m *Matcher) Categories() []model.ThemeCategory {
	return m.categories
}

// Match returns the themes whose keywords appear in the review text. A
// review can match zero, one, or several categories; results follow table
// order. The outcome depends only on (text, category table), never on what
// else is in the batch.
func (m *Matcher) Match(text string) []model.Theme {
	cleaned := matchText(text)
	if len(cleaned) < minMatchLength {
		return nil
	}

	var matched []model.Theme
	for _, cat := range m.categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(cleaned, kw) {
				matched = append(matched, cat.ID)
				break
			}
		}
	}
	return matched
}

var (
	urlRe        = regexp.MustCompile(`https?://\S+`)
	nonMatchRe   = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// matchText lowercases and strips URLs and special characters so keyword
// containment behaves predictably.
func matchText(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = urlRe.ReplaceAllString(t, "")
	t = nonMatchRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
