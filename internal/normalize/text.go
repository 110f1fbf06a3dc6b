package normalize

import (
	"strings"
	"unicode"
)

// defaultBankingKeywords are domain terms whose presence keeps an
// otherwise-filtered review. Mixed-script reviews that name a banking
// concern are commercially valuable and must not be discarded.
var defaultBankingKeywords = []string{
	"login", "password", "otp", "pin",
	"transfer", "transaction", "payment", "deposit", "withdraw",
	"account", "balance", "atm", "branch", "bank",
	"app", "crash", "error", "network",
	"money", "birr",
}

// analyzable reports whether review text carries enough scoreable content:
// it must not be emoji-only, must not be predominantly non-Latin script,
// and must meet the minimum length, unless a banking keyword is present.
func (n *Normalizer) analyzable(text string) bool {
	if n.hasBankingKeyword(text) {
		return true
	}

	var letters, latin int
	var runes int
	for _, r := range strings.TrimSpace(text) {
		runes++
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Latin, r) {
				latin++
			}
		}
	}

	// Emoji-only or symbol-only content has no text to score.
	if letters == 0 {
		return false
	}

	// Predominantly non-Latin script falls outside what the classifier can
	// usefully score. Character-set ratio stands in for real language
	// detection here.
	if float64(latin)/float64(letters) < n.opts.MinLatinRatio {
		return false
	}

	return runes >= n.opts.MinTextLength
}

// hasBankingKeyword reports whether any configured domain keyword appears in
// the text, case-insensitively.
func (n *Normalizer) hasBankingKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range n.opts.BankingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// cleanText collapses repeated whitespace and strips control characters
// while preserving case and punctuation.
func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true // leading whitespace is dropped
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimRight(b.String(), " ")
}
