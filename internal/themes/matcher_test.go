package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekonnen-dev/bankpulse/internal/model"
)

func TestMatcher_Match(t *testing.T) {
	matcher := NewMatcher(DefaultCategories())

	tests := []struct {
		name string
		text string
		want []model.Theme
	}{
		{
			name: "login complaint after password reset matches both access and security",
			text: "I can't login after the password reset, total nightmare",
			want: []model.Theme{model.ThemeLoginAccess, model.ThemeSecurity},
		},
		{
			name: "crash complaint matches performance",
			text: "The application crashes every time I open my statement",
			want: []model.Theme{model.ThemePerformance},
		},
		{
			name: "failed transfer matches transactions",
			text: "My money transfer failed twice this week, very frustrating",
			want: []model.Theme{model.ThemeTransactions},
		},
		{
			name: "feature wish matches feature request",
			text: "Please add fingerprint unlock, it would save so much time",
			want: []model.Theme{model.ThemeFeatureRequest},
		},
		{
			name: "network complaint matches connectivity",
			text: "Always shows network error even with good internet at home",
			want: []model.Theme{model.ThemeConnectivity},
		},
		{
			name: "praise with no category keywords matches nothing",
			text: "Wonderful experience overall, keep it up guys!!",
			want: nil,
		},
		{
			name: "text below minimum length matches nothing",
			text: "slow",
			want: nil,
		},
		{
			name: "empty text matches nothing",
			text: "",
			want: nil,
		},
		{
			name: "urls are stripped before matching",
			text: "see https://example.com/secure-login for details about nothing",
			want: nil,
		},
		{
			name: "matching is case insensitive",
			text: "LOGIN PROBLEM again, the PASSWORD field rejects everything",
			want: []model.Theme{model.ThemeLoginAccess},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.Match(tt.text))
		})
	}
}

func TestMatcher_MatchIsStateless(t *testing.T) {
	matcher := NewMatcher(DefaultCategories())
	text := "transfer failed and the app is slow"

	first := matcher.Match(text)

	// Interleave unrelated matches; the verdict for the same text must not move.
	matcher.Match("completely unrelated praise for the interface design")
	matcher.Match("network error when paying")

	assert.Equal(t, first, matcher.Match(text))
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	require.Len(t, cats, 8)

	seen := make(map[model.Theme]bool)
	for _, cat := range cats {
		assert.NotEmpty(t, cat.Name)
		assert.NotEmpty(t, cat.Keywords)
		assert.False(t, seen[cat.ID], "duplicate category %s", cat.ID)
		seen[cat.ID] = true
	}
}
