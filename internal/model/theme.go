package model

// Theme identifies one of the fixed complaint/feature categories.
type Theme string

// The eight predefined themes. The set is closed: theme assignment is pure
// keyword matching against a static table, never learned.
const (
	ThemeLoginAccess    Theme = "login_access"
	ThemeTransactions   Theme = "transactions"
	ThemePerformance    Theme = "performance"
	ThemeUserInterface  Theme = "user_interface"
	ThemeSupport        Theme = "support"
	ThemeSecurity       Theme = "security"
	ThemeFeatureRequest Theme = "feature_request"
	ThemeConnectivity   Theme = "connectivity"
)

// ThemeCategory pairs a theme with its display name and match keywords.
// Matching is case-insensitive substring containment; a review matches the
// category when at least one keyword appears in its cleaned text.
type ThemeCategory struct {
	ID       Theme
	Name     string
	Keywords []string
}
